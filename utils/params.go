package utils

import (
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// ParamInt64 parses a numeric route parameter.
func ParamInt64(ps httprouter.Params, name string) (int64, bool) {
	v, err := strconv.ParseInt(ps.ByName(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
