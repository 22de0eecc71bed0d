package utils

import (
	"net/http"

	"foodcart/globals"
)

func GetUserIDFromRequest(r *http.Request) string {
	id, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return id
}

// GetTokenFromRequest returns the bearer token the caller authenticated
// with, for forwarding upstream.
func GetTokenFromRequest(r *http.Request) string {
	tok, _ := r.Context().Value(globals.TokenKey).(string)
	return tok
}
