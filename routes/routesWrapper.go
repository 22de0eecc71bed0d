package routes

import (
	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddHealthRoutes(router, d)
	AddCartRoutes(router, d)
	AddPlaceRoutes(router, d)
}
