package routes

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"foodcart/cart"
	"foodcart/live"
	"foodcart/menu"
	"foodcart/metrics"
	"foodcart/middleware"
	"foodcart/places"
	"foodcart/ratelim"
)

// Deps carries everything the route tables need.
type Deps struct {
	Auth        *middleware.Auth
	RateLimiter *ratelim.RateLimiter
	Cart        *cart.Handlers
	Registry    *cart.Registry
	Hub         *live.Hub
	Places      *places.Lookup
	Menu        *menu.Lookup
	CheckOrigin func(*http.Request) bool
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddHealthRoutes(router *httprouter.Router, d Deps) {
	router.GET("/health", Index)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())
}

func AddCartRoutes(router *httprouter.Router, d Deps) {
	auth := d.Auth.Authenticate
	h := d.Cart

	router.GET("/api/cart", auth(h.GetCart()))
	router.GET("/api/cart/restaurants", auth(h.GetCartByRestaurant()))
	router.DELETE("/api/cart", auth(h.ClearCart()))

	router.POST("/api/cart/items", auth(h.AddItem()))
	router.PUT("/api/cart/items/:restaurantid/:dishid", auth(h.UpdateQuantity()))
	router.DELETE("/api/cart/items/:restaurantid/:dishid", auth(h.RemoveItem()))
	router.POST("/api/cart/items/:restaurantid/:dishid/increment", auth(h.IncrementQuantity()))
	router.POST("/api/cart/items/:restaurantid/:dishid/decrement", auth(h.DecrementQuantity()))

	router.PUT("/api/cart/voucher", auth(h.SetVoucher()))
	router.PUT("/api/cart/notes", auth(h.SetCustomerNotes()))
	router.POST("/api/cart/voucher/validate", auth(d.RateLimiter.Limit(h.ValidateVoucher())))
	router.POST("/api/cart/checkout", auth(d.RateLimiter.Limit(h.Checkout())))

	router.GET("/api/cart/ws", auth(live.WebSocketHandler(d.Hub, d.Registry, d.CheckOrigin)))
}

func AddPlaceRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/restaurants", places.GetRestaurants(d.Places))
	router.GET("/api/restaurants/:restaurantid", places.GetRestaurant(d.Places))
	router.GET("/api/restaurants/:restaurantid/dishes", menu.GetDishes(d.Menu))
}
