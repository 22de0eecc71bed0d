package places

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"foodcart/apiclient"
	"foodcart/models"
	"foodcart/utils"
)

func GetRestaurants(l *Lookup) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		list, err := l.GetRestaurants(r.Context())
		if err != nil {
			l.log.WithError(err).Warn("list restaurants")
			utils.RespondWithError(w, http.StatusBadGateway, "Restaurants unavailable")
			return
		}
		if list == nil {
			list = []models.Restaurant{}
		}
		utils.RespondWithJSON(w, http.StatusOK, list)
	}
}

func GetRestaurant(l *Lookup) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		rest, err := l.GetRestaurantByID(r.Context(), ps.ByName("restaurantid"))
		switch {
		case errors.Is(err, apiclient.ErrNotFound), err == nil && rest == nil:
			utils.RespondWithError(w, http.StatusNotFound, "Restaurant not found")
		case err != nil:
			utils.RespondWithError(w, http.StatusBadGateway, "Restaurant unavailable")
		default:
			utils.RespondWithJSON(w, http.StatusOK, rest)
		}
	}
}
