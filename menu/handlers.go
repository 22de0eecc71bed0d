package menu

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"foodcart/apiclient"
	"foodcart/models"
	"foodcart/utils"
)

// GetDishes lists a restaurant's catalog, optionally narrowed by ?category=.
func GetDishes(l *Lookup) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		dishes, err := l.GetDishes(r.Context(), r.URL.Query().Get("category"), ps.ByName("restaurantid"))
		if err != nil {
			if errors.Is(err, apiclient.ErrNotFound) {
				utils.RespondWithError(w, http.StatusNotFound, "Menu not found")
				return
			}
			l.log.WithError(err).Warn("list dishes")
			utils.RespondWithError(w, http.StatusBadGateway, "Menu unavailable")
			return
		}
		if dishes == nil {
			dishes = []models.Dish{}
		}
		utils.RespondWithJSON(w, http.StatusOK, dishes)
	}
}
