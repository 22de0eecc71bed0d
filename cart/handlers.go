package cart

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"foodcart/apiclient"
	"foodcart/menu"
	"foodcart/utils"
)

// Handlers exposes the customer's cart store over HTTP. Every route
// expects middleware to have put the user id and bearer token in context.
type Handlers struct {
	Registry    *Registry
	Menu        MenuLookup
	Restaurants RestaurantLookup
}

type addItemRequest struct {
	RestaurantID string `json:"restaurantId"`
	DishID       int64  `json:"dishId"`
	Quantity     int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type voucherRequest struct {
	VoucherCode string `json:"voucherCode"`
	VoucherID   string `json:"voucherId"`
}

type notesRequest struct {
	CustomerNotes string `json:"customerNotes"`
}

type validateVoucherRequest struct {
	VoucherCode string   `json:"voucherCode"`
	OrderAmount *float64 `json:"orderAmount,omitempty"`
}

func (h *Handlers) store(r *http.Request) (*Store, bool) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		return nil, false
	}
	return h.Registry.Session(r.Context(), userID, utils.GetTokenFromRequest(r)), true
}

func (h *Handlers) withStore(fn func(http.ResponseWriter, *http.Request, httprouter.Params, *Store)) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, ok := h.store(r)
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		fn(w, r, ps, s)
	}
}

func (h *Handlers) GetCart() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, s *Store) {
		utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
	})
}

func (h *Handlers) GetCartByRestaurant() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, s *Store) {
		utils.RespondWithJSON(w, http.StatusOK, s.CartByRestaurant())
	})
}

// AddItem resolves the dish and restaurant server-side so the price in the
// cart always comes from the catalog, never from the client.
func (h *Handlers) AddItem() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params, s *Store) {
		var req addItemRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.RestaurantID == "" || req.DishID == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "restaurantId and dishId are required")
			return
		}
		if req.Quantity > MaxQuantity {
			utils.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
			return
		}

		rest, err := h.Restaurants.GetRestaurantByID(r.Context(), req.RestaurantID)
		if err != nil || rest == nil {
			respondUpstream(w, err, "Restaurant not found")
			return
		}
		dishes, err := h.Menu.GetDishes(r.Context(), "", req.RestaurantID)
		if err != nil {
			respondUpstream(w, err, "Menu unavailable")
			return
		}
		dish, ok := menu.FindDish(dishes, req.DishID)
		if !ok {
			utils.RespondWithError(w, http.StatusNotFound, "Dish not found")
			return
		}

		name := rest.Name
		if name == "" {
			name = req.RestaurantID
		}
		s.AddItem(r.Context(), dish, req.RestaurantID, name, req.Quantity)
		utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
	})
}

func (h *Handlers) UpdateQuantity() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, s *Store) {
		dishID, ok := utils.ParamInt64(ps, "dishid")
		if !ok {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid dish id")
			return
		}
		var req quantityRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Quantity > MaxQuantity {
			utils.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
			return
		}
		s.UpdateQuantity(r.Context(), dishID, ps.ByName("restaurantid"), req.Quantity)
		utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
	})
}

func (h *Handlers) IncrementQuantity() httprouter.Handle {
	return h.itemOp(func(s *Store, r *http.Request, dishID int64, restaurantID string) {
		s.IncrementQuantity(r.Context(), dishID, restaurantID)
	})
}

func (h *Handlers) DecrementQuantity() httprouter.Handle {
	return h.itemOp(func(s *Store, r *http.Request, dishID int64, restaurantID string) {
		s.DecrementQuantity(r.Context(), dishID, restaurantID)
	})
}

func (h *Handlers) RemoveItem() httprouter.Handle {
	return h.itemOp(func(s *Store, r *http.Request, dishID int64, restaurantID string) {
		s.RemoveItem(r.Context(), dishID, restaurantID)
	})
}

func (h *Handlers) itemOp(op func(s *Store, r *http.Request, dishID int64, restaurantID string)) httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, s *Store) {
		dishID, ok := utils.ParamInt64(ps, "dishid")
		if !ok {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid dish id")
			return
		}
		op(s, r, dishID, ps.ByName("restaurantid"))
		utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
	})
}

func (h *Handlers) ClearCart() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params, s *Store) {
		s.Clear(r.Context())
		utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
	})
}

func (h *Handlers) SetVoucher() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params, s *Store) {
		var req voucherRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		s.SetVoucher(r.Context(), strings.TrimSpace(req.VoucherCode), req.VoucherID)
		utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
	})
}

func (h *Handlers) SetCustomerNotes() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params, s *Store) {
		var req notesRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		s.SetCustomerNotes(r.Context(), req.CustomerNotes)
		utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
	})
}

// ValidateVoucher checks a code against the given amount, or the current
// cart total when no amount is sent.
func (h *Handlers) ValidateVoucher() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params, s *Store) {
		var req validateVoucherRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		code := strings.TrimSpace(req.VoucherCode)
		if code == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "voucherCode is required")
			return
		}
		amount := s.TotalAmount()
		if req.OrderAmount != nil {
			amount = *req.OrderAmount
		}

		res, err := s.ValidateVoucher(r.Context(), code, amount)
		if err != nil {
			respondUpstream(w, err, "Voucher validation failed")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, res)
	})
}

func (h *Handlers) Checkout() httprouter.Handle {
	return h.withStore(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params, s *Store) {
		if s.TotalItems() == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Cart is empty")
			return
		}
		n := s.CreateOrder(r.Context())
		utils.RespondWithJSON(w, http.StatusAccepted, utils.M{"orders": n})
	})
}

// respondUpstream maps a collaborator error to a gateway response. Upstream
// status errors keep their status and body.
func respondUpstream(w http.ResponseWriter, err error, fallback string) {
	var apiErr *apiclient.Error
	switch {
	case err == nil, errors.Is(err, apiclient.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, fallback)
	case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
		msg := apiErr.Body
		if msg == "" {
			msg = fallback
		}
		utils.RespondWithError(w, apiErr.StatusCode, msg)
	case errors.Is(err, ErrNoVoucherValidator):
		utils.RespondWithError(w, http.StatusServiceUnavailable, fallback)
	default:
		utils.RespondWithError(w, http.StatusBadGateway, fallback)
	}
}
