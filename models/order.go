package models

// OrderRequest is the body of one per-restaurant order submission.
type OrderRequest struct {
	RestaurantID  string     `json:"restaurantId"`
	Items         []CartItem `json:"items"`
	VoucherCode   string     `json:"voucherCode,omitempty"`
	VoucherID     string     `json:"voucherId,omitempty"`
	CustomerNotes string     `json:"customerNotes,omitempty"`
}

// Order is what the order endpoint echoes back on success.
type Order struct {
	ID           string  `json:"id"`
	RestaurantID string  `json:"restaurantId"`
	Status       string  `json:"status"`
	TotalAmount  float64 `json:"totalAmount,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}

// VoucherValidationRequest asks the backend whether a code applies to an amount.
type VoucherValidationRequest struct {
	VoucherCode string  `json:"voucherCode"`
	OrderAmount float64 `json:"orderAmount"`
}

// Voucher describes the discount a voucher grants.
type Voucher struct {
	ID             string  `json:"id"`
	Code           string  `json:"code"`
	DiscountType   string  `json:"discountType,omitempty"` // "percent" or "fixed"
	DiscountValue  float64 `json:"discountValue,omitempty"`
	MinOrderAmount float64 `json:"minOrderAmount,omitempty"`
	ExpiresAt      string  `json:"expiresAt,omitempty"`
}

// VoucherValidationResult is passed through to callers untouched.
type VoucherValidationResult struct {
	Valid          bool     `json:"valid"`
	Message        string   `json:"message,omitempty"`
	DiscountAmount *float64 `json:"discountAmount,omitempty"`
	FinalPrice     *float64 `json:"finalPrice,omitempty"`
	Voucher        *Voucher `json:"voucher,omitempty"`
}

// OrderEvent is emitted after each per-restaurant submission resolves.
type OrderEvent struct {
	Event        string `json:"event"` // "order-submitted" or "order-failed"
	CustomerID   string `json:"customerId,omitempty"`
	RestaurantID string `json:"restaurantId"`
	OrderID      string `json:"orderId,omitempty"`
	Items        int    `json:"items"`
	Error        string `json:"error,omitempty"`
	At           string `json:"at"`
}
