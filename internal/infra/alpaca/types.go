package alpaca

// createOrderRequest is the wire shape for POST /v2/orders.
type createOrderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`          // buy, sell
	Type          string `json:"type"`          // market
	TimeInForce   string `json:"time_in_force"` // day, gtc, ioc, ...
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// orderResponse is the subset of Alpaca's order entity the gateway uses.
type orderResponse struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	Side          string `json:"side"`
	Qty           string `json:"qty"`
}

// apiError is Alpaca's error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Account is the subset of GET /v2/account used by the startup probe.
type Account struct {
	AccountNumber string `json:"account_number"`
	Status        string `json:"status"`
	Currency      string `json:"currency"`
	BuyingPower   string `json:"buying_power"`
	Equity        string `json:"equity"`
}
