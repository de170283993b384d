package checkout

import "net/http"

// Kind classifies a checkout outcome.
type Kind string

const (
	KindNone         Kind = ""
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindStaleCart    Kind = "stale_cart"
	KindUpstream     Kind = "upstream"
	KindStorage      Kind = "storage"
	KindInternal     Kind = "internal"
)

// Messages shown to the shopper.
const (
	MsgNotProvided   = "Cart items not provided"
	MsgInvalidFormat = "Invalid cart data format"
	MsgEmpty         = "Cart is empty"
	MsgUnauthorized  = "User not authenticated"
	MsgUpstream      = "Error verifying product information"
	MsgUnavailable   = "Some products are no longer available"
	MsgStorage       = "Could not save your order, please try again"
	MsgInternal      = "An unexpected error occurred"
)

// Result is the outcome of one checkout attempt. It is the only way
// PlaceOrder reports failure.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Kind    Kind   `json:"-"`
}

func success(orderID string) Result {
	return Result{Success: true, OrderID: orderID}
}

func failure(kind Kind, msg string) Result {
	return Result{Kind: kind, Error: msg}
}

// HTTPStatus maps the result to a response status.
func (r Result) HTTPStatus() int {
	if r.Success {
		return http.StatusCreated
	}
	switch r.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindStaleCart:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
