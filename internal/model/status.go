package model

import "fmt"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusPaid      OrderStatus = "paid"
)

// statusFlow maps each order status to the statuses an order may move to
// next. Terminal statuses map to an empty set. "paid" is only ever written
// through the administrative override, never through the forward chain.
var statusFlow = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
	OrderStatusPaid:      {},
}

func (s OrderStatus) Valid() bool {
	_, ok := statusFlow[s]
	return ok
}

type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}

// ValidateTransition reports whether an order may move from one status to
// another. Re-asserting the current status is a no-op and always allowed.
func ValidateTransition(from, to OrderStatus) error {
	if from == to {
		return nil
	}
	for _, next := range statusFlow[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

type ProductStatus string

const (
	ProductStatusActive  ProductStatus = "active"
	ProductStatusSold    ProductStatus = "sold"
	ProductStatusExpired ProductStatus = "expired"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusSold, ProductStatusExpired:
		return true
	}
	return false
}

const (
	CurrencyETB = "ETB"
	CurrencyUSD = "USD"
	CurrencyAED = "AED"
)

func ValidCurrency(code string) bool {
	switch code {
	case CurrencyETB, CurrencyUSD, CurrencyAED:
		return true
	}
	return false
}
