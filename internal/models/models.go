package models

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// StatusSequence is the forward progression of an order. Cancellation is a
// side branch reachable from any non-terminal status and is never part of
// the sequence itself.
var StatusSequence = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderPreparing,
	OrderReady,
	OrderOutForDelivery,
	OrderDelivered,
}

// NextStatus returns the status immediately following s in the forward
// sequence. The second return is false when s is terminal, cancelled, or
// not part of the sequence at all.
func NextStatus(s OrderStatus) (OrderStatus, bool) {
	for i, cur := range StatusSequence {
		if cur != s {
			continue
		}
		if i == len(StatusSequence)-1 {
			return "", false
		}
		return StatusSequence[i+1], true
	}
	return "", false
}

// CanCancel reports whether an order in status s may still be cancelled.
func CanCancel(s OrderStatus) bool {
	return s != OrderDelivered && s != OrderCancelled
}

// StatusLabel renders a status for display, e.g. "out_for_delivery"
// becomes "Out for delivery".
func StatusLabel(s OrderStatus) string {
	str := strings.ReplaceAll(string(s), "_", " ")
	if str == "" {
		return str
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type OrderItem struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Price     int64    `json:"price"`
	Quantity  int      `json:"quantity"`
	Options   []string `json:"options,omitempty"`
}

type Order struct {
	OrderID         string
	VendorID        string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Pincode         string
	Items           []OrderItem
	Subtotal        int64
	DeliveryFee     int64
	Total           int64
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Number is the human-facing order number shown to vendors and customers.
func (o *Order) Number() string {
	id := o.OrderID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

type Product struct {
	ProductID  string
	VendorID   string
	CategoryID string
	Name       string
	Price      int64
	ImageURL   string
	Pincodes   []string
	InStock    bool
	CreatedAt  time.Time
}

type Category struct {
	CategoryID string
	Name       string
	Icon       string
	Pincodes   []string
}

type VendorStatus string

const (
	VendorActive  VendorStatus = "active"
	VendorPending VendorStatus = "pending"
)

type Vendor struct {
	VendorID     string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Status       VendorStatus
	Pincodes     []string
	CreatedAt    time.Time
}
