package events

import (
	"time"

	"quickbasket/internal/models"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// Envelope is the wire shape for every order lifecycle event.
type Envelope struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	VendorID  string    `json:"vendor_id"`
	Timestamp time.Time `json:"timestamp"`

	// Created events carry the full line items; status changes carry the
	// old and new status.
	Items     []models.OrderItem `json:"items,omitempty"`
	Total     int64              `json:"total,omitempty"`
	Phone     string             `json:"phone,omitempty"`
	OldStatus models.OrderStatus `json:"old_status,omitempty"`
	NewStatus models.OrderStatus `json:"new_status,omitempty"`
}

func OrderCreated(order *models.Order) Envelope {
	return Envelope{
		Type:      TypeOrderCreated,
		OrderID:   order.OrderID,
		VendorID:  order.VendorID,
		Timestamp: time.Now().UTC(),
		Items:     order.Items,
		Total:     order.Total,
		Phone:     order.CustomerPhone,
	}
}

func OrderStatusChanged(order *models.Order, from, to models.OrderStatus) Envelope {
	return Envelope{
		Type:      TypeOrderStatusChanged,
		OrderID:   order.OrderID,
		VendorID:  order.VendorID,
		Timestamp: time.Now().UTC(),
		Phone:     order.CustomerPhone,
		OldStatus: from,
		NewStatus: to,
	}
}
