package services

import (
	"context"
	"errors"
	"log"
	"time"

	"quickbasket/internal/events"
	"quickbasket/internal/metrics"
	"quickbasket/internal/models"

	"github.com/google/uuid"
)

var (
	ErrMissingVendorID      = errors.New("missing vendor id")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrInvalidItem          = errors.New("invalid line item")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotOwned             = errors.New("order does not belong to vendor")
	ErrNoNextStatus         = errors.New("no next status")
	ErrOrderClosed          = errors.New("order already delivered or cancelled")
	ErrConfirmationRequired = errors.New("cancellation requires confirmation")
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListVendorOrders(ctx context.Context, vendorID string, status models.OrderStatus) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type OrderService struct {
	Store       OrderStore
	Events      EventPublisher // nil disables publishing
	DeliveryFee int64
}

type NewOrderInput struct {
	VendorID        string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Pincode         string
	Items           []models.OrderItem
	PaymentMethod   models.PaymentMethod
}

// CreateOrder validates the line items, computes the totals and persists a
// new pending order. Subtotal is the sum of price times quantity and total
// always equals subtotal plus the delivery fee.
func (s *OrderService) CreateOrder(ctx context.Context, in NewOrderInput) (*models.Order, error) {
	if in.VendorID == "" {
		return nil, ErrMissingVendorID
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var subtotal int64
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Price < 0 {
			return nil, ErrInvalidItem
		}
		subtotal += item.Price * int64(item.Quantity)
	}

	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCOD
	}

	now := time.Now().UTC()
	order := &models.Order{
		OrderID:         uuid.NewString(),
		VendorID:        in.VendorID,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		Pincode:         in.Pincode,
		Items:           in.Items,
		Subtotal:        subtotal,
		DeliveryFee:     s.DeliveryFee,
		Total:           subtotal + s.DeliveryFee,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentPending,
		Status:          models.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	s.publish(ctx, order.OrderID, events.OrderCreated(order))
	return order, nil
}

// VendorOrder fetches one order and verifies it belongs to the vendor.
func (s *OrderService) VendorOrder(ctx context.Context, vendorID, orderID string) (*models.Order, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != vendorID {
		return nil, ErrNotOwned
	}
	return order, nil
}

func (s *OrderService) ListVendorOrders(ctx context.Context, vendorID string, status models.OrderStatus) ([]*models.Order, error) {
	if vendorID == "" {
		return nil, ErrMissingVendorID
	}
	return s.Store.ListVendorOrders(ctx, vendorID, status)
}

// Advance moves the order to the next status in the fixed sequence. The
// write is persisted first; the in-memory order is only updated once the
// store confirms it, so a failed write never desynchronizes the caller's
// view from the persisted record.
func (s *OrderService) Advance(ctx context.Context, order *models.Order) (models.OrderStatus, error) {
	next, ok := models.NextStatus(order.Status)
	if !ok {
		return "", ErrNoNextStatus
	}

	rows, err := s.Store.UpdateOrderStatus(ctx, order.OrderID, next)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		return "", ErrOrderNotFound
	}

	old := order.Status
	order.Status = next
	order.UpdatedAt = time.Now().UTC()
	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	s.publish(ctx, order.OrderID, events.OrderStatusChanged(order, old, next))
	return next, nil
}

// Cancel marks the order cancelled. Permitted from any status except
// delivered and cancelled; callers must have obtained explicit user
// confirmation. No compensating actions are taken.
func (s *OrderService) Cancel(ctx context.Context, order *models.Order, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if !models.CanCancel(order.Status) {
		return ErrOrderClosed
	}

	rows, err := s.Store.UpdateOrderStatus(ctx, order.OrderID, models.OrderCancelled)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	old := order.Status
	order.Status = models.OrderCancelled
	order.UpdatedAt = time.Now().UTC()
	metrics.OrderTransitions.WithLabelValues(string(models.OrderCancelled)).Inc()
	s.publish(ctx, order.OrderID, events.OrderStatusChanged(order, old, models.OrderCancelled))
	return nil
}

// publish is best effort: a broken event pipeline must not fail the order
// operation that triggered it.
func (s *OrderService) publish(ctx context.Context, key string, event any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, key, event); err != nil {
		log.Printf("publish order event failed: %v", err)
	}
}
