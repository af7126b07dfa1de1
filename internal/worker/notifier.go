package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"quickbasket/internal/events"
	"quickbasket/internal/models"
)

func decode(payload []byte) (*events.Envelope, error) {
	var event events.Envelope
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal order event: %w", err)
	}
	return &event, nil
}

// Notifier delivers customer-facing notifications through an opaque HTTP
// endpoint (SMS/push gateway).
type Notifier struct {
	URL    string
	Client *http.Client
}

type notification struct {
	Phone   string `json:"phone"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

func (n *Notifier) OrderCreated(ctx context.Context, event *events.Envelope) error {
	msg := fmt.Sprintf("Your order %s has been placed.", shortID(event.OrderID))
	return n.send(ctx, notification{Phone: event.Phone, OrderID: event.OrderID, Message: msg})
}

func (n *Notifier) StatusChanged(ctx context.Context, event *events.Envelope) error {
	var msg string
	switch event.NewStatus {
	case models.OrderCancelled:
		msg = fmt.Sprintf("Your order %s has been cancelled.", shortID(event.OrderID))
	case models.OrderOutForDelivery:
		msg = fmt.Sprintf("Your order %s is out for delivery.", shortID(event.OrderID))
	case models.OrderDelivered:
		msg = fmt.Sprintf("Your order %s has been delivered. Thank you!", shortID(event.OrderID))
	default:
		msg = fmt.Sprintf("Your order %s is now %s.", shortID(event.OrderID), models.StatusLabel(event.NewStatus))
	}
	return n.send(ctx, notification{Phone: event.Phone, OrderID: event.OrderID, Message: msg})
}

func (n *Notifier) send(ctx context.Context, note notification) error {
	if note.Phone == "" {
		return nil
	}

	data, err := json.Marshal(note)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send notification: status %d", resp.StatusCode)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "#" + strings.ToUpper(id)
}
