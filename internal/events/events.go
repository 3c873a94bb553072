// Package events fans stock changes out to live dashboards, through Kafka when
// brokers are configured and straight to the websocket hub otherwise.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types
const (
	RecipePrepared  = "recipe.prepared"
	PurchaseCreated = "purchase.created"
	StockLow        = "stock.low"
	IFoodWebhook    = "ifood.webhook"
)

type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher is fire-and-forget: publishing never fails the caller's operation.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Broadcaster pushes raw frames to every connected websocket client
type Broadcaster interface {
	BroadcastMessage(message []byte)
}

// HubPublisher delivers events directly to a Broadcaster
type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, e Event) {
	raw, err := e.Encode()
	if err != nil {
		return
	}
	p.hub.BroadcastMessage(raw)
}

// Discard drops every event
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
