package events

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	gouuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event types
const (
	TradeSettled       = "trade.settled"
	CommissionClaimed  = "commission.claimed"
	ReferralRegistered = "referral.registered"
)

// Envelope wraps every payload sent to the broker
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Key       string      `json:"key"`
	CreatedAt time.Time   `json:"createdAt"`
	Payload   interface{} `json:"payload"`
}

// NewEnvelope creates an envelope with a fresh id
func NewEnvelope(eventType, key string, payload interface{}) (*Envelope, error) {
	id, err := gouuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "unable to generate event id")
	}
	return &Envelope{
		ID:        id.String(),
		Type:      eventType,
		Key:       key,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}, nil
}

// Encode the envelope as json
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events after the state they describe has been committed
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
	Close() error
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
