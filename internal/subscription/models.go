// Package subscription provides storage for Web Push subscriptions.
package subscription

import (
	"encoding/json"
	"errors"
	"time"
)

// Repository errors.
var (
	ErrNotFound = errors.New("subscription not found")
)

// DefaultDeviceName is used when a client registers without a device label.
const DefaultDeviceName = "Desconhecido"

// Subscription represents a registered Web Push endpoint.
// Keys is the encryption material issued by the push platform; it is stored
// and forwarded as-is, never inspected here.
type Subscription struct {
	Endpoint   string
	Keys       json.RawMessage
	DeviceName string
	CreatedAt  time.Time
}

// clone returns a copy with its own Keys buffer.
func (s *Subscription) clone() *Subscription {
	if s == nil {
		return nil
	}
	c := &Subscription{
		Endpoint:   s.Endpoint,
		DeviceName: s.DeviceName,
		CreatedAt:  s.CreatedAt,
	}
	if s.Keys != nil {
		c.Keys = make(json.RawMessage, len(s.Keys))
		copy(c.Keys, s.Keys)
	}
	return c
}
