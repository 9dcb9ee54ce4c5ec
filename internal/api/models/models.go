// Package models defines the wire types of the relay API.
package models

import "encoding/json"

// ErrorResponse is the body of every non-2xx API response.
// The clients (browser app, automation trigger) consume a flat shape.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health is the body of GET /api/health.
type Health struct {
	Status      string `json:"status"`
	Push        bool   `json:"push"`
	Subscribers int    `json:"subscribers"`
	Persisted   bool   `json:"persisted"`
}

// VAPIDKey is the body of GET /api/push/vapid-key.
type VAPIDKey struct {
	PublicKey string `json:"publicKey"`
}

// WebPushSubscription mirrors PushSubscription.toJSON() from the browser.
// Keys is kept opaque; only the push transport ever looks inside it.
type WebPushSubscription struct {
	Endpoint string          `json:"endpoint"`
	Keys     json.RawMessage `json:"keys"`
}

// SubscribeRequest is the body of POST /api/push/subscribe.
type SubscribeRequest struct {
	Subscription WebPushSubscription `json:"subscription"`
	DeviceName   string              `json:"device_name"`
}

// SubscribeResponse is the body of a successful subscribe. Persisted tells
// the client whether the registration survived to durable storage or is
// held in memory only until its next resync.
type SubscribeResponse struct {
	OK        bool `json:"ok"`
	Persisted bool `json:"persisted"`
}

// UnsubscribeRequest is the body of POST /api/push/unsubscribe.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// OKResponse is the body of a successful unsubscribe.
type OKResponse struct {
	OK bool `json:"ok"`
}

// SendRequest is the body of POST /api/push/send.
type SendRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	URL   string `json:"url"`
}

// SendResponse is the body of a successful send.
type SendResponse struct {
	OK     bool `json:"ok"`
	Sent   int  `json:"sent"`
	Failed int  `json:"failed"`
	Total  int  `json:"total"`
}
