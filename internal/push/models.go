// Package push provides notification fan-out to registered Web Push
// subscriptions.
package push

import "encoding/json"

// Defaults applied when a broadcast omits the optional fields.
const (
	DefaultTag = "novo_frete"
	DefaultURL = "/fretes"
)

// Message is one logical notification broadcast to every subscriber.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	URL   string `json:"url"`
}

// Payload returns the JSON payload delivered to each endpoint, with the
// tag/url defaults filled in.
func (m Message) Payload() ([]byte, error) {
	if m.Tag == "" {
		m.Tag = DefaultTag
	}
	if m.URL == "" {
		m.URL = DefaultURL
	}
	return json.Marshal(m)
}

// Report aggregates the outcome of one broadcast. Total is the subscriber
// count after gone endpoints were removed.
type Report struct {
	Sent    int
	Failed  int
	Removed int
	Total   int
}
