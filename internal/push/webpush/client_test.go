package webpush_test

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	webpushgo "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpaulino/pushrelay/internal/push"
	"github.com/tpaulino/pushrelay/internal/push/webpush"
	"github.com/tpaulino/pushrelay/internal/subscription"
)

// newSubscription builds a subscription with real, decodable encryption
// keys so payload encryption succeeds against a local test server.
func newSubscription(t *testing.T, endpoint string) *subscription.Subscription {
	t.Helper()

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	keys, err := json.Marshal(map[string]string{
		"p256dh": base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		"auth":   base64.RawURLEncoding.EncodeToString(auth),
	})
	require.NoError(t, err)

	return &subscription.Subscription{
		Endpoint:   endpoint,
		Keys:       keys,
		DeviceName: "Pixel 8",
	}
}

func newClient(t *testing.T) *webpush.Client {
	t.Helper()

	private, public, err := webpushgo.GenerateVAPIDKeys()
	require.NoError(t, err)

	return webpush.NewClient(webpush.ClientConfig{
		VAPIDPublicKey:  public,
		VAPIDPrivateKey: private,
		Subscriber:      "mailto:ops@example.com",
		Logger:          zerolog.Nop(),
	})
}

func TestClient_SendSuccess(t *testing.T) {
	var gotBody int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		var buf [4096]byte
		n, _ := r.Body.Read(buf[:])
		gotBody = n
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sub := newSubscription(t, server.URL)
	err := newClient(t).Send(context.Background(), sub, []byte(`{"title":"Novo frete"}`))

	require.NoError(t, err)
	assert.Positive(t, gotBody, "payload must arrive encrypted, not empty")
}

func TestClient_SendGoneEndpoint(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		sub := newSubscription(t, server.URL)
		err := newClient(t).Send(context.Background(), sub, []byte(`{"title":"Novo frete"}`))

		assert.ErrorIs(t, err, push.ErrEndpointGone, "status %d must flag the endpoint for removal", status)
		server.Close()
	}
}

func TestClient_SendRejectedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer server.Close()

	sub := newSubscription(t, server.URL)
	err := newClient(t).Send(context.Background(), sub, []byte(`{"title":"Novo frete"}`))

	require.Error(t, err)
	assert.NotErrorIs(t, err, push.ErrEndpointGone, "only 404/410 may evict a subscription")
}

func TestClient_SendMalformedKeys(t *testing.T) {
	sub := &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     json.RawMessage(`"not an object"`),
	}

	err := newClient(t).Send(context.Background(), sub, []byte(`{"title":"Novo frete"}`))
	assert.Error(t, err)
}
