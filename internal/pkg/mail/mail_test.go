package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoMailerSend(t *testing.T) {
	var got brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	m := NewBrevoMailer("key", "no-reply@chato.local", "Chato")
	m.endpoint = srv.URL

	err := m.Send(context.Background(), Message{ToEmail: "alice@example.com", Subject: "Hi", HTML: "<b>hi</b>"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Subject)
	assert.Equal(t, "alice", got.To[0]["name"])
	assert.Equal(t, "Chato", got.Sender["name"])
}

func TestBrevoMailerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewBrevoMailer("bad", "no-reply@chato.local", "Chato")
	m.endpoint = srv.URL

	err := m.Send(context.Background(), Message{ToEmail: "alice@example.com"})
	assert.ErrorContains(t, err, "401")

	err = m.Send(context.Background(), Message{ToEmail: "not-an-email"})
	assert.ErrorContains(t, err, "invalid recipient")
}
