package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/greenplanet/inventory-server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSend_PostsJSON(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewHTTPMailer(config.EmailConfig{
		Endpoint:    srv.URL,
		APIKey:      "key-123",
		FromAddress: "reports@greenplanet.example",
	}, zap.NewNop())

	err := m.Send(context.Background(), Message{
		To:       "adjuster@insurer.example",
		Subject:  "Insurance Claim Documentation - Policy: P-1",
		HTML:     "<html><body>hi</body></html>",
		FromName: "Jane Doe",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-123", auth)
	assert.Equal(t, "adjuster@insurer.example", got.To)
	assert.Equal(t, "reports@greenplanet.example", got.From)
	assert.Equal(t, "Jane Doe", got.FromName)
	assert.Contains(t, got.HTML, "hi")
}

func TestSend_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"invalid recipient"}`))
	}))
	defer srv.Close()

	m := NewHTTPMailer(config.EmailConfig{Endpoint: srv.URL}, zap.NewNop())
	err := m.Send(context.Background(), Message{To: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestClaimSubject(t *testing.T) {
	assert.Equal(t, "Insurance Claim Documentation - Policy: HO-998", ClaimSubject("HO-998"))
	assert.Equal(t, "Insurance Claim Documentation - Policy: N/A", ClaimSubject(""))
}
