package paystack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	c := NewClient("", "sk_test", "whsec", 0)
	body := []byte(`{"event":"charge.success","data":{"reference":"PSK_001"}}`)

	sig := c.SignBody(body)
	assert.True(t, c.VerifySignature(body, sig))
	assert.False(t, c.VerifySignature(body, sig+"00"))
	assert.False(t, c.VerifySignature([]byte(`{"tampered":true}`), sig))
}

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/PSK_001", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":true,"data":{"status":"success","amount":500000,"channel":"card","paid_at":"2026-01-01T00:00:00Z"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "whsec", 5*time.Second)
	data, err := c.Verify(context.Background(), "PSK_001")
	require.NoError(t, err)
	assert.Equal(t, "success", data.Status)
	assert.Equal(t, float64(500000), data.Amount)
}

func TestVerifyGatewayDownIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "sk_test", "whsec", time.Second)
	_, err := c.Verify(context.Background(), "PSK_001")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestVerifyAPIFailureIsNotUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "whsec", time.Second)
	_, err := c.Verify(context.Background(), "NOPE")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnreachable)
}
