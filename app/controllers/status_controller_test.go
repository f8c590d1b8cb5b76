package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newopeningsupply/fulfillrelay/internal/pkg/fulfillment"
)

func TestHandleThankYouStatus_MissingTxn(t *testing.T) {
	env := newWebhookTestEnv(t, nil)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/thankyou/status", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleThankYouStatus_NotReady(t *testing.T) {
	env := newWebhookTestEnv(t, nil)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/thankyou/status?txn=txn_unknown", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["ready"])
	assert.NotContains(t, body, "downloadUrl")
}

func TestHandleThankYouStatus_ReadyWithDownloadURL(t *testing.T) {
	env := newWebhookTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.store.PutTransaction(ctx, "txn_1", fulfillment.TransactionRecord{
		DownloadToken: "tok_1",
		CreatedAt:     time.Now(),
	}))
	require.NoError(t, env.store.PutToken(ctx, "tok_1", fulfillment.TokenRecord{
		ResourceKey: "products/demo.zip",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/thankyou/status?txn=txn_1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "https://dl.example.com/download?token=tok_1", body["downloadUrl"])
}

func TestHandleThankYouStatus_ReadyWithoutDeliverable(t *testing.T) {
	env := newWebhookTestEnv(t, nil)
	require.NoError(t, env.store.PutTransaction(context.Background(), "txn_nodl", fulfillment.TransactionRecord{
		DownloadToken: "tok_unbacked",
		CreatedAt:     time.Now(),
	}))

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/thankyou/status?txn=txn_nodl", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ready"])
	assert.NotContains(t, body, "downloadUrl")
}
