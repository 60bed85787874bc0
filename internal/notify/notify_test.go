package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tfbridge/internal/event"
	"tfbridge/pkg/domainerrors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest(responseURL string) *event.Request {
	return &event.Request{
		RequestType:        event.RequestTypeCreate,
		ResponseURL:        responseURL,
		StackID:            "arn:aws:cloudformation:us-east-1:111111111111:stack/my-stack/uuid-1",
		RequestID:          "req-1",
		LogicalResourceID:  "MyTerraformStack",
		PhysicalResourceID: "my-stack-MyTerraformStack-uuid-1",
	}
}

func TestSuccessPostsQuietReason(t *testing.T) {
	var got Response
	var method, contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	poster := NewPoster(discardLogger())
	err := poster.Success(context.Background(), testRequest(server.URL))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, method)
	assert.Empty(t, contentType, "content type must be suppressed for the presigned URL")
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Empty(t, got.Reason)
	assert.Equal(t, "my-stack-MyTerraformStack-uuid-1", got.PhysicalResourceID)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "MyTerraformStack", got.LogicalResourceID)
}

func TestFailureCarriesReason(t *testing.T) {
	var got Response
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	poster := NewPoster(discardLogger())
	err := poster.Failure(context.Background(), testRequest(server.URL), "no eligible instances")
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "no eligible instances", got.Reason)
}

func TestNon2xxIsDeliveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	poster := NewPoster(discardLogger())
	err := poster.Failure(context.Background(), testRequest(server.URL), "boom")
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeCallbackDelivery))
}

func TestTransportErrorIsDeliveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	poster := NewPoster(discardLogger())
	err := poster.Success(context.Background(), testRequest(server.URL))
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeCallbackDelivery))
}
