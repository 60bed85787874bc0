// Package notify posts the single terminal callback for a lifecycle event to
// the control plane's presigned response URL.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tfbridge/internal/event"
	"tfbridge/internal/platform/metrics"
	"tfbridge/pkg/domainerrors"
)

// Status is the terminal state reported to the control plane.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Response is the callback payload. Field names are fixed by the control
// plane's callback contract.
type Response struct {
	Status             Status            `json:"Status"`
	Reason             string            `json:"Reason"`
	PhysicalResourceID string            `json:"PhysicalResourceId"`
	StackID            string            `json:"StackId"`
	RequestID          string            `json:"RequestId"`
	LogicalResourceID  string            `json:"LogicalResourceId"`
	NoEcho             bool              `json:"NoEcho,omitempty"`
	Data               map[string]string `json:"Data,omitempty"`
}

// Poster sends callbacks. There is no retry: the response URL is a single-use
// presigned location, so redelivery of the whole event is the recovery path.
type Poster struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Poster)

func WithClient(client *http.Client) Option {
	return func(p *Poster) { p.client = client }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poster) { p.metrics = m }
}

func NewPoster(logger *slog.Logger, opts ...Option) *Poster {
	p := &Poster{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Success reports SUCCESS. The control plane convention is to omit a reason
// on success, so Reason is left empty.
func (p *Poster) Success(ctx context.Context, req *event.Request) error {
	return p.post(ctx, req, Response{
		Status:             StatusSuccess,
		Reason:             "",
		PhysicalResourceID: req.PhysicalResourceID,
		StackID:            req.StackID,
		RequestID:          req.RequestID,
		LogicalResourceID:  req.LogicalResourceID,
	})
}

// Failure reports FAILED with a human-readable reason.
func (p *Poster) Failure(ctx context.Context, req *event.Request, reason string) error {
	return p.post(ctx, req, Response{
		Status:             StatusFailed,
		Reason:             reason,
		PhysicalResourceID: req.PhysicalResourceID,
		StackID:            req.StackID,
		RequestID:          req.RequestID,
		LogicalResourceID:  req.LogicalResourceID,
	})
}

func (p *Poster) post(ctx context.Context, req *event.Request, response Response) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeCallbackDelivery, "marshal callback response")
	}

	p.logger.InfoContext(ctx, "posting response", "status", response.Status, "request_id", response.RequestID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.ResponseURL, strings.NewReader(string(payload)))
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeCallbackDelivery, "build callback request")
	}
	// The response URL is a presigned S3 location; a Content-Type header would
	// invalidate its signature, so none is set.

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.logger.ErrorContext(ctx, "unable to post response", "url", req.ResponseURL, "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeCallbackDelivery,
			"unable to post response to URL %s", req.ResponseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.ErrorContext(ctx, "callback rejected", "url", req.ResponseURL, "status_code", resp.StatusCode)
		return domainerrors.New(domainerrors.CodeCallbackDelivery,
			"received status code %d when posting response at URL %s", resp.StatusCode, req.ResponseURL)
	}

	p.metrics.IncrementCallbacksSent(string(response.Status))
	return nil
}
