package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// messageTypeHeader carries the SNS delivery kind on HTTPS subscriptions.
const messageTypeHeader = "x-amz-sns-message-type"

const (
	messageTypeNotification             = "Notification"
	messageTypeSubscriptionConfirmation = "SubscriptionConfirmation"
	messageTypeUnsubscribeConfirmation  = "UnsubscribeConfirmation"
)

// maxEventBody bounds the request body; lifecycle events are a few KB.
const maxEventBody = 1 << 20

// EventProcessor handles one raw delivery in the record-wrapped form.
type EventProcessor interface {
	Handle(ctx context.Context, raw []byte) error
}

// Handler terminates SNS HTTPS deliveries. Notifications are re-wrapped into
// the record envelope the processor expects; subscription handshakes are
// completed inline.
type Handler struct {
	processor EventProcessor
	logger    *slog.Logger
	client    *http.Client
}

type Option func(*Handler)

// WithClient overrides the HTTP client used to confirm subscriptions.
func WithClient(client *http.Client) Option {
	return func(h *Handler) { h.client = client }
}

func NewHandler(processor EventProcessor, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		processor: processor,
		logger:    logger,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		http.Error(w, "unable to read body", http.StatusBadRequest)
		return
	}

	switch r.Header.Get(messageTypeHeader) {
	case messageTypeSubscriptionConfirmation:
		h.confirmSubscription(r.Context(), w, body)
	case messageTypeUnsubscribeConfirmation:
		h.logger.InfoContext(r.Context(), "subscription cancelled upstream")
		w.WriteHeader(http.StatusOK)
	case messageTypeNotification, "":
		h.processNotification(r.Context(), w, body)
	default:
		http.Error(w, "unknown message type", http.StatusBadRequest)
	}
}

// processNotification wraps the bare HTTPS delivery body into the record
// envelope and runs it through the processor. The processor reports request
// failures upstream itself; only callback delivery failures surface here.
func (h *Handler) processNotification(ctx context.Context, w http.ResponseWriter, body []byte) {
	wrapped, err := wrapRecord(body)
	if err != nil {
		http.Error(w, "malformed notification body", http.StatusBadRequest)
		return
	}
	if err := h.processor.Handle(ctx, wrapped); err != nil {
		h.logger.ErrorContext(ctx, "event processing failed", "error", err)
		http.Error(w, "event processing failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// confirmSubscription completes the SNS handshake by visiting the
// SubscribeURL, after checking it actually points at SNS.
func (h *Handler) confirmSubscription(ctx context.Context, w http.ResponseWriter, body []byte) {
	var confirmation struct {
		SubscribeURL string `json:"SubscribeURL"`
		TopicArn     string `json:"TopicArn"`
	}
	if err := json.Unmarshal(body, &confirmation); err != nil {
		http.Error(w, "malformed confirmation body", http.StatusBadRequest)
		return
	}
	if err := validateSubscribeURL(confirmation.SubscribeURL); err != nil {
		h.logger.WarnContext(ctx, "refusing subscription confirmation", "error", err)
		http.Error(w, "invalid subscribe url", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, confirmation.SubscribeURL, nil)
	if err != nil {
		http.Error(w, "invalid subscribe url", http.StatusBadRequest)
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.ErrorContext(ctx, "subscription confirmation failed", "error", err)
		http.Error(w, "confirmation failed", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	h.logger.InfoContext(ctx, "confirmed subscription", "topic_arn", confirmation.TopicArn, "status", resp.StatusCode)
	w.WriteHeader(http.StatusOK)
}

func validateSubscribeURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse subscribe url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("subscribe url %q is not https", rawURL)
	}
	host := u.Hostname()
	if !strings.HasPrefix(host, "sns.") || !strings.HasSuffix(host, ".amazonaws.com") {
		return fmt.Errorf("subscribe url host %q is not an sns endpoint", host)
	}
	return nil
}

// wrapRecord embeds the HTTPS delivery body in the same shape subscribers see
// from an SNS-triggered function invocation, so both transports share one
// parse path.
func wrapRecord(body []byte) ([]byte, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("body is not valid json")
	}
	type record struct {
		EventSource  string          `json:"EventSource"`
		EventVersion string          `json:"EventVersion"`
		Sns          json.RawMessage `json:"Sns"`
	}
	return json.Marshal(struct {
		Records []record `json:"Records"`
	}{Records: []record{{EventSource: "aws:sns", EventVersion: "1.0", Sns: body}}})
}
