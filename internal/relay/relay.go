// Package relay is the spoke-side forwarder. It receives lifecycle events in
// the requester's account and republishes them to the hub topic, stamped with
// the requester's account id so the hub can enforce account isolation.
package relay

import (
	"context"
	"log/slog"

	"tfbridge/internal/envelope"
	"tfbridge/internal/event"
	"tfbridge/internal/guard"
	"tfbridge/internal/platform/metrics"
	"tfbridge/pkg/domainerrors"
)

// Publisher sends one message with string attributes to the hub topic.
type Publisher interface {
	Publish(ctx context.Context, message string, attributes map[string]string) (messageID string, err error)
}

// Notifier posts failure callbacks when forwarding breaks down.
type Notifier interface {
	Failure(ctx context.Context, req *event.Request, reason string) error
}

// Service forwards events to the hub.
type Service struct {
	publisher Publisher
	notifier  Notifier
	accountID string

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a relay for the given spoke account id.
func New(publisher Publisher, notifier Notifier, accountID string, opts ...Option) *Service {
	s := &Service{
		publisher: publisher,
		notifier:  notifier,
		accountID: accountID,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle forwards one raw delivery. Parsing is lenient throughout: the hub
// performs the real validation, and the relay's only jobs are to pass the
// event along verbatim and to report a forwarding failure if it can.
func (s *Service) Handle(ctx context.Context, raw []byte) error {
	s.metrics.IncrementEventsReceived()

	content, err := envelope.Decode(raw, true)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeMalformedInput, "decode relay input")
	}

	messageID, err := s.publisher.Publish(ctx, content.Message, map[string]string{
		guard.AccountIDAttributeKey: s.accountID,
	})
	if err == nil {
		s.logger.InfoContext(ctx, "forwarded event to hub", "message_id", messageID)
		return nil
	}

	s.logger.ErrorContext(ctx, "failed to forward event to hub", "error", err)
	s.reportForwardFailure(ctx, content.Message, err)
	return domainerrors.Wrap(err, domainerrors.CodeInternal, "publish event to hub")
}

// reportForwardFailure makes a best-effort attempt to fail the stack
// operation, so the requester is not left waiting out the control plane's
// timeout.
func (s *Service) reportForwardFailure(ctx context.Context, message string, cause error) {
	req, err := event.Decode([]byte(message), true)
	if err != nil || req.ResponseURL == "" {
		s.logger.ErrorContext(ctx, "no callback address recoverable for failed forward", "error", err)
		return
	}
	if err := s.notifier.Failure(ctx, req, "Failed to forward request to hub: "+cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "failed to deliver forward-failure callback", "error", err)
	}
}
