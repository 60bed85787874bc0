// Package orchestrator sequences one lifecycle event through parsing, trust
// checks, the rollback short-circuit and dispatch, and owns the single
// swallow-and-report failure boundary: every failure past the parse stage is
// converted into exactly one failure callback.
package orchestrator

import (
	"context"
	"log/slog"

	"tfbridge/internal/envelope"
	"tfbridge/internal/event"
	"tfbridge/internal/guard"
	"tfbridge/internal/platform/metrics"
	"tfbridge/pkg/arn"
	"tfbridge/pkg/domainerrors"
)

// Credentials are short-lived keys for the launch role.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CredentialBroker assumes the launch role under the confused-deputy external
// id before any privileged call is made on the requester's behalf.
type CredentialBroker interface {
	AssumeRole(ctx context.Context, roleARN, externalID string) (Credentials, error)
}

// StackProber reports whether the target stack is rolling back an update, in
// the stack's own region and under the launch role's credentials.
type StackProber interface {
	IsStackInUpdateRollback(ctx context.Context, stackID, region string, creds Credentials) (bool, error)
}

// SignatureVerifier validates the envelope against its signing material.
type SignatureVerifier interface {
	Verify(ctx context.Context, content *envelope.Content) error
}

// Dispatcher submits the fulfillment command.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *event.Request, externalID string) error
}

// Notifier posts terminal callbacks.
type Notifier interface {
	Success(ctx context.Context, req *event.Request) error
	Failure(ctx context.Context, req *event.Request, reason string) error
}

// Config carries the validation inputs that are fixed per deployment.
type Config struct {
	// ArtifactBucket is the only bucket terraform artifacts may come from.
	ArtifactBucket string
	// ExternalID scopes launch-role assumption to this hub account.
	ExternalID string
}

// Orchestrator drives the request state machine.
type Orchestrator struct {
	verifier   SignatureVerifier
	broker     CredentialBroker
	stacks     StackProber
	dispatcher Dispatcher
	notifier   Notifier
	cfg        Config

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New constructs an orchestrator.
func New(verifier SignatureVerifier, broker CredentialBroker, stacks StackProber,
	dispatcher Dispatcher, notifier Notifier, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		verifier:   verifier,
		broker:     broker,
		stacks:     stacks,
		dispatcher: dispatcher,
		notifier:   notifier,
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one raw SNS delivery. The returned error is non-nil only
// when a callback could not be delivered; every other failure has already
// been reported to the control plane.
func (o *Orchestrator) Handle(ctx context.Context, raw []byte) error {
	o.metrics.IncrementEventsReceived()

	content, err := envelope.Decode(raw, false)
	var req *event.Request
	if err == nil {
		req, err = event.Decode([]byte(content.Message), false)
	}
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to parse request", "error", err)
		o.reportParseFailure(ctx, raw, err)
		return nil
	}

	if err := o.process(ctx, content, req); err != nil {
		// A callback that already failed to deliver must not trigger a second
		// callback attempt.
		if domainerrors.HasCode(err, domainerrors.CodeCallbackDelivery) {
			return err
		}
		return o.fail(ctx, req, err)
	}
	return nil
}

// process runs the validated sequence. Any error return is translated into a
// single failure callback by the caller.
func (o *Orchestrator) process(ctx context.Context, content *envelope.Content, req *event.Request) error {
	// Cheap validation first so obviously bad requests never reach SSM.
	if err := req.Properties.Validate(); err != nil {
		return err
	}
	if err := guard.AssertSameAccount(req.Properties, content); err != nil {
		return err
	}
	if err := o.verifier.Verify(ctx, content); err != nil {
		return err
	}
	if err := o.verifyArtifactSource(req.Properties); err != nil {
		return err
	}

	creds, err := o.broker.AssumeRole(ctx, req.Properties.LaunchRoleARN, o.cfg.ExternalID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "assume launch role")
	}

	// Terraform has no rollback semantics, so rolling back an update is a
	// no-op reported as success.
	if req.RequestType == event.RequestTypeUpdate {
		region, err := arn.Region(req.StackID)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeValidation, "parse stack region")
		}
		rollingBack, err := o.stacks.IsStackInUpdateRollback(ctx, req.StackID, region, creds)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "check stack rollback state")
		}
		if rollingBack {
			o.logger.InfoContext(ctx, "stack is rolling back an update, skipping dispatch", "stack_id", req.StackID)
			return o.succeed(ctx, req)
		}
	}

	return o.dispatcher.Dispatch(ctx, req, o.cfg.ExternalID)
}

func (o *Orchestrator) verifyArtifactSource(properties *event.Properties) error {
	bucket, err := arn.S3Bucket(properties.TerraformArtifactURL)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid TerraformArtifactUrl")
	}
	if bucket != o.cfg.ArtifactBucket {
		return domainerrors.New(domainerrors.CodeValidation,
			"invalid TerraformArtifactUrl, terraform artifacts must be contained in the following bucket: %s",
			o.cfg.ArtifactBucket)
	}
	return nil
}

// reportParseFailure re-parses leniently to recover a callback address. If
// even that fails, the failure can only be logged.
func (o *Orchestrator) reportParseFailure(ctx context.Context, raw []byte, cause error) {
	content, err := envelope.Decode(raw, true)
	if err != nil {
		o.logger.ErrorContext(ctx, "unable to recover a callback address from unparseable request", "error", err)
		return
	}
	req, err := event.Decode([]byte(content.Message), true)
	if err != nil || req.ResponseURL == "" {
		o.logger.ErrorContext(ctx, "unable to recover a callback address from unparseable request", "error", err)
		return
	}

	o.metrics.IncrementRequestFailures(string(domainerrors.CodeMalformedInput))
	if err := o.notifier.Failure(ctx, req, "Failed to parse request: "+cause.Error()); err != nil {
		// The fallback path is best-effort end to end; a failed callback here
		// is logged, not raised.
		o.logger.ErrorContext(ctx, "unexpected error posting failure response for unparseable request", "error", err)
	}
}

func (o *Orchestrator) succeed(ctx context.Context, req *event.Request) error {
	if err := o.notifier.Success(ctx, req); err != nil {
		return err
	}
	return nil
}

// fail issues the single failure callback. Callback delivery failures are the
// one class allowed to escape to the invoking runtime.
func (o *Orchestrator) fail(ctx context.Context, req *event.Request, cause error) error {
	code := domainerrors.CodeOf(cause)
	o.metrics.IncrementRequestFailures(string(code))
	o.logger.ErrorContext(ctx, "request failed", "code", string(code), "error", cause)

	if err := o.notifier.Failure(ctx, req, cause.Error()); err != nil {
		o.logger.ErrorContext(ctx, "failed to deliver failure callback", "error", err)
		return err
	}
	return nil
}
