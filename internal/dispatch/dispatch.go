// Package dispatch submits fulfillment commands to terraform servers and owns
// the duplicate-dispatch check against the command record ledger.
package dispatch

//go:generate mockgen -source=dispatch.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"tfbridge/internal/event"
	"tfbridge/internal/ledger"
	"tfbridge/internal/platform/metrics"
	"tfbridge/pkg/arn"
	"tfbridge/pkg/domainerrors"
)

// ErrInvocationNotFound is returned by Commander.Invocation when the fleet no
// longer knows the command; a ledger record pointing at such a command is
// stale and must not block a new dispatch.
var ErrInvocationNotFound = errors.New("command invocation does not exist")

// executingStatuses are the invocation states that mean a command still owns
// the target.
var executingStatuses = map[string]bool{
	"Pending":    true,
	"Delayed":    true,
	"Cancelling": true,
	"InProgress": true,
}

const (
	// commandNotFoundExitCode is the shell's exit status when the wrapper
	// script is not installed on the server.
	commandNotFoundExitCode = 127

	// livenessDelay is how long dispatch waits before the single best-effort
	// check that the command actually started.
	livenessDelay = 30 * time.Second
)

// Invocation is the observed state of a submitted command.
type Invocation struct {
	Status       string
	ResponseCode int
}

// Fleet lists candidate fulfillment servers.
type Fleet interface {
	RunningInstanceIDs(ctx context.Context, tagKey, tagValue string) ([]string, error)
}

// Commander submits commands to a single server and reports their state.
type Commander interface {
	Send(ctx context.Context, instanceID string, commands []string, outputBucket, outputKeyPrefix string) (commandID string, err error)
	Invocation(ctx context.Context, commandID, instanceID string) (*Invocation, error)
}

// Notifier posts failure callbacks discovered after dispatch already
// succeeded.
type Notifier interface {
	Failure(ctx context.Context, req *event.Request, reason string) error
}

// Config carries the fulfillment targets for command submission.
type Config struct {
	ServerTagKey        string
	ServerTagValue      string
	CommandOutputBucket string
}

// Service implements the dispatch algorithm: refuse when a live command owns
// the target, pick a random running server, submit the wrapper script, record
// the dispatch, then make one delayed liveness check.
type Service struct {
	fleet     Fleet
	commander Commander
	records   ledger.Store
	notifier  Notifier
	cfg       Config

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	sleep   func(time.Duration)
	randInt func(n int) int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time and sleep, so tests do not wait out the liveness
// delay.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(s *Service) {
		s.now = now
		s.sleep = sleep
	}
}

// WithRand overrides server selection randomness.
func WithRand(randInt func(n int) int) Option {
	return func(s *Service) { s.randInt = randInt }
}

// New constructs a dispatch service.
func New(fleet Fleet, commander Commander, records ledger.Store, notifier Notifier, cfg Config, opts ...Option) *Service {
	s := &Service{
		fleet:     fleet,
		commander: commander,
		records:   records,
		notifier:  notifier,
		cfg:       cfg,
		logger:    slog.Default(),
		now:       time.Now,
		sleep:     time.Sleep,
		randInt:   rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch runs the full algorithm for one lifecycle event. It returns an
// error for every pre-submission failure; once the command is submitted and
// recorded, dispatch has succeeded and later problems are reported through
// the notifier only.
func (s *Service) Dispatch(ctx context.Context, req *event.Request, externalID string) error {
	if err := s.refuseConcurrentCommand(ctx, req); err != nil {
		return err
	}

	started := s.now()
	instanceID, err := s.pickInstance(ctx)
	if err != nil {
		return err
	}

	outputKeyPrefix, err := s.outputKeyPrefix(req)
	if err != nil {
		return err
	}
	script, err := buildScript(req, s.cfg.CommandOutputBucket, outputKeyPrefix, externalID)
	if err != nil {
		return err
	}

	// Fire-and-forget: the script's terminal result is reported by the wrapper
	// on the server, not by this process.
	commandID, err := s.commander.Send(ctx, instanceID, script, s.cfg.CommandOutputBucket, outputKeyPrefix+"/ssm_output")
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "sent command", "command_id", commandID, "instance_id", instanceID)
	s.metrics.IncrementCommandsSent()
	if s.metrics != nil {
		s.metrics.DispatchDuration.Observe(s.now().Sub(started).Seconds())
	}

	if err := s.records.Put(ctx, req.PhysicalResourceID, ledger.Record{
		CommandID:  commandID,
		InstanceID: instanceID,
	}); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "record dispatched command")
	}

	s.checkCommandFound(ctx, req, commandID, instanceID)
	return nil
}

// refuseConcurrentCommand aborts when the last recorded command for this
// target is still executing. A record whose invocation no longer exists is
// stale: log a warning and proceed.
func (s *Service) refuseConcurrentCommand(ctx context.Context, req *event.Request) error {
	record, err := s.records.Get(ctx, req.PhysicalResourceID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up command record")
	}

	invocation, err := s.commander.Invocation(ctx, record.CommandID, record.InstanceID)
	if errors.Is(err, ErrInvocationNotFound) {
		s.logger.WarnContext(ctx,
			"command record found but no invocation exists, assuming the previous command has completed and expired",
			"command_id", record.CommandID, "instance_id", record.InstanceID)
		return nil
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "check previous command status")
	}

	if executingStatuses[invocation.Status] {
		return domainerrors.New(domainerrors.CodeConflictingDispatch,
			"a terraform command is still executing for this stack, command id: %s, instance id: %s",
			record.CommandID, record.InstanceID)
	}
	return nil
}

func (s *Service) pickInstance(ctx context.Context) (string, error) {
	instanceIDs, err := s.fleet.RunningInstanceIDs(ctx, s.cfg.ServerTagKey, s.cfg.ServerTagValue)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "list terraform servers")
	}
	if len(instanceIDs) == 0 {
		return "", domainerrors.New(domainerrors.CodeNoEligibleWorker,
			"no running instances found with tag %s=%s", s.cfg.ServerTagKey, s.cfg.ServerTagValue)
	}
	// Uniform random choice spreads load; any eligible server is acceptable.
	return instanceIDs[s.randInt(len(instanceIDs))], nil
}

// outputKeyPrefix is deterministic from the stack identity, the current
// millisecond and the operation, so concurrent invocations for different
// targets never collide on output locations.
func (s *Service) outputKeyPrefix(req *event.Request) (string, error) {
	region, accountID, stackName, _, err := arn.StackParts(req.StackID)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeValidation, "parse stack id for output location")
	}
	return fmt.Sprintf("%s/%s/%s/%d-%s", accountID, region, stackName, s.now().UnixMilli(), req.RequestType), nil
}

// checkCommandFound sleeps out the liveness delay and probes the submitted
// command once. A FAILED status with the shell's command-not-found exit code
// means the wrapper script is missing on the server, which the wrapper itself
// can never report; everything else is left to the wrapper. Errors here are
// logged and swallowed: dispatch already succeeded.
func (s *Service) checkCommandFound(ctx context.Context, req *event.Request, commandID, instanceID string) {
	s.sleep(livenessDelay)

	invocation, err := s.commander.Invocation(ctx, commandID, instanceID)
	if err != nil {
		s.logger.WarnContext(ctx, "unable to determine whether command was found on terraform server",
			"command_id", commandID, "error", err)
		return
	}

	if invocation.Status == "Failed" && invocation.ResponseCode == commandNotFoundExitCode {
		reason := fmt.Sprintf("terraform wrapper script not found on instance %s, command id: %s",
			instanceID, commandID)
		if err := s.notifier.Failure(ctx, req, reason); err != nil {
			s.logger.ErrorContext(ctx, "failed to report missing wrapper script", "error", err)
		}
	}
}
