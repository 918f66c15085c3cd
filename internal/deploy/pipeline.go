package deploy

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"greencart/internal/events"
	"greencart/internal/metrics"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

const (
	lockKey        = "greencart:deploy:lock"
	defaultLockTTL = 30 * time.Minute
)

// Locker serializes deploys across hosts. The Redis adapter satisfies it.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// EventPublisher is the subset of events.Publisher the pipeline needs
type EventPublisher interface {
	PublishDeployCompleted(ctx context.Context, event *events.DeployCompleted) error
}

// Pipeline runs its steps strictly in order
type Pipeline struct {
	steps     []Step
	out       io.Writer
	log       *logger.Logger
	tracker   errors.Tracker
	publisher EventPublisher
	locker    Locker
	lockTTL   time.Duration
	now       func() time.Time

	running atomic.Bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger overrides the component logger
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) { p.log = log.With("component", "deploy") }
}

// WithTracker reports step failures to tracker
func WithTracker(tracker errors.Tracker) Option {
	return func(p *Pipeline) { p.tracker = tracker }
}

// WithPublisher emits deploy.completed after every real run
func WithPublisher(publisher EventPublisher) Option {
	return func(p *Pipeline) { p.publisher = publisher }
}

// WithLocker holds a distributed lock for the duration of a run
func WithLocker(locker Locker, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.locker = locker
		if ttl > 0 {
			p.lockTTL = ttl
		}
	}
}

// New creates a pipeline writing progress to out
func New(out io.Writer, steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:   steps,
		out:     out,
		log:     logger.Get().With("component", "deploy"),
		lockTTL: defaultLockTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Steps returns the configured steps in execution order
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Run executes the pipeline. The returned report is never nil when the
// options are valid; the error is non-nil when a fatal step failed.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	skip, err := p.skipSet(opts.Skip)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return p.plan(skip), nil
	}

	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrDeployInProgress
	}
	defer p.running.Store(false)

	if p.locker != nil {
		acquired, err := p.locker.AcquireLock(ctx, lockKey, p.lockTTL)
		if err != nil {
			return nil, errors.Wrap(err, "acquire deploy lock")
		}
		if !acquired {
			return nil, ErrDeployInProgress
		}
		defer func() {
			if err := p.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
				p.log.Warnw("Failed to release deploy lock", "error", err)
			}
		}()
	}

	report := &Report{StartedAt: p.now().UTC(), Steps: make([]StepResult, 0, len(p.steps))}
	p.log.Infow("Deploy started", "steps", len(p.steps))

	var runErr error
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			runErr = errors.Wrap(err, "deploy interrupted")
			report.Steps = append(report.Steps, p.notRun(p.steps[i:])...)
			break
		}

		if skip[step.Name()] {
			fmt.Fprintf(p.out, "==> %s (skipped)\n", step.Name())
			report.Steps = append(report.Steps, p.result(step, StatusSkipped, 0, "skipped by request"))
			continue
		}

		res, err := p.runStep(ctx, step)
		report.Steps = append(report.Steps, res)
		if err != nil {
			runErr = fmt.Errorf("%w: %s: %w", errors.ErrStepFailed, step.Name(), err)
			report.Steps = append(report.Steps, p.notRun(p.steps[i+1:])...)
			break
		}
	}

	report.Duration = p.now().Sub(report.StartedAt)
	report.Succeeded = runErr == nil
	metrics.RecordDeployRun(report.Succeeded)

	if report.Succeeded {
		p.log.Infow("Deploy completed", "duration", report.Duration)
	} else {
		p.log.Warnw("Deploy aborted", "duration", report.Duration, "error", runErr)
	}

	p.publish(ctx, report)
	return report, runErr
}

func (p *Pipeline) runStep(ctx context.Context, step Step) (StepResult, error) {
	name := step.Name()
	fmt.Fprintf(p.out, "==> %s\n", name)

	start := p.now()
	err := step.Run(ctx, p.out)
	elapsed := p.now().Sub(start)

	switch {
	case err == nil:
		p.log.Infow("Deploy step ok", "step", name, "duration", elapsed)
		return p.result(step, StatusOK, elapsed, ""), nil

	case errors.Is(err, ErrSkipped):
		fmt.Fprintf(p.out, "%s skipped: %v\n", name, err)
		p.log.Infow("Deploy step skipped", "step", name, "reason", err)
		return p.result(step, StatusSkipped, elapsed, err.Error()), nil

	case step.Policy() == BestEffort:
		fmt.Fprintln(p.out, failureLine(step, err))
		p.log.Errorw("Deploy step failed, continuing", "step", name, "error", err)
		p.capture(ctx, step, err)
		return p.result(step, StatusContained, elapsed, err.Error()), nil

	default:
		fmt.Fprintln(p.out, failureLine(step, err))
		p.log.Errorw("Deploy step failed", "step", name, "error", err)
		p.capture(ctx, step, err)
		return p.result(step, StatusFailed, elapsed, err.Error()), err
	}
}

func (p *Pipeline) result(step Step, status string, elapsed time.Duration, msg string) StepResult {
	metrics.RecordDeployStep(step.Name(), status, elapsed)
	return StepResult{
		Name:     step.Name(),
		Policy:   step.Policy().String(),
		Status:   status,
		Duration: elapsed,
		Error:    msg,
	}
}

// notRun records steps left behind by a fatal failure. They are not counted
// in metrics since nothing was attempted.
func (p *Pipeline) notRun(steps []Step) []StepResult {
	out := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepResult{
			Name:   s.Name(),
			Policy: s.Policy().String(),
			Status: StatusSkipped,
			Error:  "not run: previous step failed",
		})
	}
	return out
}

func (p *Pipeline) capture(ctx context.Context, step Step, err error) {
	if p.tracker == nil {
		return
	}
	tags := map[string]string{
		"component": "deploy",
		"step":      step.Name(),
		"policy":    step.Policy().String(),
	}
	if cerr := p.tracker.CaptureError(ctx, err, tags); cerr != nil {
		p.log.Warnw("Failed to report deploy error", "error", cerr)
	}
}

func (p *Pipeline) publish(ctx context.Context, report *Report) {
	if p.publisher == nil {
		return
	}

	event := &events.DeployCompleted{
		BaseEvent: events.NewBaseEvent(events.TypeDeployCompleted, "deploy", ""),
		Succeeded: report.Succeeded,
		Steps:     make([]events.StepReport, 0, len(report.Steps)),
	}
	for _, s := range report.Steps {
		event.Steps = append(event.Steps, events.StepReport{
			Name:     s.Name,
			Status:   s.Status,
			Duration: s.Duration,
			Error:    s.Error,
		})
	}

	if err := p.publisher.PublishDeployCompleted(context.WithoutCancel(ctx), event); err != nil {
		p.log.Warnw("Failed to publish deploy event", "error", err)
	}
}

func (p *Pipeline) plan(skip map[string]bool) *Report {
	report := &Report{StartedAt: p.now().UTC(), DryRun: true, Succeeded: true}
	fmt.Fprintln(p.out, "Deploy plan:")
	for i, step := range p.steps {
		status := StatusPlanned
		if skip[step.Name()] {
			status = StatusSkipped
		}
		fmt.Fprintf(p.out, "  %d. %-15s %-12s %s\n", i+1, step.Name(), step.Policy(), status)
		report.Steps = append(report.Steps, StepResult{
			Name:   step.Name(),
			Policy: step.Policy().String(),
			Status: status,
		})
	}
	return report
}

func (p *Pipeline) skipSet(names []string) (map[string]bool, error) {
	known := make(map[string]bool, len(p.steps))
	for _, s := range p.steps {
		known[s.Name()] = true
	}

	set := make(map[string]bool, len(names))
	for _, name := range names {
		if !known[name] {
			return nil, errors.NewValidationError("skip", "unknown step", name)
		}
		set[name] = true
	}
	return set, nil
}

func failureLine(step Step, err error) string {
	if f, ok := step.(FailureFormatter); ok {
		return f.FormatFailure(err)
	}
	return fmt.Sprintf("%s failed: %v", step.Name(), err)
}
