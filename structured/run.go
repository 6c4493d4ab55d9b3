package structured

import (
	"context"
	stderrors "errors"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/events"
	"github.com/kbukum/structured/extract"
	"github.com/kbukum/structured/llm"
	"github.com/kbukum/structured/logger"
	"github.com/kbukum/structured/observability"
	"github.com/kbukum/structured/pipeline"
	"github.com/kbukum/structured/reduce"
	"github.com/kbukum/structured/resilience"
)

// run drives the attempts of one extraction. It is the iterator behind
// Stream and the loop behind Response.
type run[T any] struct {
	x   *Extractor[T]
	log *logger.Logger
	req llm.Request

	attempt  int
	state    State
	failures []error
	usage    llm.Usage
	last     extract.Aggregate[T]
	object   T
	done     bool
	root     trace.Span
	frameSum int

	// Current attempt.
	snaps  pipeline.Iterator[reduce.Snapshot[extract.Aggregate[T]]]
	ac     *observability.AttemptContext
	span   trace.Span
	frames int
}

func (x *Extractor[T]) newRun(ctx context.Context, req llm.Request) *run[T] {
	return &run[T]{
		x: x,
		log: x.log.WithContext(ctx).WithFields(logger.Fields(
			logger.FieldExtractionID, uuid.NewString(),
			logger.FieldMode, x.mode.String(),
			logger.FieldModel, x.model.Name,
		)),
		req: x.prepare(req),
	}
}

var _ pipeline.Iterator[extract.Aggregate[int]] = (*run[int])(nil)

func (r *run[T]) Next(ctx context.Context) (extract.Aggregate[T], bool, error) {
	var zero extract.Aggregate[T]
	for {
		if r.done {
			return zero, false, nil
		}
		if r.snaps == nil {
			if err := r.begin(ctx); err != nil {
				return zero, false, r.abort(ctx, err)
			}
		}

		snap, ok, err := r.snaps.Next(ctx)
		if err != nil {
			return zero, false, r.abort(ctx, err)
		}
		if !ok {
			return zero, false, r.abort(ctx, errors.Internal(stderrors.New("stream ended without a final aggregate")))
		}

		agg := snap.Value
		if snap.Final {
			yield, err := r.settle(ctx, agg)
			if err != nil {
				return zero, false, err
			}
			if yield {
				return agg, true, nil
			}
			continue
		}
		if agg.Frames == r.frames {
			continue
		}
		r.frameSum += agg.Frames - r.frames
		r.frames = agg.Frames
		r.ac.Frame(ctx, agg.Emission.String())
		if agg.Emission != extract.EmissionNone {
			return agg, true, nil
		}
	}
}

// Close stops the current attempt without completing its stream.
func (r *run[T]) Close() error {
	r.done = true
	if r.snaps == nil {
		return nil
	}
	err := r.snaps.Close()
	r.snaps = nil
	r.endAttempt(context.Background(), "abandoned", nil)
	r.endRoot("abandoned", nil)
	return err
}

func (r *run[T]) begin(ctx context.Context) error {
	r.attempt++
	r.state = StateAttempting
	r.frames = 0
	r.x.events.Dispatch(events.AttemptStarted{Attempt: r.attempt, MaxAttempts: r.x.maxAttempts})
	r.log.Debug("attempt started", logger.Fields(logger.FieldAttempt, r.attempt, logger.FieldMaxAttempts, r.x.maxAttempts))

	if r.root == nil {
		_, r.root = observability.StartSpan(ctx, observability.SpanExtraction, trace.WithAttributes(
			attribute.String(observability.AttrMode, r.x.mode.String()),
			attribute.String(observability.AttrResponse, r.x.model.Name),
			attribute.String(observability.AttrProvider, r.x.source.Name()),
			attribute.Int(observability.AttrMaxAttempts, r.x.maxAttempts),
		))
	}
	ctx = trace.ContextWithSpan(ctx, r.root)

	r.ac = observability.NewAttemptContext(r.x.mode.String(), r.x.model.Name, r.attempt, r.x.maxAttempts, r.x.metrics)
	actx, span := r.ac.Start(ctx)
	r.span = span

	src, err := r.x.source.Execute(actx, r.req)
	if err != nil {
		return err
	}
	r.snaps = extract.New[T](r.x.chain()).Iterate(actx, src)
	return nil
}

// settle judges a completed attempt. It reports whether the aggregate is
// the extraction's final result, or returns the terminal error.
func (r *run[T]) settle(ctx context.Context, agg extract.Aggregate[T]) (bool, error) {
	_ = r.snaps.Close()
	r.snaps = nil
	r.last = agg
	r.usage = r.usage.Add(agg.Usage)

	obj, err := extract.Finalize(agg, r.x.model, r.x.validators...)
	if err == nil {
		r.object = obj
		r.state = StateSucceeded
		r.endAttempt(ctx, StateSucceeded.String(), nil)
		r.endRoot(StateSucceeded.String(), nil)
		r.done = true
		r.log.Info("extraction succeeded", logger.Fields(
			logger.FieldAttempt, r.attempt,
			"input_tokens", r.usage.InputTokens,
			"output_tokens", r.usage.OutputTokens,
		))
		r.x.events.Dispatch(events.ResponseCompleted{Attempts: r.attempt, Object: obj, Usage: r.usage})
		return true, nil
	}

	r.failures = append(r.failures, err)
	var decision Decision
	if r.attempt < r.x.maxAttempts {
		decision = r.x.policy.Decide(ctx, Failure{
			Attempt:     r.attempt,
			MaxAttempts: r.x.maxAttempts,
			Err:         err,
			Errors:      slices.Clone(r.failures),
			Content:     agg.Content,
		})
	}
	retry := decision.Retry && r.attempt < r.x.maxAttempts

	status := StateExhausted
	if retry {
		status = StateRetrying
	}
	r.endAttempt(ctx, status.String(), err)
	r.x.events.Dispatch(events.AttemptFailed{Attempt: r.attempt, Err: err, Retry: retry})
	r.log.Warn("attempt failed", logger.MergeWithError(logger.Fields(
		logger.FieldAttempt, r.attempt,
		logger.FieldErrorCode, string(errors.CodeOf(err)),
		"retry", retry,
	), err))

	if !retry {
		return false, r.finish(errors.RetriesExhausted(r.attempt, err).WithDetail("failures", messages(r.failures)))
	}

	r.state = StateRetrying
	if decision.Feedback != "" {
		r.req = r.req.WithFeedback(agg.Content, decision.Feedback)
	}
	if err := resilience.Sleep(ctx, decision.Backoff); err != nil {
		return false, r.finish(errors.Canceled(err))
	}
	return false, nil
}

// abort ends the extraction on a source or context failure. Such failures
// are never retried here; retrying the open call is the provider's job.
func (r *run[T]) abort(ctx context.Context, err error) error {
	err = r.classify(err)
	if r.snaps != nil {
		_ = r.snaps.Close()
		r.snaps = nil
	}
	r.failures = append(r.failures, err)
	r.endAttempt(ctx, "failed", err)
	r.x.events.Dispatch(events.AttemptFailed{Attempt: r.attempt, Err: err, Retry: false})
	return r.finish(err)
}

func (r *run[T]) finish(err error) error {
	r.state = StateExhausted
	r.done = true
	r.endRoot(StateExhausted.String(), err)
	r.log.Error("extraction failed", logger.MergeWithError(logger.Fields(
		logger.FieldAttempt, r.attempt,
		logger.FieldErrorCode, string(errors.CodeOf(err)),
	), err))
	r.x.events.Dispatch(events.ResponseCompleted{Attempts: r.attempt, Usage: r.usage, Err: err})
	return err
}

func (r *run[T]) endAttempt(ctx context.Context, status string, err error) {
	if r.span == nil {
		return
	}
	r.ac.End(context.WithoutCancel(ctx), r.span, status, string(errors.CodeOf(err)), err)
	r.span = nil
}

func (r *run[T]) endRoot(status string, err error) {
	if r.root == nil {
		return
	}
	r.root.SetAttributes(
		attribute.String(observability.AttrStatus, status),
		attribute.Int(observability.AttrAttempt, r.attempt),
		attribute.Int(observability.AttrFrames, r.frameSum),
	)
	if err != nil {
		r.root.RecordError(err)
		r.root.SetAttributes(attribute.String(observability.AttrErrorCode, string(errors.CodeOf(err))))
		r.root.SetStatus(codes.Error, err.Error())
	}
	r.root.End()
	r.root = nil
}

func (r *run[T]) classify(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Canceled(err)
	}
	return errors.Transport(r.x.source.Name(), err)
}

func (r *run[T]) completion() *Completion[T] {
	return &Completion[T]{
		Object:    r.object,
		Aggregate: r.last,
		Attempts:  r.attempt,
		Usage:     r.usage,
		Failures:  slices.Clone(r.failures),
		State:     r.state,
	}
}

func messages(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
