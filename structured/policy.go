package structured

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/structured/config"
	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/resilience"
	"github.com/kbukum/structured/validation"
)

// Failure describes an attempt that ended without an acceptable object.
type Failure struct {
	// Attempt is the 1-based number of the failed attempt.
	Attempt     int
	MaxAttempts int
	// Err is this attempt's failure.
	Err error
	// Errors holds every failure so far, Err last.
	Errors []error
	// Content is the text the model produced in this attempt.
	Content string
}

// Decision is a RetryPolicy's verdict on a Failure.
type Decision struct {
	Retry bool
	// Feedback, when set, is sent back as a user message after the
	// attempt's content on the next request.
	Feedback string
	// Backoff is the pause before the next attempt.
	Backoff time.Duration
}

// RetryPolicy decides whether a failed attempt is retried. The extractor
// never exceeds its attempt limit, whatever the policy says.
type RetryPolicy interface {
	Decide(ctx context.Context, f Failure) Decision
}

// RetryPolicyFunc adapts a function to RetryPolicy.
type RetryPolicyFunc func(ctx context.Context, f Failure) Decision

func (fn RetryPolicyFunc) Decide(ctx context.Context, f Failure) Decision { return fn(ctx, f) }

// DefaultPolicy retries retryable failures, feeding the errors back under
// Prompt and pausing per Backoff.
type DefaultPolicy struct {
	Prompt  string
	Backoff resilience.Backoff
}

// NewDefaultPolicy returns a policy with the default prompt and no pause.
func NewDefaultPolicy() DefaultPolicy {
	return DefaultPolicy{Prompt: config.DefaultRetryPrompt}
}

// Decide implements RetryPolicy.
func (p DefaultPolicy) Decide(_ context.Context, f Failure) Decision {
	if f.Attempt >= f.MaxAttempts || !errors.IsRetryable(f.Err) {
		return Decision{}
	}
	prompt := p.Prompt
	if prompt == "" {
		prompt = config.DefaultRetryPrompt
	}
	return Decision{
		Retry:    true,
		Feedback: prompt + "\n" + Describe(f.Err),
		Backoff:  p.Backoff.Delay(f.Attempt),
	}
}

// NoRetry gives up after the first failure.
var NoRetry RetryPolicy = RetryPolicyFunc(func(context.Context, Failure) Decision { return Decision{} })

// Describe renders err for a corrective prompt: one line per field error
// when the error carries them, the message otherwise.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	fields := validation.Fields(err)
	if len(fields) == 0 {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return err.Error()
	}
	var b strings.Builder
	for i, fe := range fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(fe.String())
	}
	return b.String()
}
