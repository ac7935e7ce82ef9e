package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

const (
	maxAttempts    = 3
	initialBackoff = time.Second
)

// Verdict is the outcome of classifying a failed call.
type Verdict int

const (
	// VerdictRetry marks a transient failure worth another attempt.
	VerdictRetry Verdict = iota
	// VerdictFail marks a permanent failure that must surface immediately.
	VerdictFail
)

// Classifier maps an error to a retry verdict and, when known, the upstream
// HTTP status. It must be pure so the invoker stays free of shared state.
type Classifier func(err error) (Verdict, int)

// ClassifyAPIError is the default classifier for Google API calls:
// transport failures with no response are retryable, as are 429, 500 and 503;
// everything else is permanent.
func ClassifyAPIError(err error) (Verdict, int) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			return VerdictRetry, gerr.Code
		default:
			return VerdictFail, gerr.Code
		}
	}
	// No HTTP response at all: a transport-level failure.
	return VerdictRetry, 0
}

// Invoker wraps outbound Google API calls with retry and exponential backoff.
// The policy is pure control flow, safe for any concurrent caller; backoff
// sleeps block only the calling goroutine.
type Invoker struct {
	logger   *zap.Logger
	classify Classifier
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewInvoker builds an invoker with the default Google API classifier.
func NewInvoker(logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.L()
	}
	return &Invoker{
		logger:   logger,
		classify: ClassifyAPIError,
		sleep:    sleepFor,
	}
}

// WithClassifier returns a copy of the invoker using a custom classifier.
func (i *Invoker) WithClassifier(classify Classifier) *Invoker {
	clone := *i
	clone.classify = classify
	return &clone
}

// WithSleeper returns a copy using a custom sleep function. Tests inject a
// recording sleeper so retry behaviour is observable without wall-clock waits.
func (i *Invoker) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) *Invoker {
	clone := *i
	clone.sleep = sleep
	return &clone
}

// Invoke runs fn with up to three total attempts, sleeping 1s then 2s before
// the retries. Permanent 4xx failures surface as *domain.APIError on the
// first attempt; exhausted transient failures surface wrapped in ErrUpstream.
func (i *Invoker) Invoke(ctx context.Context, op string, fn func() error) error {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		verdict, status := i.classify(err)
		if verdict == VerdictFail {
			if status >= 400 && status < 500 {
				return &domaingoogle.APIError{Status: status, Err: err}
			}
			return fmt.Errorf("%w: %v", domaingoogle.ErrUpstream, err)
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}

		i.logger.Warn("google api retry",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Int("status", status),
			zap.Error(err),
		)
		if serr := i.sleep(ctx, backoff); serr != nil {
			return serr
		}
		backoff *= 2
	}

	return fmt.Errorf("%w: %v", domaingoogle.ErrUpstream, lastErr)
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
