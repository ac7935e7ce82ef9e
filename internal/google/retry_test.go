package google

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
)

func newTestInvoker() (*Invoker, *[]time.Duration) {
	var sleeps []time.Duration
	inv := NewInvoker(zap.NewNop()).WithSleeper(func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	})
	return inv, &sleeps
}

func TestInvoke_SucceedsFirstAttempt(t *testing.T) {
	inv, sleeps := newTestInvoker()
	calls := 0

	err := inv.Invoke(context.Background(), "drive.files.get", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, *sleeps)
}

func TestInvoke_RetriesTransientThenSucceeds(t *testing.T) {
	inv, sleeps := newTestInvoker()
	calls := 0

	err := inv.Invoke(context.Background(), "drive.files.get", func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: http.StatusServiceUnavailable}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func TestInvoke_PermanentClientErrorFailsFast(t *testing.T) {
	inv, sleeps := newTestInvoker()
	calls := 0

	err := inv.Invoke(context.Background(), "drive.files.get", func() error {
		calls++
		return &googleapi.Error{Code: http.StatusNotFound}
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, *sleeps)

	var apiErr *domaingoogle.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestInvoke_ExhaustionWrapsUpstream(t *testing.T) {
	inv, sleeps := newTestInvoker()
	calls := 0

	err := inv.Invoke(context.Background(), "calendar.events.insert", func() error {
		calls++
		return &googleapi.Error{Code: http.StatusTooManyRequests}
	})
	require.ErrorIs(t, err, domaingoogle.ErrUpstream)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func TestInvoke_TransportErrorRetries(t *testing.T) {
	inv, _ := newTestInvoker()
	calls := 0

	err := inv.Invoke(context.Background(), "drive.drives.list", func() error {
		calls++
		return fmt.Errorf("connection reset by peer")
	})
	require.ErrorIs(t, err, domaingoogle.ErrUpstream)
	require.Equal(t, 3, calls)
}

func TestInvoke_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inv := NewInvoker(zap.NewNop()).WithSleeper(sleepFor)
	calls := 0

	err := inv.Invoke(ctx, "drive.files.get", func() error {
		calls++
		cancel()
		return &googleapi.Error{Code: http.StatusServiceUnavailable}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestInvoke_CustomClassifier(t *testing.T) {
	inv, sleeps := newTestInvoker()
	inv = inv.WithClassifier(func(error) (Verdict, int) {
		return VerdictFail, http.StatusBadRequest
	})

	err := inv.Invoke(context.Background(), "drive.files.get", func() error {
		return fmt.Errorf("anything")
	})
	var apiErr *domaingoogle.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Empty(t, *sleeps)
}

func TestClassifyAPIError(t *testing.T) {
	verdict, status := ClassifyAPIError(&googleapi.Error{Code: http.StatusTooManyRequests})
	require.Equal(t, VerdictRetry, verdict)
	require.Equal(t, http.StatusTooManyRequests, status)

	verdict, status = ClassifyAPIError(&googleapi.Error{Code: http.StatusForbidden})
	require.Equal(t, VerdictFail, verdict)
	require.Equal(t, http.StatusForbidden, status)

	verdict, status = ClassifyAPIError(fmt.Errorf("dial tcp: i/o timeout"))
	require.Equal(t, VerdictRetry, verdict)
	require.Equal(t, 0, status)
}
