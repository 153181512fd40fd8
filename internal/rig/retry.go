package rig

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/chemputer/chempiler/internal/device"
)

// RetryPolicy bounds how hard the executioner boundary works to paper
// over transient device-communication faults before declaring the run
// unrecoverable.
type RetryPolicy struct {
	// Attempts is the total number of tries, first call included.
	Attempts uint64
	// InitialBackoff is the delay before the first retry; subsequent
	// delays grow exponentially.
	InitialBackoff time.Duration
}

// DefaultRetryPolicy mirrors how forgiving the rig needs to be on a
// noisy lab network without masking real hardware trouble.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:       3,
	InitialBackoff: 250 * time.Millisecond,
}

// retry runs one driver call under the policy. Only transient faults are
// retried; a non-transient fault or an exhausted budget surfaces as a
// COMMUNICATION DeviceError, fatal to the run.
func retry(ctx context.Context, policy RetryPolicy, deviceID, op string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialBackoff

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !device.IsTransient(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("transient device fault, retrying",
			"device", deviceID,
			"op", op,
			"attempt", attempt,
			"error", err,
		)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, policy.Attempts-1), ctx))
	if err == nil {
		return nil
	}

	return &DeviceError{
		Code:    ErrCodeCommunication,
		Device:  deviceID,
		Op:      op,
		Message: "device call failed",
		Err:     err,
	}
}
