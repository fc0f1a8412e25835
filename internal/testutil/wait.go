// Package testutil provides common testing utilities for deskhive.
package testutil

import (
	"fmt"
	"testing"
	"time"
)

// DefaultTimeout is the default timeout for polling operations.
const DefaultTimeout = 5 * time.Second

// DefaultInterval is the default polling interval.
const DefaultInterval = 10 * time.Millisecond

// WaitForCondition polls until condition returns true or timeout is reached.
// Returns an error if the condition is not met within the timeout.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, description string) error {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return nil
		}
		time.Sleep(DefaultInterval)
	}
	return fmt.Errorf("timeout waiting for %s after %v", description, timeout)
}

// MustWaitForCondition is like WaitForCondition but fails the test on timeout.
func MustWaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, description string) {
	t.Helper()
	if err := WaitForCondition(t, timeout, condition, description); err != nil {
		t.Fatalf("%v", err)
	}
}

// Eventually asserts that condition becomes true within timeout.
// This is the most commonly used function for replacing time.Sleep patterns.
func Eventually(t *testing.T, condition func() bool, description string, timeoutOpts ...time.Duration) {
	t.Helper()
	timeout := DefaultTimeout
	if len(timeoutOpts) > 0 {
		timeout = timeoutOpts[0]
	}
	MustWaitForCondition(t, timeout, condition, description)
}

// WaitForState polls until state matches expected value.
func WaitForState(t *testing.T, getState func() string, expected string) {
	t.Helper()
	MustWaitForCondition(t, 5*time.Second, func() bool {
		return getState() == expected
	}, fmt.Sprintf("state to become %q", expected))
}

// WaitForInstanceCount polls until the tracked instance count matches expected.
func WaitForInstanceCount(t *testing.T, getCount func() int, expected int) {
	t.Helper()
	MustWaitForCondition(t, 5*time.Second, func() bool {
		return getCount() == expected
	}, fmt.Sprintf("instance count to reach %d", expected))
}

// WaitForPIDChange polls until PID changes from the original value.
func WaitForPIDChange(t *testing.T, getPID func() int32, originalPID int32) {
	t.Helper()
	MustWaitForCondition(t, 5*time.Second, func() bool {
		pid := getPID()
		return pid > 0 && pid != originalPID
	}, "PID to change")
}
