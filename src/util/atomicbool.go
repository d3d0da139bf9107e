package util

import (
	"sync/atomic"
)

// AtomicBool is a boxed-class that provides synchronized access to the
// underlying boolean value
type AtomicBool struct {
	state int32 // "1" is true, "0" is false
}

// NewAtomicBool returns a new AtomicBool
func NewAtomicBool(initialState bool) *AtomicBool {
	return &AtomicBool{state: boolToInt32(initialState)}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Get returns the current boolean value synchronously
func (a *AtomicBool) Get() bool {
	return atomic.LoadInt32(&a.state) != 0
}

// Set updates the boolean value synchronously
func (a *AtomicBool) Set(newState bool) bool {
	atomic.StoreInt32(&a.state, boolToInt32(newState))
	return newState
}

// Flip sets the value to newState and reports whether it was different
// before the call
func (a *AtomicBool) Flip(newState bool) bool {
	return atomic.CompareAndSwapInt32(&a.state, boolToInt32(!newState), boolToInt32(newState))
}
