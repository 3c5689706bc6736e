// Package scanstate holds the small set of process-wide signals that decouple
// scanners from the UI and the input listener: a found-host counter, a
// cooperative stop flag, and a marker for whether targets came from the "lan"
// keyword. All three are relaxed-ordering atomics — nothing here needs a
// memory fence, only visibility across goroutines.
package scanstate

import "sync/atomic"

var (
	foundHostCount atomic.Int64
	stopSignal     atomic.Bool
	isLANScan      atomic.Bool
)

// IncrementHostCount records the first observation of a host.
func IncrementHostCount() {
	foundHostCount.Add(1)
}

// HostCount returns the number of hosts observed so far in the current run.
func HostCount() int64 {
	return foundHostCount.Load()
}

// ResetHostCount zeroes the counter; called once per discover invocation so
// repeated runs (e.g. in tests) start clean.
func ResetHostCount() {
	foundHostCount.Store(0)
}

// Stop signals every running scanner loop to exit at its next iteration.
func Stop() {
	stopSignal.Store(true)
}

// Stopped reports whether Stop has been called for this run.
func Stopped() bool {
	return stopSignal.Load()
}

// ResetStop clears the stop flag ahead of a new run.
func ResetStop() {
	stopSignal.Store(false)
}

// SetLANScan marks whether the current target set came from the "lan"
// keyword. The Local Scanner uses this to decide whether to accept IPv6
// neighbors observed from previously-unknown MAC addresses.
func SetLANScan(v bool) {
	isLANScan.Store(v)
}

// IsLANScan reports the current LAN-scan marker.
func IsLANScan() bool {
	return isLANScan.Load()
}
