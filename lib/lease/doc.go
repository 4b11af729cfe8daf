// Package lease drives the renewal of time bounded leases.
//
// A Monitor owns one goroutine per lease. Every MonitoringCadence it calls
// RenewOrValidate on the Handle and acts on the verdict:
//
//   - StateRenewed: the lease was extended, the confirmation clock restarts
//   - StateHeld: the lease is still valid, nothing to do
//   - StateLost: the Lost channel is closed and monitoring stops
//   - StateUnknown (or an error): tolerated until LeaseDuration has passed
//     since the last confirmation, then the lease is considered lost
//
// Holders select on Lost() to stop working on a resource they no longer own.
// Close stops the monitor and waits for an in-flight call, which lets the
// owner of the handle release it without racing the monitor.
package lease
