package metrics

import "sync/atomic"

// Process-level counters shared by the service and the API.
// Intentionally minimal.

var (
	ordersAccepted  atomic.Int64
	ordersCancelled atomic.Int64
	ordersAmended   atomic.Int64
	ordersRejected  atomic.Int64
	opsReplayed     atomic.Int64
)

func IncAccepted()  { ordersAccepted.Add(1) }
func IncCancelled() { ordersCancelled.Add(1) }
func IncAmended()   { ordersAmended.Add(1) }
func IncRejected()  { ordersRejected.Add(1) }

func AddReplayed(n int64) { opsReplayed.Add(n) }

// Snapshot returns the current counter values for /metricsz.
func Snapshot() map[string]int64 {
	return map[string]int64{
		"orders_accepted":  ordersAccepted.Load(),
		"orders_cancelled": ordersCancelled.Load(),
		"orders_amended":   ordersAmended.Load(),
		"orders_rejected":  ordersRejected.Load(),
		"ops_replayed":     opsReplayed.Load(),
	}
}
