// Package book implements the resident limit order book for one
// instrument: price-time priority over two red-black price ladders,
// O(1) cancellation through a direct order-id index, and arena-backed
// record storage so the steady-state write path allocates nothing.
//
// The package does no matching and no locking: it is a single-threaded
// data structure with one writer, and serialization is the caller's
// job.
package book
