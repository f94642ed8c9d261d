// Package ratelimit bounds the outbound request rate against the
// NetBox API with a shared token bucket.
//
// The limiter is the single cross-worker synchronization point of the
// sync engine: every remote call acquires one token per remote-visible
// record before any HTTP traffic happens, so the logical rate budget
// holds no matter how records are grouped into bulk calls. Bursts up
// to the configured capacity pass immediately; sustained load is
// bounded by calls_per_minute.
package ratelimit
