// Package sync turns normalized geographic records into NetBox state.
//
// The Planner diffs records against the fingerprint cache and emits a
// deterministic Plan: creates ordered parents-first, then updates,
// then opt-in deletes for orphaned cache entries. The Engine applies
// the plan in concurrent bulk batches, repairs stale cache entries
// when the remote reports an object gone, and produces a Report with
// per-record failure attribution.
package sync
