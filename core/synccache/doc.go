// Package synccache persists the mapping between source records and
// the NetBox objects they were last synced to.
//
// Each entry stores the remote object id and the content fingerprint
// at the time of the last confirmed sync. The planner consults the
// cache to decide create vs update vs skip, and the engine writes an
// entry immediately after each confirmed remote success, so a crash
// mid-run leaves the cache consistent with what was actually applied.
//
// Two implementations exist: Store (gorm, persistent) and Memory
// (tests and cache-less runs).
package synccache
