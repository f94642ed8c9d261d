// Package syncapi exposes the sync engine over HTTP.
//
// It provides endpoints to trigger a sync run (optionally as a dry
// run), inspect the state and report of the most recent run, upload
// dataset snapshots, and check service health. Runs execute in the
// background and are serialized: a second trigger while one is active
// is rejected with a conflict.
package syncapi
