// Package netbox is the low-level client for the NetBox REST API.
//
// Every call first acquires tokens from the shared rate limiter, one
// token per remote-visible record, so bulk calls are charged for their
// full batch size. Transport failures, 5xx and 429 responses are
// retried with exponential backoff and jitter (429 honoring a
// Retry-After header); other 4xx responses are permanent and surface
// immediately.
//
// Bulk writes degrade gracefully: a whole-batch rejection is bisected
// by halving until the offending items are isolated, and every input
// item receives its own ItemResult. Callers never see a bulk call as
// all-or-nothing.
package netbox
