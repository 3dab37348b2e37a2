// Package assets downloads sound payloads from the content-addressed asset CDN.
//
// Objects live at {base}/{hash[0:2]}/{hash}. The client performs exactly one
// GET per Fetch with no retry; failures are tagged services.ErrNetwork. An
// optional rate limiter can be shared between clients to cap the aggregate
// request rate of a worker pool.
package assets
