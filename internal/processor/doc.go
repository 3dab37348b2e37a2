// Package processor turns one content hash into a re-encoded, gain-adjusted
// sound: fetch, decode, scale block by block, encode.
//
// A Processor owns its fetcher, so each pipeline worker builds its own.
// Failures never escape as panics; every problem comes back as an *ItemError
// naming the hash and the stage that failed.
package processor
