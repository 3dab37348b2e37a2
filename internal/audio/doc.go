// Package audio holds the planar sample blocks that flow between the codec
// and the gain stage, plus the gain transform itself.
//
// A Block carries one []float32 per channel, all of equal length. Readers
// hand out blocks one at a time so a sound never has to be fully decoded
// into memory before it is scaled and re-encoded.
package audio
