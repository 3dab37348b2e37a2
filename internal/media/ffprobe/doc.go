// Package ffprobe reads the stream layout of an in-memory payload by piping
// it through ffprobe and decoding the JSON report.
package ffprobe
