// Package codec decodes and re-encodes Ogg Vorbis sounds.
//
// Codec is the seam the item processor depends on. FFmpeg implements it by
// piping payloads through ffprobe and ffmpeg subprocesses: ffprobe reports the
// stream format, ffmpeg streams interleaved f32le samples that are split into
// planar audio.Block values, and a second ffmpeg run encodes blocks back into
// a standalone Ogg Vorbis stream with libvorbis.
//
// Every failure is tagged with services.ErrDecode or services.ErrEncode so
// callers can classify it with errors.Is.
package codec
