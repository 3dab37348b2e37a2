package testsupport

import "path/filepath"

// ProbeStereoScript is an ffprobe stand-in that reports one 8 kHz stereo
// Vorbis stream for any input.
const ProbeStereoScript = `#!/bin/sh
cat >/dev/null
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"audio","codec_name":"vorbis","sample_rate":"8000","channels":2}],"format":{"format_name":"ogg"}}
JSON
`

// PassthroughFFmpegScript is an ffmpeg stand-in that copies stdin to stdout,
// so interleaved f32le in is f32le out. It also answers -encoders with a
// libvorbis row.
const PassthroughFFmpegScript = `#!/bin/sh
case " $* " in
*" -encoders "*)
	echo " A....D libvorbis            libvorbis (codec vorbis)"
	exit 0
	;;
esac
exec cat
`

// WithFakeCodec points the codec section at passthrough ffmpeg/ffprobe
// stubs. Payloads served to such a build must be stereo f32le.
func WithFakeCodec() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "codec-bin")
		b.cfg.Codec.FFmpegBinary = writeStub(b.t, binDir, "ffmpeg", PassthroughFFmpegScript)
		b.cfg.Codec.FFprobeBinary = writeStub(b.t, binDir, "ffprobe", ProbeStereoScript)
	}
}
