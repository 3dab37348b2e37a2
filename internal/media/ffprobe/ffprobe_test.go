package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, script string) string {
	t.Helper()
	stub := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return stub
}

func TestFirstAudioSkipsOtherStreams(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "data"},
		{CodecType: "audio", CodecName: "vorbis", SampleRate: "44100", Channels: 2},
		{CodecType: "audio", CodecName: "opus", SampleRate: "48000", Channels: 1},
	}}
	first, ok := result.FirstAudio()
	if !ok || first.CodecName != "vorbis" {
		t.Fatalf("unexpected first audio stream: %+v", first)
	}
	if first.SampleRateHz() != 44100 {
		t.Fatalf("unexpected sample rate: %d", first.SampleRateHz())
	}
	if _, ok := (Result{}).FirstAudio(); ok {
		t.Fatal("expected no audio stream")
	}
}

func TestSampleRateHzRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "fast", "-8000", "0", "44100.5"} {
		if got := (Stream{SampleRate: raw}).SampleRateHz(); got != 0 {
			t.Fatalf("SampleRateHz(%q) = %d, want 0", raw, got)
		}
	}
}

func TestInspectReaderParsesStubOutput(t *testing.T) {
	stub := writeStub(t, "#!/bin/sh\ncat >/dev/null\ncat <<'JSON'\n"+
		`{"streams":[{"index":0,"codec_type":"audio","codec_name":"vorbis","sample_rate":"22050","channels":1}],"format":{"format_name":"ogg","nb_streams":1}}`+
		"\nJSON\n")

	result, err := InspectReader(context.Background(), stub, strings.NewReader("OggS"))
	if err != nil {
		t.Fatalf("InspectReader: %v", err)
	}
	stream, ok := result.FirstAudio()
	if !ok || stream.SampleRateHz() != 22050 || stream.Channels != 1 {
		t.Fatalf("unexpected stream: %+v", stream)
	}
	if result.Format.FormatName != "ogg" || result.Format.NBStreams != 1 {
		t.Fatalf("unexpected format: %+v", result.Format)
	}
}

func TestInspectReaderReportsFailure(t *testing.T) {
	stub := writeStub(t, "#!/bin/sh\necho 'pipe:0: Invalid data found' >&2\nexit 1\n")

	_, err := InspectReader(context.Background(), stub, strings.NewReader("junk"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestInspectReaderRejectsBadJSON(t *testing.T) {
	stub := writeStub(t, "#!/bin/sh\ncat >/dev/null\necho 'not json'\n")
	if _, err := InspectReader(context.Background(), stub, strings.NewReader("x")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := InspectReader(context.Background(), stub, nil); err == nil {
		t.Fatal("expected nil reader error")
	}
}
