package audio

import (
	"errors"
	"io"
	"math"
	"testing"
)

func TestGainFactor(t *testing.T) {
	tests := []struct {
		db   float64
		want float64
	}{
		{0, 1},
		{20, 10},
		{-20, 0.1},
		{6, 1.9952623149688795},
		{-6, 0.5011872336272722},
	}
	for _, tt := range tests {
		if got := GainFactor(tt.db); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("GainFactor(%v) = %v, want %v", tt.db, got, tt.want)
		}
	}
}

func TestApplyGainZeroIsIdentity(t *testing.T) {
	in := Block{Channels: [][]float32{{0.5, -0.25, 1}, {0, 0.75, -1}}}
	out := ApplyGain(in, 0)
	for c := range in.Channels {
		for i := range in.Channels[c] {
			if out.Channels[c][i] != in.Channels[c][i] {
				t.Fatalf("sample [%d][%d] changed: %v -> %v", c, i, in.Channels[c][i], out.Channels[c][i])
			}
		}
	}
}

func TestApplyGainScalesWithoutClipping(t *testing.T) {
	in := Block{Channels: [][]float32{{0.5, -0.5}}}
	out := ApplyGain(in, 20)
	if math.Abs(float64(out.Channels[0][0])-5) > 1e-5 || math.Abs(float64(out.Channels[0][1])+5) > 1e-5 {
		t.Fatalf("expected ±5 without clipping, got %v", out.Channels[0])
	}
	if in.Channels[0][0] != 0.5 {
		t.Fatal("input block was modified")
	}
}

func TestApplyGainPreservesShape(t *testing.T) {
	in := Block{Channels: [][]float32{{1, 2, 3}, {4, 5, 6}}}
	out := ApplyGain(in, -3)
	if err := out.Check(2); err != nil {
		t.Fatal(err)
	}
	if out.Frames() != 3 {
		t.Fatalf("frames = %d, want 3", out.Frames())
	}

	empty := ApplyGain(Block{}, 12)
	if len(empty.Channels) != 0 {
		t.Fatalf("expected empty block, got %d channels", len(empty.Channels))
	}
}

func TestApplyGainInverseRoundTrip(t *testing.T) {
	in := Block{Channels: [][]float32{{0.1, -0.3, 0.9}}}
	out := ApplyGain(ApplyGain(in, 9), -9)
	for i, s := range in.Channels[0] {
		if math.Abs(float64(out.Channels[0][i]-s)) > 1e-6 {
			t.Fatalf("sample %d: got %v want %v", i, out.Channels[0][i], s)
		}
	}
}

func TestGainReaderStreamsBlocks(t *testing.T) {
	src := NewSliceReader(
		Block{Channels: [][]float32{{0.1, 0.2}}},
		Block{Channels: [][]float32{{0.3}}},
	)
	reader := NewGainReader(src, 20)

	var got []float32
	for {
		block, err := reader.ReadBlock()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, block.Channels[0]...)
	}
	want := []float32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Fatalf("sample %d: got %v want %v", i, got[i], want[i])
		}
	}
}
