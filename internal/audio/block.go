package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Format describes a decoded stream.
type Format struct {
	SampleRate uint32
	Channels   uint8
}

// Validate reports whether the format can describe real audio.
func (f Format) Validate() error {
	if f.SampleRate == 0 {
		return errors.New("audio format: sample rate is zero")
	}
	if f.Channels == 0 {
		return errors.New("audio format: channel count is zero")
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// Block is a run of planar samples. Every channel has the same length.
type Block struct {
	Channels [][]float32
}

// Frames returns the number of samples per channel.
func (b Block) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Check verifies the block has want channels of equal length.
func (b Block) Check(want int) error {
	if len(b.Channels) != want {
		return fmt.Errorf("block has %d channels, stream has %d", len(b.Channels), want)
	}
	frames := b.Frames()
	for i, ch := range b.Channels {
		if len(ch) != frames {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", i, len(ch), frames)
		}
	}
	return nil
}

// BlockReader yields blocks until it returns io.EOF.
type BlockReader interface {
	ReadBlock() (Block, error)
}

// BlockReadCloser is a BlockReader that owns resources.
type BlockReadCloser interface {
	BlockReader
	io.Closer
}

// SliceReader serves a fixed list of blocks.
type SliceReader struct {
	blocks []Block
}

// NewSliceReader returns a reader over blocks.
func NewSliceReader(blocks ...Block) *SliceReader {
	return &SliceReader{blocks: blocks}
}

func (r *SliceReader) ReadBlock() (Block, error) {
	if len(r.blocks) == 0 {
		return Block{}, io.EOF
	}
	next := r.blocks[0]
	r.blocks = r.blocks[1:]
	return next, nil
}

func (r *SliceReader) Close() error {
	r.blocks = nil
	return nil
}

// BytesPerSample is the width of one f32le sample.
const BytesPerSample = 4

// AppendF32LE interleaves block into dst as little-endian float32 samples.
func AppendF32LE(dst []byte, block Block) []byte {
	frames := block.Frames()
	channels := len(block.Channels)
	var scratch [BytesPerSample]byte
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(block.Channels[c][i]))
			dst = append(dst, scratch[:]...)
		}
	}
	return dst
}

// FromF32LE de-interleaves little-endian float32 samples into a block.
// Trailing bytes that do not form a whole frame are rejected.
func FromF32LE(data []byte, channels int) (Block, error) {
	if channels <= 0 {
		return Block{}, errors.New("f32le: channel count must be positive")
	}
	frameBytes := channels * BytesPerSample
	if len(data)%frameBytes != 0 {
		return Block{}, fmt.Errorf("f32le: %d bytes is not a whole number of %d-byte frames", len(data), frameBytes)
	}
	frames := len(data) / frameBytes
	block := Block{Channels: make([][]float32, channels)}
	for c := range block.Channels {
		block.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			offset := (i*channels + c) * BytesPerSample
			block.Channels[c][i] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
		}
	}
	return block, nil
}
