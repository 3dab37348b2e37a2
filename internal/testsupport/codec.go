package testsupport

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"mineardmg/internal/audio"
	"mineardmg/internal/services"
)

var pcmMagic = []byte("PCM1")

// Payload prefixes that make PCMCodec misbehave on purpose.
var (
	BadPayload   = []byte("BAD!")
	PanicPayload = []byte("BOOM")
)

// PCMCodec is a lossless stand-in for the ffmpeg codec. Its wire format is
// "PCM1", a little-endian uint32 sample rate, a channel byte, then
// interleaved f32le samples.
type PCMCodec struct {
	BlockFrames int
}

// EncodePCM builds a PCMCodec payload.
func EncodePCM(format audio.Format, blocks ...audio.Block) []byte {
	out := append([]byte(nil), pcmMagic...)
	out = binary.LittleEndian.AppendUint32(out, format.SampleRate)
	out = append(out, format.Channels)
	for _, block := range blocks {
		out = audio.AppendF32LE(out, block)
	}
	return out
}

// DecodePCM parses a PCMCodec payload into a single block.
func DecodePCM(data []byte) (audio.Format, audio.Block, error) {
	if bytes.HasPrefix(data, PanicPayload) {
		panic("pcm codec: panic payload")
	}
	if len(data) < len(pcmMagic)+5 || !bytes.HasPrefix(data, pcmMagic) {
		return audio.Format{}, audio.Block{}, errors.New("not a PCM1 payload")
	}
	header := data[len(pcmMagic):]
	format := audio.Format{
		SampleRate: binary.LittleEndian.Uint32(header[:4]),
		Channels:   header[4],
	}
	if err := format.Validate(); err != nil {
		return audio.Format{}, audio.Block{}, err
	}
	block, err := audio.FromF32LE(header[5:], int(format.Channels))
	if err != nil {
		return audio.Format{}, audio.Block{}, err
	}
	return format, block, nil
}

func (c PCMCodec) Decode(_ context.Context, data []byte) (audio.Format, audio.BlockReadCloser, error) {
	format, block, err := DecodePCM(data)
	if err != nil {
		return audio.Format{}, nil, services.Wrap(services.ErrDecode, "decode", "pcm", "", err)
	}
	frames := c.BlockFrames
	if frames <= 0 {
		frames = 4096
	}
	var blocks []audio.Block
	for start := 0; start < block.Frames(); start += frames {
		end := min(start+frames, block.Frames())
		chunk := audio.Block{Channels: make([][]float32, len(block.Channels))}
		for ch := range block.Channels {
			chunk.Channels[ch] = block.Channels[ch][start:end]
		}
		blocks = append(blocks, chunk)
	}
	return format, audio.NewSliceReader(blocks...), nil
}

func (c PCMCodec) Encode(_ context.Context, format audio.Format, src audio.BlockReader) ([]byte, error) {
	if err := format.Validate(); err != nil {
		return nil, services.Wrap(services.ErrEncode, "encode", "pcm", "", err)
	}
	out := EncodePCM(format)
	for {
		block, err := src.ReadBlock()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("pcm encode: read input: %w", err)
		}
		if err := block.Check(int(format.Channels)); err != nil {
			return nil, services.Wrap(services.ErrEncode, "encode", "pcm", "", err)
		}
		out = audio.AppendF32LE(out, block)
	}
}

// Tone returns a mono or multi-channel block of frames samples at a fixed amplitude.
func Tone(channels, frames int, amplitude float32) audio.Block {
	block := audio.Block{Channels: make([][]float32, channels)}
	for ch := range block.Channels {
		samples := make([]float32, frames)
		for i := range samples {
			if i%2 == 0 {
				samples[i] = amplitude
			} else {
				samples[i] = -amplitude
			}
		}
		block.Channels[ch] = samples
	}
	return block
}

// MustSample returns channel ch, frame i of a PCM payload.
func MustSample(data []byte, ch, i int) float32 {
	_, block, err := DecodePCM(data)
	if err != nil {
		panic(fmt.Sprintf("decode pcm: %v", err))
	}
	return block.Channels[ch][i]
}
