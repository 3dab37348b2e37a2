package audio

import "math"

// GainFactor converts a decibel delta into a linear amplitude multiplier.
func GainFactor(db float64) float64 {
	return math.Pow(10, db/20)
}

// ApplyGain returns a copy of block with every sample scaled by GainFactor(db).
// Results are not clipped; samples beyond ±1.0 are left for the encoder.
func ApplyGain(block Block, db float64) Block {
	return scale(block, float32(GainFactor(db)))
}

func scale(block Block, factor float32) Block {
	out := Block{Channels: make([][]float32, len(block.Channels))}
	for c, samples := range block.Channels {
		scaled := make([]float32, len(samples))
		for i, s := range samples {
			scaled[i] = s * factor
		}
		out.Channels[c] = scaled
	}
	return out
}

// GainReader applies a fixed gain to each block as it is read.
type GainReader struct {
	src    BlockReader
	factor float32
}

// NewGainReader wraps src so every block it yields is scaled by db decibels.
func NewGainReader(src BlockReader, db float64) *GainReader {
	return &GainReader{src: src, factor: float32(GainFactor(db))}
}

func (r *GainReader) ReadBlock() (Block, error) {
	block, err := r.src.ReadBlock()
	if err != nil {
		return Block{}, err
	}
	return scale(block, r.factor), nil
}
