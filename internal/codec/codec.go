package codec

import (
	"context"

	"mineardmg/internal/audio"
)

// Codec converts between encoded sound payloads and streams of audio blocks.
type Codec interface {
	// Decode starts decoding data and returns its format and a block stream.
	// The stream must be closed by the caller.
	Decode(ctx context.Context, data []byte) (audio.Format, audio.BlockReadCloser, error)
	// Encode drains src and returns one complete encoded stream.
	Encode(ctx context.Context, format audio.Format, src audio.BlockReader) ([]byte, error)
}
