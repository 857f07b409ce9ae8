package discord

import (
	"fmt"

	"layeh.com/gopus"
)

// Discord voice uses 48 kHz stereo Opus at 20 ms frame size.
const (
	sampleRate  = 48000
	channels    = 2
	frameSizeMs = 20
	// frameSize is the number of samples per channel per 20 ms frame.
	frameSize = sampleRate * frameSizeMs / 1000 // 960
)

// opusEncoder wraps a gopus Opus encoder for the playback stream.
type opusEncoder struct {
	enc *gopus.Encoder
}

// newOpusEncoder creates a new Opus encoder configured for Discord audio.
func newOpusEncoder() (*opusEncoder, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("discord: create opus encoder: %w", err)
	}
	return &opusEncoder{enc: enc}, nil
}

// encode encodes one frame of interleaved PCM int16 samples into an Opus packet.
func (e *opusEncoder) encode(pcm []int16) ([]byte, error) {
	packet, err := e.enc.Encode(pcm, frameSize, len(pcm)*2)
	if err != nil {
		return nil, fmt.Errorf("discord: opus encode: %w", err)
	}
	return packet, nil
}

// bytesToInt16s converts little-endian bytes to a slice of int16 PCM samples.
func bytesToInt16s(b []byte) []int16 {
	pcm := make([]int16, len(b)/2)
	for i := range pcm {
		pcm[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return pcm
}
