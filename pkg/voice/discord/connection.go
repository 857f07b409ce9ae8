package discord

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/bwmarrin/discordgo"
	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/spacegirl-bot/spacegirl/pkg/voice"
)

// Compile-time interface assertion.
var _ voice.Connection = (*Connection)(nil)

// errInterrupted is reported to the completion callback when the connection
// is torn down mid-playback.
var errInterrupted = errors.New("discord: playback interrupted by disconnect")

// Connection wraps a discordgo.VoiceConnection and adapts it to the
// [voice.Connection] interface. Playback decodes an mp3 artifact to PCM,
// resamples it to Discord's 48 kHz stereo format, Opus-encodes it in 20 ms
// frames, and streams the frames over the voice connection.
//
// Connection is safe for concurrent use.
type Connection struct {
	vc        *discordgo.VoiceConnection
	guildID   string
	channelID string

	mu      sync.Mutex
	playing bool

	done      chan struct{}
	closeOnce sync.Once

	// disconnectVC is called during Disconnect to tear down the voice
	// connection. Defaults to vc.Disconnect; overridden in tests.
	disconnectVC func() error
}

// newConnection initialises a Connection for an already-joined voice channel.
func newConnection(vc *discordgo.VoiceConnection, guildID, channelID string) *Connection {
	return &Connection{
		vc:           vc,
		guildID:      guildID,
		channelID:    channelID,
		done:         make(chan struct{}),
		disconnectVC: vc.Disconnect,
	}
}

// Play starts playback of the mp3 file at path on a background goroutine.
// Returns an error without invoking onComplete if a clip is already playing
// or the connection is down.
func (c *Connection) Play(path string, onComplete func(error)) error {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return fmt.Errorf("discord: connection in guild %s is already playing", c.guildID)
	}
	if !c.IsConnected() {
		c.mu.Unlock()
		return fmt.Errorf("discord: connection in guild %s is not established", c.guildID)
	}
	c.playing = true
	c.mu.Unlock()

	go func() {
		err := c.stream(path)
		c.mu.Lock()
		c.playing = false
		c.mu.Unlock()
		if onComplete != nil {
			onComplete(err)
		}
	}()
	return nil
}

// IsPlaying reports whether a clip is currently being played.
func (c *Connection) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// IsConnected reports whether the voice session is still established.
func (c *Connection) IsConnected() bool {
	select {
	case <-c.done:
		return false
	default:
	}
	return c.vc != nil && c.vc.Ready
}

// ChannelID returns the voice channel this connection is joined to.
func (c *Connection) ChannelID() string {
	return c.channelID
}

// Disconnect tears down the voice connection. Any in-flight playback stops
// as the send loop observes the closed done channel. Safe to call more than
// once; subsequent calls return nil.
func (c *Connection) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.disconnectVC != nil {
			err = c.disconnectVC()
		}
	})
	return err
}

// stream decodes, resamples, encodes, and sends the clip at path.
func (c *Connection) stream(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("discord: open clip: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return fmt.Errorf("discord: decode clip %q: %w", path, err)
	}

	// TTS clips are a few seconds long, so decoding the whole clip up front
	// keeps the resampler simple.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return fmt.Errorf("discord: read clip %q: %w", path, err)
	}

	// go-mp3 always emits 16-bit little-endian stereo at the source rate.
	pcm := bytesToInt16s(raw)
	if dec.SampleRate() != sampleRate {
		pcm = resampleStereo16(pcm, dec.SampleRate(), sampleRate)
	}

	enc, err := newOpusEncoder()
	if err != nil {
		return err
	}

	c.setSpeaking(true)
	defer c.setSpeaking(false)

	// frameSamples is the interleaved sample count for one 20 ms frame.
	const frameSamples = frameSize * channels

	for off := 0; off < len(pcm); off += frameSamples {
		end := off + frameSamples
		frame := make([]int16, frameSamples)
		if end > len(pcm) {
			end = len(pcm)
		}
		copy(frame, pcm[off:end])

		packet, err := enc.encode(frame)
		if err != nil {
			return err
		}

		select {
		case c.vc.OpusSend <- packet:
		case <-c.done:
			return errInterrupted
		}
	}
	return nil
}

// setSpeaking sends a speaking notification to Discord, logging any errors.
func (c *Connection) setSpeaking(b bool) {
	if err := c.vc.Speaking(b); err != nil {
		slog.Warn("discord: speaking notification error", "speaking", b, "error", err)
	}
}

// resampleStereo16 linearly resamples interleaved 16-bit stereo PCM from
// the from rate to the to rate.
func resampleStereo16(pcm []int16, from, to int) []int16 {
	if from == to || len(pcm) < 4 {
		return pcm
	}
	inFrames := len(pcm) / channels
	outFrames := int(int64(inFrames) * int64(to) / int64(from))
	out := make([]int16, outFrames*channels)

	for i := 0; i < outFrames; i++ {
		// Source position for this output frame, as frame index + fraction.
		srcPos := float64(i) * float64(from) / float64(to)
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		next := idx + 1
		if next >= inFrames {
			next = inFrames - 1
		}
		for ch := 0; ch < channels; ch++ {
			a := float64(pcm[idx*channels+ch])
			b := float64(pcm[next*channels+ch])
			out[i*channels+ch] = int16(a + (b-a)*frac)
		}
	}
	return out
}
