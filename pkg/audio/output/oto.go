// ABOUTME: Oto-based audio output implementation
// ABOUTME: Shares one oto context between clip playback and speech replies
package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/harperreed/clipchat/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	sampleRate int
	channels   int
	volume     int
	muted      bool
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{
		volume: 100,
		muted:  false,
	}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		return nil
	}

	// oto only allows one context per process; callers resample to the open rate
	if o.otoCtx != nil {
		log.Printf("Warning: format change requested (%dHz %dch -> %dHz %dch), keeping existing context",
			o.sampleRate, o.channels, sampleRate, channels)
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return nil
}

// SampleRate returns the rate the device was opened with (0 if closed)
func (o *Oto) SampleRate() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sampleRate
}

// Channels returns the channel count the device was opened with
func (o *Oto) Channels() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channels
}

// NewStream creates a player reading 16-bit PCM from r. If r is an io.Seeker
// the returned stream can seek.
func (o *Oto) NewStream(r io.Reader) (Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return nil, fmt.Errorf("output not initialized")
	}

	p := o.otoCtx.NewPlayer(r)
	p.SetVolume(getVolumeMultiplier(o.volume, o.muted))
	return p, nil
}

// PlaySamples plays a finite buffer and blocks until playback drains
func (o *Oto) PlaySamples(ctx context.Context, samples []int32) error {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return fmt.Errorf("output not initialized")
	}
	pcm := audio.SamplesToPCM16(applyVolume(samples, o.volume, o.muted))
	p := o.otoCtx.NewPlayer(bytes.NewReader(pcm))
	o.mu.Unlock()

	defer p.Close()
	p.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return p.Err()
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
		o.ready = false
	}
	return nil
}

// SetVolume sets the volume (0-100) for subsequent buffers
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
}

// applyVolume applies volume and mute to samples with clipping protection
func applyVolume(samples []int32, volume int, muted bool) []int32 {
	multiplier := getVolumeMultiplier(volume, muted)

	result := make([]int32, len(samples))
	for i, sample := range samples {
		scaled := int64(float64(sample) * multiplier)

		max := int64(audio.SampleFromInt16(audio.MaxInt16))
		min := int64(audio.SampleFromInt16(audio.MinInt16))
		if scaled > max {
			scaled = max
		} else if scaled < min {
			scaled = min
		}

		result[i] = int32(scaled)
	}

	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
