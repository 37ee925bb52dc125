// ABOUTME: Speech reply playback
// ABOUTME: Decodes synthesized MP3 replies and plays them on the shared output
package media

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/harperreed/clipchat/pkg/audio"
	"github.com/harperreed/clipchat/pkg/audio/decode"
	"github.com/harperreed/clipchat/pkg/audio/resample"
)

// defaultReplyRate is used when no clip media opened the device first
const defaultReplyRate = 44100

// wavHeaderSize is the canonical header length written by the WAV encoder
const wavHeaderSize = 44

// ReplyDevice is the output surface replies play through
type ReplyDevice interface {
	Open(sampleRate, channels int) error
	SampleRate() int
	Channels() int
	PlaySamples(ctx context.Context, samples []int32) error
}

// ReplyPlayer plays one reply at a time; a new reply cuts off the previous one
type ReplyPlayer struct {
	device ReplyDevice

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewReplyPlayer creates a reply player on device
func NewReplyPlayer(device ReplyDevice) *ReplyPlayer {
	return &ReplyPlayer{device: device}
}

// Play decodes an MP3 reply and blocks until it has played or ctx ends
func (p *ReplyPlayer) Play(ctx context.Context, data []byte) error {
	dec := decode.NewMP3()
	samples, err := dec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}
	return p.play(ctx, samples, dec.SampleRate(), dec.Channels())
}

// PlayUnit plays an encoded unit (WAV recording or MP3 reply)
func (p *ReplyPlayer) PlayUnit(ctx context.Context, unit audio.Unit) error {
	switch unit.Format.Codec {
	case "mp3":
		return p.Play(ctx, unit.Data)
	case "wav":
		if len(unit.Data) <= wavHeaderSize {
			return fmt.Errorf("empty recording")
		}
		samples := audio.SamplesFromPCM16(unit.Data[wavHeaderSize:])
		return p.play(ctx, samples, unit.Format.SampleRate, unit.Format.Channels)
	default:
		return fmt.Errorf("unsupported codec: %s", unit.Format.Codec)
	}
}

func (p *ReplyPlayer) play(ctx context.Context, samples []int32, rate, channels int) error {
	deviceRate := p.device.SampleRate()
	if deviceRate == 0 {
		deviceRate = rate
		if deviceRate == 0 {
			deviceRate = defaultReplyRate
		}
	}
	if err := p.device.Open(deviceRate, 2); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	samples = conform(samples, rate, channels, p.device.SampleRate(), p.device.Channels())

	playCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.seq == seq {
			p.cancel = nil
		}
		p.mu.Unlock()
		cancel()
	}()

	log.Printf("Playing reply: %d samples at %dHz", len(samples), p.device.SampleRate())
	return p.device.PlaySamples(playCtx, samples)
}

// Stop cuts off the reply currently playing
func (p *ReplyPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// conform converts interleaved samples to the device channel count and rate
func conform(samples []int32, inRate, inChannels, outRate, outChannels int) []int32 {
	switch {
	case inChannels == 2 && outChannels == 1:
		mono := make([]int32, len(samples)/2)
		for i := range mono {
			mono[i] = int32((int64(samples[i*2]) + int64(samples[i*2+1])) / 2)
		}
		samples = mono
		inChannels = 1
	case inChannels == 1 && outChannels == 2:
		stereo := make([]int32, len(samples)*2)
		for i, s := range samples {
			stereo[i*2] = s
			stereo[i*2+1] = s
		}
		samples = stereo
		inChannels = 2
	}

	return resample.Convert(samples, inRate, outRate, inChannels)
}
