// ABOUTME: Malgo-based microphone capture
// ABOUTME: Opens a miniaudio capture device and forwards 16-bit PCM frames
package input

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/harperreed/clipchat/pkg/audio"
)

// Malgo opens capture devices through miniaudio
type Malgo struct{}

// NewMalgo creates a microphone backed by the default capture device
func NewMalgo() *Malgo {
	return &Malgo{}
}

// captureStream owns one context and device; closing releases both
type captureStream struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
}

// Open acquires the default microphone and starts delivering PCM to onData.
// onData runs on the audio thread and receives a copy of each period.
func (m *Malgo) Open(format audio.Format, onData func(pcm []byte)) (io.Closer, error) {
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			if len(pInput) == 0 {
				return
			}
			frame := make([]byte, len(pInput))
			copy(frame, pInput)
			onData(frame)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	log.Printf("Microphone opened: %dHz, %d channels", format.SampleRate, format.Channels)

	return &captureStream{malgoCtx: ctx, device: device}, nil
}

// Close stops the device and releases the context
func (s *captureStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device != nil {
		if err := s.device.Stop(); err != nil {
			log.Printf("Warning: capture device stop error: %v", err)
		}
		s.device.Uninit()
		s.device = nil
	}

	if s.malgoCtx != nil {
		if err := s.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		s.malgoCtx.Free()
		s.malgoCtx = nil
	}

	log.Printf("Microphone released")
	return nil
}
