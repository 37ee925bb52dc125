// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for audio decoders producing int32 PCM
package decode

// Decoder decodes a complete encoded audio payload to PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to interleaved PCM samples
	Decode(data []byte) ([]int32, error)

	// SampleRate reports the rate of the last decoded payload
	SampleRate() int

	// Channels reports the channel count of decoded samples
	Channels() int

	// Close releases decoder resources
	Close() error
}
