// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for audio encoders
package encode

// Encoder encodes PCM int32 samples into a self-contained audio file
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
