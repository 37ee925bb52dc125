// ABOUTME: Linear resampler for converting audio sample rates
// ABOUTME: Used to bring speech replies up to the open output device rate
package resample

// Resampler performs linear interpolation between two sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts interleaved input at inputRate into output at outputRate.
// It returns the number of output samples written.
func (r *Resampler) Resample(input []int32, output []int32) int {
	if len(input) == 0 || r.channels <= 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(r.position)
		if inputIdx >= inputFrames-1 {
			break
		}

		frac := r.position - float64(inputIdx)
		for ch := 0; ch < r.channels; ch++ {
			a := input[inputIdx*r.channels+ch]
			b := input[(inputIdx+1)*r.channels+ch]
			output[outIdx*r.channels+ch] = int32(float64(a)*(1.0-frac) + float64(b)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Keep the fractional part for the next call
	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// Convert resamples a whole buffer in one call. Equal rates return the input unchanged.
func Convert(input []int32, inputRate, outputRate, channels int) []int32 {
	if inputRate == outputRate || inputRate <= 0 || outputRate <= 0 {
		return input
	}

	r := New(inputRate, outputRate, channels)
	output := make([]int32, r.OutputSamplesNeeded(len(input))+channels)
	n := r.Resample(input, output)
	return output[:n]
}
