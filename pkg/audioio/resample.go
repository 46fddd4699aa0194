package audioio

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// Anti-aliasing filter length used when downsampling. Odd, so the filter
// has a center tap and no group delay offset.
const lowPassTaps = 63

// ResampleFloat converts normalized samples between rates. Downsampling
// runs a windowed-sinc low-pass first so content above the new Nyquist
// frequency does not fold back; the rate change itself is linear
// interpolation.
func ResampleFloat(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	src := samples
	if toRate < fromRate {
		// 90% of the target Nyquist, in cycles per source sample
		cutoff := 0.45 * float64(toRate) / float64(fromRate)
		src = LowPass(samples, cutoff, lowPassTaps)
	}

	ratio := float64(fromRate) / float64(toRate)
	out := make([]float64, int(float64(len(src))/ratio))
	last := len(src) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = src[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = src[idx] + frac*(src[idx+1]-src[idx])
	}
	return out
}

// LowPass filters samples with a Hamming-windowed sinc FIR. cutoff is in
// cycles per sample (0 < cutoff < 0.5). The kernel has unity gain at DC and
// edges are extended by repeating the first and last sample.
func LowPass(samples []float64, cutoff float64, taps int) []float64 {
	if len(samples) == 0 || cutoff <= 0 || cutoff >= 0.5 {
		return samples
	}
	kernel := lowPassKernel(cutoff, taps)
	half := len(kernel) / 2
	last := len(samples) - 1

	out := make([]float64, len(samples))
	for i := range samples {
		var acc float64
		for k, h := range kernel {
			j := i + k - half
			if j < 0 {
				j = 0
			} else if j > last {
				j = last
			}
			acc += h * samples[j]
		}
		out[i] = acc
	}
	return out
}

func lowPassKernel(cutoff float64, taps int) []float64 {
	if taps%2 == 0 {
		taps++
	}
	mid := taps / 2
	h := make([]float64, taps)
	for n := range h {
		x := float64(n - mid)
		if x == 0 {
			h[n] = 2 * cutoff
		} else {
			h[n] = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
		}
	}
	window.Hamming(h)

	var sum float64
	for _, v := range h {
		sum += v
	}
	for n := range h {
		h[n] /= sum
	}
	return h
}

// BytesToSamples decodes little-endian PCM16. A trailing odd byte is dropped.
func BytesToSamples(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return out
}

// SamplesToBytes encodes samples as little-endian PCM16.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		u := uint16(s)
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

// StereoToMono averages interleaved left/right pairs.
func StereoToMono(interleaved []int16) []int16 {
	out := make([]int16, len(interleaved)/2)
	for i := range out {
		out[i] = int16((int32(interleaved[2*i]) + int32(interleaved[2*i+1])) / 2)
	}
	return out
}

// SamplesToFloat converts PCM16 samples to floats in [-1, 1].
func SamplesToFloat(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / 32768
	}
	return out
}

// FloatToSamples converts floats in [-1, 1] to PCM16, clipping out-of-range values.
func FloatToSamples(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
