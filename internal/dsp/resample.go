package dsp

import "math"

// Quality selects the resampling kernel (spec.md §4.2).
type Quality int

const (
	Fast Quality = iota // linear interpolation
	Best                // windowed-sinc / polyphase kernel
)

// ResampleLinear resamples mono audio by per-sample linear interpolation.
// Returns the input unchanged (same backing array, no allocation) if the
// rates are equal, matching ResampleImpossible/identity semantics used
// throughout the teacher's own resampler.
func ResampleLinear(mono []float32, inRate, outRate int) []float32 {
	if inRate == outRate || inRate <= 0 || outRate <= 0 || len(mono) == 0 {
		return mono
	}

	ratio := float64(inRate) / float64(outRate)
	outLen := int(float64(len(mono)) * float64(outRate) / float64(inRate))
	out := make([]float32, outLen)

	for i := range out {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		if idx >= len(mono)-1 {
			out[i] = mono[len(mono)-1]
			continue
		}
		out[i] = mono[idx]*float32(1-frac) + mono[idx+1]*float32(frac)
	}
	return out
}

// sincKernelHalfWidth is the number of input samples considered on each
// side of the ideal output position for the Best-quality kernel.
const sincKernelHalfWidth = 8

// resampleSinc performs windowed-sinc (Lanczos-windowed) interpolation for
// higher-quality resampling, used by ResampleQuality(Best).
func resampleSinc(mono []float32, inRate, outRate int) []float32 {
	if inRate == outRate || inRate <= 0 || outRate <= 0 || len(mono) == 0 {
		return mono
	}

	ratio := float64(inRate) / float64(outRate)
	outLen := int(float64(len(mono)) * float64(outRate) / float64(inRate))
	out := make([]float32, outLen)
	a := sincKernelHalfWidth

	for i := range out {
		center := float64(i) * ratio
		ci := int(center)
		var sum, weightSum float64
		for k := ci - a + 1; k <= ci+a; k++ {
			if k < 0 || k >= len(mono) {
				continue
			}
			x := center - float64(k)
			w := lanczos(x, float64(a))
			sum += float64(mono[k]) * w
			weightSum += w
		}
		if weightSum != 0 {
			sum /= weightSum
		}
		out[i] = float32(sum)
	}
	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// lanczos evaluates the Lanczos window of half-width a at x.
func lanczos(x, a float64) float64 {
	if x < -a || x > a {
		return 0
	}
	return sinc(x) * sinc(x/a)
}

// ResampleQuality resamples a full channel set at the requested quality;
// Fast maps to linear interpolation, Best to the windowed-sinc kernel. The
// export pipeline (spec.md §4.8) always requests Best.
func ResampleQuality(ch [][]float32, inRate, outRate int, q Quality) [][]float32 {
	out := make([][]float32, len(ch))
	for i, c := range ch {
		if q == Best {
			out[i] = resampleSinc(c, inRate, outRate)
		} else {
			out[i] = ResampleLinear(c, inRate, outRate)
		}
	}
	return out
}
