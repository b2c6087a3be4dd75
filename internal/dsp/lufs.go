package dsp

import "math"

// lufsWorkingRate is the rate the K-weighting filter coefficients below are
// derived for (spec.md §4.2 step 1).
const lufsWorkingRate = 48000

// biquad is a direct-form-II transposed second-order IIR section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// kWeightingFilters returns the two cascaded biquads of ITU-R BS.1770's
// K-weighting filter (pre-emphasis shelf, then RLB high-pass), with
// coefficients defined for a 48 kHz sample rate as specified by BS.1770.
func kWeightingFilters() (preEmphasis, rlbHighPass *biquad) {
	preEmphasis = &biquad{
		b0: 1.53512485958697, b1: -2.69169618940638, b2: 1.19839281085285,
		a1: -1.69065929318241, a2: 0.73248077421585,
	}
	rlbHighPass = &biquad{
		b0: 1.0, b1: -2.0, b2: 1.0,
		a1: -1.99004745483398, a2: 0.99007225036621,
	}
	return
}

// LUFSIntegrated computes the BS.1770 integrated loudness of a set of
// channels, each at sampleRate. Returns math.Inf(-1) when no block survives
// gating (spec.md §4.2 step 6).
func LUFSIntegrated(channels [][]float32, sampleRate int) float64 {
	if len(channels) == 0 {
		return math.Inf(-1)
	}

	work := channels
	if sampleRate != lufsWorkingRate {
		work = ResampleQuality(channels, sampleRate, lufsWorkingRate, Fast)
	}

	weighted := make([][]float64, len(work))
	for c, samples := range work {
		pre, rlb := kWeightingFilters()
		out := make([]float64, len(samples))
		for i, s := range samples {
			v := pre.process(float64(s))
			v = rlb.process(v)
			out[i] = v
		}
		weighted[c] = out
	}

	n := 0
	for _, c := range weighted {
		if len(c) > n {
			n = len(c)
		}
	}

	const windowS = 0.4
	const hopS = 0.1
	windowSamples := int(windowS * lufsWorkingRate)
	hopSamples := int(hopS * lufsWorkingRate)

	if n < windowSamples {
		// Too short for a full window: fall back to whole-signal mean power.
		power := meanPower(weighted, 0, n)
		if power <= 0 {
			return math.Inf(-1)
		}
		return -0.691 + 10*math.Log10(power)
	}

	var blockPowers []float64
	for start := 0; start+windowSamples <= n; start += hopSamples {
		blockPowers = append(blockPowers, meanPower(weighted, start, start+windowSamples))
	}

	var absGated []float64
	for _, z := range blockPowers {
		if z <= 0 {
			continue
		}
		l := -0.691 + 10*math.Log10(z)
		if l > -70 {
			absGated = append(absGated, z)
		}
	}
	if len(absGated) == 0 {
		return math.Inf(-1)
	}

	lAbs := -0.691 + 10*math.Log10(mean(absGated))
	relThreshold := lAbs - 10

	var relGated []float64
	for _, z := range absGated {
		l := -0.691 + 10*math.Log10(z)
		if l > relThreshold {
			relGated = append(relGated, z)
		}
	}
	if len(relGated) == 0 {
		return math.Inf(-1)
	}

	z := mean(relGated)
	if z <= 0 {
		return math.Inf(-1)
	}
	return -0.691 + 10*math.Log10(z)
}

// meanPower computes each channel's mean squared value over [start, end)
// and sums the results across channels (spec.md §4.2 step 3: "power sum
// across channels (all channels weight 1.0)") rather than averaging
// samples across channels, which would understate multi-channel loudness.
func meanPower(channels [][]float64, start, end int) float64 {
	if end <= start {
		return 0
	}
	var total float64
	for _, c := range channels {
		e := end
		if e > len(c) {
			e = len(c)
		}
		if e <= start {
			continue
		}
		var sum float64
		for i := start; i < e; i++ {
			sum += c[i] * c[i]
		}
		total += sum / float64(e-start)
	}
	return total
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
