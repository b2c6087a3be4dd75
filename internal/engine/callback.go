package engine

import "math"

// xfadeWeights returns the (outgoing, incoming) gain pair for a crossfade
// at normalized position t in [0,1), per the configured shape.
func xfadeWeights(t float64, shape LoopShape) (wOut, wIn float64) {
	switch shape {
	case LoopEqualPower:
		return math.Cos(math.Pi / 2 * t), math.Sin(math.Pi / 2 * t)
	default:
		return 1 - t, t
	}
}

func lerp(buf []float32, posF float64) float32 {
	n := len(buf)
	idx := int(posF)
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	frac := posF - float64(idx)
	idx2 := idx + 1
	if idx2 >= n {
		idx2 = n - 1
	}
	return buf[idx]*float32(1-frac) + buf[idx2]*float32(frac)
}

// fillFrames renders frameCount interleaved frames of channels channels into
// out. It is the realtime callback body: no allocation, no locking, no
// syscalls. Every parameter is loaded from atomics at most once per frame so
// a concurrent writer's update is visible within one sample period.
func (s *SharedPlaybackState) fillFrames(out []float32, frameCount int, channels int) {
	bufPtr := s.buffer.Load()
	playing := s.playing.Load()

	if !playing || bufPtr == nil || len(*bufPtr) == 0 {
		for i := range out {
			out[i] = 0
		}
		s.setMeterRMS(0)
		return
	}

	buf := *bufPtr
	bufLen := len(buf)
	posF := s.getPlayPosF()

	sumSq := 0.0
	stillPlaying := true

	for i := 0; i < frameCount; i++ {
		gain := s.getVol() * s.getFileGain()
		rate := float64(s.getRate())

		loopEnabled := s.loopEnabled.Load()
		loopStart := int(s.loopStart.Load())
		loopEnd := int(s.loopEnd.Load())
		xfadeReq := int(s.loopXfadeSamples.Load())
		shape := LoopShape(s.loopXfadeShape.Load())

		loopValid := loopEnabled && loopEnd > loopStart && loopEnd <= bufLen

		if !stillPlaying {
			for c := 0; c < channels; c++ {
				out[i*channels+c] = 0
			}
			continue
		}

		if loopValid && posF >= float64(loopEnd) {
			posF = float64(loopStart)
		} else if !loopValid && posF >= float64(bufLen-1) {
			stillPlaying = false
			s.playing.Store(false)
			for c := 0; c < channels; c++ {
				out[i*channels+c] = 0
			}
			continue
		}

		sample := float64(lerp(buf, posF))

		if loopValid && xfadeReq > 0 {
			loopLen := loopEnd - loopStart
			preTail := loopStart
			postTail := bufLen - loopEnd
			xfade := xfadeReq
			if loopLen/2 < xfade {
				xfade = loopLen / 2
			}
			if preTail < xfade {
				xfade = preTail
			}
			if postTail < xfade {
				xfade = postTail
			}

			if xfade > 0 {
				switch {
				case posF >= float64(loopStart) && posF < float64(loopStart+xfade):
					t := (posF - float64(loopStart)) / float64(xfade)
					otherPos := float64(loopEnd-xfade) + (posF - float64(loopStart))
					other := float64(lerp(buf, otherPos))
					wOut, wIn := xfadeWeights(t, shape)
					sample = other*wOut + sample*wIn
				case posF >= float64(loopEnd-xfade) && posF < float64(loopEnd):
					t := (posF - float64(loopEnd-xfade)) / float64(xfade)
					otherPos := float64(loopStart) + (posF - float64(loopEnd-xfade))
					other := float64(lerp(buf, otherPos))
					wOut, wIn := xfadeWeights(t, shape)
					sample = sample*wOut + other*wIn
				}
			}
		}

		sample *= float64(gain)
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}

		out32 := float32(sample)
		for c := 0; c < channels; c++ {
			out[i*channels+c] = out32
		}
		sumSq += sample * sample

		posF += rate
	}

	s.setPlayPosF(posF)
	s.playPos.Store(int64(posF))

	if frameCount > 0 {
		s.setMeterRMS(math.Sqrt(sumSq / float64(frameCount)))
	} else {
		s.setMeterRMS(0)
	}
}
