// Package audio holds the decoded sample model, the trim routine and the WAV
// codec that turns a trimmed range back into a self-contained playable file.
package audio

import "math"

// Source is decoded multi-channel audio: one float64 buffer per channel,
// samples in [-1, 1], all channels the same length. Treated as immutable
// once decoded.
type Source struct {
	Channels   [][]float64
	SampleRate int
}

// Frames returns the number of sample frames (per-channel samples).
func (s *Source) Frames() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// NumChannels returns the channel count.
func (s *Source) NumChannels() int {
	return len(s.Channels)
}

// Duration returns the total duration in seconds.
func (s *Source) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Frames()) / float64(s.SampleRate)
}

// Trim copies the sample frame range [start, end) seconds out of src into a
// new Source, preserving channel order and sample rate.
//
// end <= start is rejected with ErrInvalidSelection; a range narrower than
// one sample frame is rejected with ErrEmptySelection rather than producing
// an empty payload.
func Trim(src *Source, start, end float64) (*Source, error) {
	if end <= start {
		return nil, ErrInvalidSelection
	}

	frames := src.Frames()
	startFrame := int(math.Floor(start * float64(src.SampleRate)))
	endFrame := int(math.Floor(end * float64(src.SampleRate)))

	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > frames {
		endFrame = frames
	}
	if endFrame <= startFrame {
		return nil, ErrEmptySelection
	}

	out := &Source{
		Channels:   make([][]float64, len(src.Channels)),
		SampleRate: src.SampleRate,
	}
	for ch, samples := range src.Channels {
		buf := make([]float64, endFrame-startFrame)
		copy(buf, samples[startFrame:endFrame])
		out.Channels[ch] = buf
	}

	return out, nil
}
