package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSource builds a deterministic test source: channel ch holds a ramp
// offset by the channel index so per-channel copies are distinguishable.
func makeSource(t *testing.T, seconds float64, sampleRate, channels int) *Source {
	t.Helper()

	frames := int(seconds * float64(sampleRate))
	src := &Source{
		Channels:   make([][]float64, channels),
		SampleRate: sampleRate,
	}
	for ch := range src.Channels {
		buf := make([]float64, frames)
		for i := range buf {
			buf[i] = math.Mod(float64(i+ch*7), 1000) / 1000
		}
		src.Channels[ch] = buf
	}
	return src
}

// TestTrimMono tests the canonical trim: [2.0, 5.0] of a 10s 44100Hz mono
// source yields 3.0 seconds at the same rate
func TestTrimMono(t *testing.T) {
	src := makeSource(t, 10, 44100, 1)

	clip, err := Trim(src, 2.0, 5.0)
	require.NoError(t, err)

	assert.Equal(t, 44100, clip.SampleRate)
	assert.Equal(t, 1, clip.NumChannels())
	assert.InDelta(t, 3.0, clip.Duration(), 1.0/44100)
	assert.Equal(t, 3*44100, clip.Frames())

	// Samples line up with the source at the start frame offset
	startFrame := 2 * 44100
	for i := 0; i < 100; i++ {
		assert.Equal(t, src.Channels[0][startFrame+i], clip.Channels[0][i])
	}
}

// TestTrimStereoPreservesChannelOrder tests multi-channel trimming
func TestTrimStereoPreservesChannelOrder(t *testing.T) {
	src := makeSource(t, 4, 8000, 2)

	clip, err := Trim(src, 1.0, 2.5)
	require.NoError(t, err)

	require.Equal(t, 2, clip.NumChannels())
	assert.Equal(t, 12000, clip.Frames())

	startFrame := 8000
	assert.Equal(t, src.Channels[0][startFrame], clip.Channels[0][0])
	assert.Equal(t, src.Channels[1][startFrame], clip.Channels[1][0])
	assert.NotEqual(t, clip.Channels[0][0], clip.Channels[1][0])
}

// TestTrimCopiesBuffers tests that the clip shares no memory with the source
func TestTrimCopiesBuffers(t *testing.T) {
	src := makeSource(t, 2, 1000, 1)

	clip, err := Trim(src, 0, 1)
	require.NoError(t, err)

	clip.Channels[0][0] = -123
	assert.NotEqual(t, -123.0, src.Channels[0][0])
}

// TestTrimRejectsInvalidSelection tests end <= start rejection
func TestTrimRejectsInvalidSelection(t *testing.T) {
	src := makeSource(t, 10, 44100, 1)

	tests := []struct {
		name       string
		start, end float64
	}{
		{name: "end equals start", start: 3, end: 3},
		{name: "end before start", start: 5, end: 2},
		{name: "zero range at zero", start: 0, end: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip, err := Trim(src, tt.start, tt.end)
			assert.Nil(t, clip)
			assert.ErrorIs(t, err, ErrInvalidSelection)
		})
	}
}

// TestTrimRejectsSubFrameSelection tests the empty-selection policy: a range
// narrower than one sample frame is rejected, not silently emptied
func TestTrimRejectsSubFrameSelection(t *testing.T) {
	src := makeSource(t, 10, 44100, 1)

	// Both bounds floor to the same sample frame
	clip, err := Trim(src, 1.00001, 1.00002)
	assert.Nil(t, clip)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

// TestTrimClampsToSourceBounds tests ranges reaching past the end
func TestTrimClampsToSourceBounds(t *testing.T) {
	src := makeSource(t, 2, 1000, 1)

	clip, err := Trim(src, 1.5, 99)
	require.NoError(t, err)
	assert.Equal(t, 500, clip.Frames())
}

// TestSourceAccessors tests frame/duration arithmetic
func TestSourceAccessors(t *testing.T) {
	src := makeSource(t, 10, 44100, 2)
	assert.Equal(t, 441000, src.Frames())
	assert.Equal(t, 2, src.NumChannels())
	assert.InDelta(t, 10.0, src.Duration(), 1e-9)

	empty := &Source{}
	assert.Equal(t, 0, empty.Frames())
	assert.Equal(t, 0.0, empty.Duration())
}
