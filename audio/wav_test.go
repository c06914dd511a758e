package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineSource builds a mono sine wave source for codec tests
func sineSource(seconds float64, sampleRate int) *Source {
	frames := int(seconds * float64(sampleRate))
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
	}
	return &Source{Channels: [][]float64{samples}, SampleRate: sampleRate}
}

// TestEncodeWAVHeader tests the serialized container is self-describing
func TestEncodeWAVHeader(t *testing.T) {
	src := sineSource(1, 44100)

	data, err := EncodeWAV(src)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 44)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))

	assert.EqualValues(t, 1, binary.LittleEndian.Uint16(data[20:22]))     // PCM
	assert.EqualValues(t, 1, binary.LittleEndian.Uint16(data[22:24]))     // channels
	assert.EqualValues(t, 44100, binary.LittleEndian.Uint32(data[24:28])) // sample rate
	assert.EqualValues(t, 16, binary.LittleEndian.Uint16(data[34:36]))    // bit depth

	assert.Equal(t, "data", string(data[36:40]))
	dataLen := binary.LittleEndian.Uint32(data[40:44])
	assert.EqualValues(t, 44100*2, dataLen)
	assert.Equal(t, 44+int(dataLen), len(data))
}

// TestWAVRoundTrip tests encode -> decode preserves shape and content
func TestWAVRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		seconds    float64
		sampleRate int
		channels   int
	}{
		{name: "mono 44100", seconds: 0.5, sampleRate: 44100, channels: 1},
		{name: "stereo 48000", seconds: 0.25, sampleRate: 48000, channels: 2},
		{name: "mono 8000", seconds: 1, sampleRate: 8000, channels: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &Source{
				Channels:   make([][]float64, tt.channels),
				SampleRate: tt.sampleRate,
			}
			frames := int(tt.seconds * float64(tt.sampleRate))
			for ch := range src.Channels {
				buf := make([]float64, frames)
				for i := range buf {
					buf[i] = 0.4 * math.Sin(2*math.Pi*(220+110*float64(ch))*float64(i)/float64(tt.sampleRate))
				}
				src.Channels[ch] = buf
			}

			data, err := EncodeWAV(src)
			require.NoError(t, err)

			decoded, err := DecodeWAV(data)
			require.NoError(t, err)

			assert.Equal(t, tt.sampleRate, decoded.SampleRate)
			assert.Equal(t, tt.channels, decoded.NumChannels())
			assert.Equal(t, frames, decoded.Frames())

			// 16-bit quantization bounds the round-trip error
			for ch := range src.Channels {
				for i := 0; i < frames; i += 97 {
					assert.InDelta(t, src.Channels[ch][i], decoded.Channels[ch][i], 1.0/32000)
				}
			}
		})
	}
}

// TestEncodeWAVClipsOutOfRangeSamples tests that hot samples clip, not wrap
func TestEncodeWAVClipsOutOfRangeSamples(t *testing.T) {
	src := &Source{
		Channels:   [][]float64{{1.5, -1.5, 1.0, -1.0}},
		SampleRate: 8000,
	}

	data, err := EncodeWAV(src)
	require.NoError(t, err)

	decoded, err := DecodeWAV(data)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, decoded.Channels[0][0], 1.0/32000)
	assert.InDelta(t, -1.0, decoded.Channels[0][1], 1.0/32000)
}

// TestEncodeWAVRejectsEmptySource tests encoding without decoded audio
func TestEncodeWAVRejectsEmptySource(t *testing.T) {
	for _, src := range []*Source{nil, {}, {Channels: [][]float64{{0}}, SampleRate: 0}} {
		_, err := EncodeWAV(src)
		assert.ErrorIs(t, err, ErrDecode)
	}
}

// TestDecodeWAVMalformed tests the decode error taxonomy
func TestDecodeWAVMalformed(t *testing.T) {
	valid, err := EncodeWAV(sineSource(0.01, 8000))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not riff", data: []byte("ID3\x03this is not audio at all......")},
		{name: "riff but not wave", data: append([]byte("RIFF\x10\x00\x00\x00AVI "), make([]byte, 16)...)},
		{name: "truncated chunk", data: valid[:50]},
		{name: "missing data chunk", data: valid[:36]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := DecodeWAV(tt.data)
			assert.Nil(t, src)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

// TestDecodeWAV8Bit tests 8-bit unsigned PCM input support
func TestDecodeWAV8Bit(t *testing.T) {
	// Hand-build a tiny 8-bit mono file: silence, full positive, full negative
	pcm := []byte{128, 255, 0, 128}
	header := make([]byte, 0, 44)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+len(pcm)))
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, 1) // mono
	header = binary.LittleEndian.AppendUint32(header, 8000)
	header = binary.LittleEndian.AppendUint32(header, 8000)
	header = binary.LittleEndian.AppendUint16(header, 1)
	header = binary.LittleEndian.AppendUint16(header, 8) // bit depth
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(pcm)))

	src, err := DecodeWAV(append(header, pcm...))
	require.NoError(t, err)

	require.Equal(t, 1, src.NumChannels())
	require.Equal(t, 4, src.Frames())
	assert.InDelta(t, 0.0, src.Channels[0][0], 1e-9)
	assert.InDelta(t, 0.99, src.Channels[0][1], 0.01)
	assert.InDelta(t, -1.0, src.Channels[0][2], 1e-9)
}
