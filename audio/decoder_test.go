package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDetectFormat tests the upload media-type gate
func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		want        string
		wantErr     bool
	}{
		{name: "wav extension", filename: "take1.wav", want: "wav"},
		{name: "uppercase extension", filename: "SONG.FLAC", want: "flac"},
		{name: "mp3 extension", filename: "podcast.mp3", want: "mp3"},
		{name: "mime fallback", filename: "upload", contentType: "audio/wav", want: "wav"},
		{name: "mime with params", filename: "blob", contentType: "audio/mpeg; charset=binary", want: "mp3"},
		{name: "image rejected", filename: "cover.png", contentType: "image/png", wantErr: true},
		{name: "text rejected", filename: "notes.txt", wantErr: true},
		{name: "no extension no mime", filename: "mystery", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := DetectFormat(tt.filename, tt.contentType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, format)
		})
	}
}

// TestDecoderFor tests decoder selection by format
func TestDecoderFor(t *testing.T) {
	assert.IsType(t, &WAVDecoder{}, DecoderFor("wav", "ffmpeg"))
	assert.IsType(t, &FFmpegDecoder{}, DecoderFor("mp3", "ffmpeg"))
	assert.IsType(t, &FFmpegDecoder{}, DecoderFor("flac", "ffmpeg"))
}

// TestWAVDecoderDecodeFile tests the native decoder against a real file
func TestWAVDecoderDecodeFile(t *testing.T) {
	data, err := EncodeWAV(sineSource(0.1, 22050))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixture.wav")
	require.NoError(t, os.WriteFile(path, data, 0644))

	src, err := (&WAVDecoder{}).DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 22050, src.SampleRate)
	assert.Equal(t, 2205, src.Frames())
}

// TestWAVDecoderReadFailure tests the read-failure taxonomy
func TestWAVDecoderReadFailure(t *testing.T) {
	_, err := (&WAVDecoder{}).DecodeFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, ErrRead)
}

// TestWAVDecoderDecodeFailure tests non-audio bytes behind a wav name
func TestWAVDecoderDecodeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a wav"), 0644))

	_, err := (&WAVDecoder{}).DecodeFile(path)
	assert.ErrorIs(t, err, ErrDecode)
}
