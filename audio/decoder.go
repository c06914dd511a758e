package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Decoder turns an uploaded file into a Source. Implementations fail with
// ErrRead when the bytes cannot be read and ErrDecode when they are not
// decodable audio; either way no partial Source is ever returned.
type Decoder interface {
	DecodeFile(path string) (*Source, error)
}

// Formats accepted for upload. WAV is decoded natively; everything else goes
// through the ffmpeg collaborator.
var supportedFormats = map[string]bool{
	"wav":  true,
	"flac": true,
	"mp3":  true,
	"ogg":  true,
	"m4a":  true,
}

// DetectFormat validates that an upload is an audio media type and returns
// its normalized format name. Non-audio selections are rejected with
// ErrUnsupportedType.
func DetectFormat(filename, contentType string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if supportedFormats[ext] {
		return ext, nil
	}

	// Fall back on the declared MIME type for extension-less uploads.
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav", nil
	case "audio/flac", "audio/x-flac":
		return "flac", nil
	case "audio/mpeg", "audio/mp3":
		return "mp3", nil
	case "audio/ogg":
		return "ogg", nil
	case "audio/mp4", "audio/x-m4a":
		return "m4a", nil
	}

	return "", fmt.Errorf("%w: %q is not a supported audio file", ErrUnsupportedType, filename)
}

// DecoderFor returns the decoder responsible for the given format.
func DecoderFor(format, ffmpegPath string) Decoder {
	if format == "wav" {
		return &WAVDecoder{}
	}
	return &FFmpegDecoder{Path: ffmpegPath}
}

// WAVDecoder decodes WAV uploads natively, with no external tooling.
type WAVDecoder struct{}

// DecodeFile reads and parses a WAV file.
func (d *WAVDecoder) DecodeFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return DecodeWAV(data)
}

// FFmpegDecoder shells out to ffmpeg/ffprobe for compressed formats,
// producing raw s16le PCM at the file's own sample rate and channel count.
type FFmpegDecoder struct {
	Path string // ffmpeg binary; ffprobe is expected alongside it
}

// DecodeFile probes the stream parameters and decodes the file to PCM.
func (d *FFmpegDecoder) DecodeFile(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	sampleRate, channels, err := d.probe(path)
	if err != nil {
		return nil, err
	}

	out, err := exec.Command(d.ffmpeg(),
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "error",
		"pipe:1",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg decode %s: %v", ErrDecode, filepath.Base(path), err)
	}

	// Drop a trailing odd byte so the int16 conversion stays aligned.
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	frames := len(out) / 2 / channels
	src := &Source{
		Channels:   make([][]float64, channels),
		SampleRate: sampleRate,
	}
	for ch := range src.Channels {
		src.Channels[ch] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(out[(i*channels+ch)*2:]))
			src.Channels[ch][i] = float64(v) / 32768
		}
	}

	return src, nil
}

// probe asks ffprobe for the sample rate and channel count of the first
// audio stream.
func (d *FFmpegDecoder) probe(path string) (sampleRate, channels int, err error) {
	out, err := exec.Command(d.ffprobe(),
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "csv=p=0",
		path,
	).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: ffprobe %s: %v", ErrDecode, filepath.Base(path), err)
	}

	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected ffprobe output %q", ErrDecode, out)
	}
	sampleRate, err = strconv.Atoi(fields[0])
	if err != nil || sampleRate <= 0 {
		return 0, 0, fmt.Errorf("%w: bad sample rate %q", ErrDecode, fields[0])
	}
	channels, err = strconv.Atoi(fields[1])
	if err != nil || channels <= 0 {
		return 0, 0, fmt.Errorf("%w: bad channel count %q", ErrDecode, fields[1])
	}

	return sampleRate, channels, nil
}

func (d *FFmpegDecoder) ffmpeg() string {
	if d.Path != "" {
		return d.Path
	}
	return "ffmpeg"
}

func (d *FFmpegDecoder) ffprobe() string {
	if d.Path != "" {
		return filepath.Join(filepath.Dir(d.Path), "ffprobe")
	}
	return "ffprobe"
}
