package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Output is always 16-bit linear PCM; input WAVs may also be 8-bit unsigned.
const (
	wavFormatPCM   = 1
	OutputBitDepth = 16
)

// EncodeWAV serializes src as a canonical RIFF/WAVE file: 44-byte header,
// 16-bit little-endian PCM, interleaved frames. The result is independently
// playable without reference to the original upload.
func EncodeWAV(src *Source) ([]byte, error) {
	if src == nil || src.NumChannels() == 0 || src.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: no decoded audio to encode", ErrDecode)
	}

	channels := src.NumChannels()
	frames := src.Frames()
	bytesPerFrame := channels * 2
	dataLen := frames * bytesPerFrame

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(src.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(src.SampleRate*bytesPerFrame)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(bytesPerFrame))                // block align
	binary.Write(buf, binary.LittleEndian, uint16(OutputBitDepth))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))

	frame := make([]byte, bytesPerFrame)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(frame[ch*2:], uint16(sampleToInt16(src.Channels[ch][i])))
		}
		buf.Write(frame)
	}

	return buf.Bytes(), nil
}

// DecodeWAV parses a RIFF/WAVE file holding 8-bit or 16-bit linear PCM into
// a Source. Anything malformed or compressed is rejected with ErrDecode.
func DecodeWAV(data []byte) (*Source, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrDecode)
	}

	var (
		sampleRate int
		channels   int
		bitDepth   int
		haveFmt    bool
		pcm        []byte
		havePCM    bool
	)

	// Walk the chunk list; chunks are word-aligned.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			return nil, fmt.Errorf("%w: truncated %q chunk", ErrDecode, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too short", ErrDecode)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != wavFormatPCM {
				return nil, fmt.Errorf("%w: unsupported wav format %d", ErrDecode, format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
			havePCM = true
		}

		pos = body + size
		if size%2 == 1 {
			pos++ // padding byte
		}
	}

	if !haveFmt || !havePCM {
		return nil, fmt.Errorf("%w: missing fmt or data chunk", ErrDecode)
	}
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid fmt chunk", ErrDecode)
	}

	bytesPerSample := bitDepth / 8
	switch bitDepth {
	case 8, 16:
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bitDepth)
	}

	frames := len(pcm) / (bytesPerSample * channels)
	src := &Source{
		Channels:   make([][]float64, channels),
		SampleRate: sampleRate,
	}
	for ch := range src.Channels {
		src.Channels[ch] = make([]float64, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * bytesPerSample
			switch bitDepth {
			case 8:
				src.Channels[ch][i] = (float64(pcm[off]) - 128) / 128
			case 16:
				v := int16(binary.LittleEndian.Uint16(pcm[off : off+2]))
				src.Channels[ch][i] = float64(v) / 32768
			}
		}
	}

	return src, nil
}

// sampleToInt16 converts a [-1, 1] float sample to signed 16-bit, clipping
// out-of-range values instead of wrapping.
func sampleToInt16(v float64) int16 {
	scaled := math.Round(v * 32767)
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}
