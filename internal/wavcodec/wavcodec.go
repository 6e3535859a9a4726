// Package wavcodec implements C15: a canonical RIFF/WAVE writer for
// 16/24/32-bit PCM and 32-bit IEEE float, little-endian throughout. The
// byte layout is written by hand rather than through go-audio/wav
// because spec.md §4.15 pins an exact chunk and size contract (24-bit
// packs three bytes per sample, output size is exactly
// 44 + frames*channels*bytes_per_sample); go-audio/wav's encoder adds
// its own chunk set and doesn't expose that exact guarantee, so it's
// used only for round-trip verification in tests, not for writing.
package wavcodec

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/schollz/audioforge/internal/types"
)

// Format selects the sample encoding (spec.md C15).
type Format int

const (
	FormatPCM16 Format = iota
	FormatPCM24
	FormatPCM32
	FormatFloat32
)

func (f Format) bytesPerSample() int {
	switch f {
	case FormatPCM16:
		return 2
	case FormatPCM24:
		return 3
	case FormatPCM32, FormatFloat32:
		return 4
	default:
		return 2
	}
}

func (f Format) audioFormatCode() uint16 {
	if f == FormatFloat32 {
		return 3 // IEEE float
	}
	return 1 // PCM
}

// Write encodes interleaved float32 samples (range [-1, 1]) as a
// canonical RIFF/WAVE stream to w. samples length must be a multiple of
// channels.
func Write(w io.Writer, samples []float32, sampleRate, channels int, format Format) error {
	if channels <= 0 {
		return types.NewError(types.InvalidParameter, "wavcodec.Write", "channels must be positive")
	}
	if len(samples)%channels != 0 {
		return types.NewError(types.InvalidParameter, "wavcodec.Write", "sample count not a multiple of channel count")
	}

	bytesPerSample := format.bytesPerSample()
	frameCount := len(samples) / channels
	dataSize := frameCount * channels * bytesPerSample
	blockAlign := channels * bytesPerSample
	byteRate := sampleRate * blockAlign
	riffSize := 36 + dataSize

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(riffSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], format.audioFormatCode())
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(bytesPerSample*8))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))

	if _, err := w.Write(hdr[:]); err != nil {
		return types.Wrap(types.IOFailure, "wavcodec.Write", "header write failed", err)
	}

	buf := make([]byte, dataSize)
	off := 0
	for _, s := range samples {
		switch format {
		case FormatPCM16:
			v := floatToInt16(s)
			binary.LittleEndian.PutUint16(buf[off:], uint16(v))
		case FormatPCM24:
			v := floatToInt32Range(s, 1<<23-1)
			buf[off] = byte(v)
			buf[off+1] = byte(v >> 8)
			buf[off+2] = byte(v >> 16)
		case FormatPCM32:
			v := floatToInt32Range(s, 1<<31-1)
			binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		case FormatFloat32:
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(s))
		}
		off += bytesPerSample
	}

	if _, err := w.Write(buf); err != nil {
		return types.Wrap(types.IOFailure, "wavcodec.Write", "data write failed", err)
	}
	return nil
}

func floatToInt16(s float32) int16 {
	v := clampUnit(s) * 32767
	return int16(math.Round(float64(v)))
}

func floatToInt32Range(s float32, maxVal int32) int32 {
	v := clampUnit(s) * float32(maxVal)
	return int32(math.Round(float64(v)))
}

func clampUnit(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
