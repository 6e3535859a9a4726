package wavcodec

import (
	"bytes"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
)

func TestOutputSizeMatchesContract(t *testing.T) {
	samples := make([]float32, 100*2) // 100 stereo frames
	var buf bytes.Buffer
	err := Write(&buf, samples, 48000, 2, FormatPCM16)
	assert.NoError(t, err)
	assert.Equal(t, 44+100*2*2, buf.Len())
}

func TestPCM16RoundTripsThroughGoAudioDecoder(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 0.25}
	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, samples, 44100, 1, FormatPCM16))

	dec := wav.NewDecoder(bytes.NewReader(buf.Bytes()))
	pcmBuf, err := dec.FullPCMBuffer()
	assert.NoError(t, err)
	assert.Equal(t, len(samples), len(pcmBuf.Data))
	for i, s := range samples {
		assert.InDelta(t, float64(s), float64(pcmBuf.Data[i])/32767, 1.0/32767)
	}
}

func TestRejectsMismatchedChannelCount(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []float32{0, 1, 2}, 48000, 2, FormatPCM16)
	assert.Error(t, err)
}

func TestFloat32FormatUsesFormatCodeThree(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, []float32{0.1, 0.2}, 48000, 1, FormatFloat32))
	data := buf.Bytes()
	assert.Equal(t, byte(3), data[20])
}

func TestPCM24PacksThreeBytesPerSample(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Write(&buf, []float32{1, -1}, 48000, 1, FormatPCM24))
	assert.Equal(t, 44+2*3, buf.Len())
}
