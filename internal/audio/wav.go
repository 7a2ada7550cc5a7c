package audio

import (
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// EncodeWAV assembles raw PCM samples into a complete WAV container.
// The declared header sizes always match the payload exactly, including the
// zero-sample case; the remote service parses the container strictly.
func EncodeWAV(samples []int16, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, bitDepth, channels, 1)

	intData := make([]int, len(samples))
	for i, s := range samples {
		intData[i] = int(s)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           intData,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write WAV data: %w", err)
	}

	// Close finalizes the RIFF and data chunk sizes in the header
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize WAV container: %w", err)
	}

	return ws.Bytes(), nil
}

// Duration returns the playback duration of sample count worth of PCM at the
// given stream parameters.
func Duration(numSamples, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := numSamples / channels
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// memWriteSeeker is an in-memory io.WriteSeeker. The WAV encoder needs to
// seek back to patch chunk sizes into the header after the payload is
// written, which bytes.Buffer cannot do.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}

	if pos < 0 {
		return 0, fmt.Errorf("negative seek position: %d", pos)
	}

	m.pos = int(pos)
	return pos, nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return m.buf
}
