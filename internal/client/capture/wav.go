package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// DefaultSampleRate is the target rate of WAVReducer.
const DefaultSampleRate = 22050

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var errNotWAV = errors.New("not a RIFF/WAVE stream")

type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// parseWAV returns the format chunk and the sample data. A data chunk that
// runs past the end of b is truncated to what is present.
func parseWAV(b []byte) (wavFormat, []byte, error) {
	var f wavFormat
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return f, nil, errNotWAV
	}
	haveFmt := false
	for off := 12; off+8 <= len(b); {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		end := body + size
		if end > len(b) || end < body {
			end = len(b)
		}
		switch id {
		case "fmt ":
			if end-body < 16 {
				return f, nil, errors.New("wav: short fmt chunk")
			}
			if err := binary.Read(bytes.NewReader(b[body:body+16]), binary.LittleEndian, &f); err != nil {
				return f, nil, fmt.Errorf("wav: %w", err)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return f, nil, errors.New("wav: data chunk before fmt chunk")
			}
			return f, b[body:end], nil
		}
		off = end + size%2
	}
	return f, nil, errors.New("wav: no data chunk")
}

// encodeWAV writes 16-bit mono PCM.
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, wavFormat{
		AudioFormat:   wavFormatPCM,
		Channels:      1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
	})
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	_ = binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// WAVReducer down-mixes PCM WAV audio to mono and resamples it linearly to
// SampleRate at 16 bits.
type WAVReducer struct {
	SampleRate int
}

// Reduce implements Reducer.
func (r WAVReducer) Reduce(ctx context.Context, audio []byte, _ string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	target := r.SampleRate
	if target <= 0 {
		target = DefaultSampleRate
	}

	f, data, err := parseWAV(audio)
	if err != nil {
		return nil, "", err
	}
	if f.AudioFormat != wavFormatPCM && f.AudioFormat != wavFormatExtensible {
		return nil, "", fmt.Errorf("wav: unsupported encoding %d", f.AudioFormat)
	}
	if f.Channels == 0 || f.SampleRate == 0 {
		return nil, "", errors.New("wav: invalid format")
	}

	mono, err := mixDown(f, data)
	if err != nil {
		return nil, "", err
	}
	return encodeWAV(resample(mono, int(f.SampleRate), target), target), "audio/wav", nil
}

// mixDown averages the channels of each frame into [-1, 1].
func mixDown(f wavFormat, data []byte) ([]float64, error) {
	bytesPerSample := int(f.BitsPerSample / 8)
	if f.BitsPerSample != 8 && f.BitsPerSample != 16 {
		return nil, fmt.Errorf("wav: unsupported bit depth %d", f.BitsPerSample)
	}
	channels := int(f.Channels)
	frameSize := bytesPerSample * channels
	frames := len(data) / frameSize

	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			off := i*frameSize + c*bytesPerSample
			if bytesPerSample == 1 {
				sum += (float64(data[off]) - 128) / 128
			} else {
				sum += float64(int16(binary.LittleEndian.Uint16(data[off:]))) / 32768
			}
		}
		out[i] = sum / float64(channels)
	}
	return out, nil
}

func resample(in []float64, from, to int) []int16 {
	if len(in) == 0 {
		return []int16{}
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	if n == 0 {
		n = 1
	}
	step := float64(from) / float64(to)
	out := make([]int16, n)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = toPCM16(in[len(in)-1])
			continue
		}
		frac := pos - float64(j)
		out[i] = toPCM16(in[j]*(1-frac) + in[j+1]*frac)
	}
	return out
}

func toPCM16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * 32767))
}
