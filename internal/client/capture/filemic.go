package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultChunkSize = 16 << 10

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// FileMicrophone plays an audio file as if it were a live microphone,
// releasing one timeslice of audio per timeslice of wall time.
type FileMicrophone struct {
	Path string
	// ChunkSize overrides the fragment size. By default a WAV file yields
	// one timeslice worth of samples and other files 16 KiB.
	ChunkSize int
}

// Open implements Microphone.
func (m FileMicrophone) Open(ctx context.Context, timeslice time.Duration) (Stream, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, err
	}
	head = head[:n]
	if n == 0 {
		f.Close()
		return nil, fmt.Errorf("%s: empty audio file", m.Path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	chunk := m.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
		if wf, _, err := parseWAV(head); err == nil && wf.ByteRate > 0 {
			if c := int(int64(wf.ByteRate) * int64(timeslice) / int64(time.Second)); c > 0 {
				chunk = c
			}
		}
	}

	return &fileStream{
		f:         f,
		chunk:     chunk,
		timeslice: timeslice,
		mimeType:  detectAudioType(m.Path, head),
	}, nil
}

func detectAudioType(path string, head []byte) string {
	if t, ok := audioTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return http.DetectContentType(head)
}

type fileStream struct {
	f         *os.File
	chunk     int
	timeslice time.Duration
	mimeType  string
	started   bool
}

func (s *fileStream) ReadFragment(ctx context.Context) ([]byte, error) {
	if s.started {
		t := time.NewTimer(s.timeslice)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	s.started = true

	buf := make([]byte, s.chunk)
	n, err := io.ReadFull(s.f, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *fileStream) MimeType() string { return s.mimeType }

func (s *fileStream) Close() error { return s.f.Close() }
