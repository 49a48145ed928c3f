// Package capture records a voice note: it reads audio from a microphone
// while a timer runs, collects a best-effort transcript, optionally shrinks
// the audio, and submits the result as a recording note.
package capture

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/VoiceNotes/internal/client/session"
	"github.com/atinyakov/VoiceNotes/internal/models"
)

var (
	// ErrAlreadyRecording is returned by Start when a recording is in progress.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording is returned by Stop when nothing was ever recorded.
	ErrNotRecording = errors.New("not recording")
	// ErrReducerUnavailable is returned by NopReducer.
	ErrReducerUnavailable = errors.New("audio reduction unavailable")
)

// State is the pipeline lifecycle.
type State int

const (
	Idle State = iota
	Recording
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// Stream is an open microphone.
type Stream interface {
	// ReadFragment blocks until the next timeslice of audio is available.
	// It returns io.EOF when the source is exhausted.
	ReadFragment(ctx context.Context) ([]byte, error)
	// MimeType describes the concatenated fragments.
	MimeType() string
	Close() error
}

// Microphone opens audio streams.
type Microphone interface {
	Open(ctx context.Context, timeslice time.Duration) (Stream, error)
}

// TranscriptionSession receives audio while the recording runs.
type TranscriptionSession interface {
	Feed(fragment []byte)
	Stop() error
}

// Transcriber starts speech recognition. emit is called once per finalized segment.
type Transcriber interface {
	Start(ctx context.Context, emit func(segment string)) (TranscriptionSession, error)
}

// Reducer shrinks audio. It returns the new payload and its MIME type.
type Reducer interface {
	Reduce(ctx context.Context, audio []byte, mimeType string) ([]byte, string, error)
}

// Notifier surfaces outcomes to the user.
type Notifier interface {
	Alert(msg string)
	RedirectToLogin()
}

// SessionSource reports whether the user is logged in.
type SessionSource interface {
	Current() (session.Session, bool)
}

// NoteCreator submits the finished note.
type NoteCreator interface {
	CreateNote(ctx context.Context, n models.Note) (*models.Note, error)
}

// NopTranscriber produces no transcript.
type NopTranscriber struct{}

func (NopTranscriber) Start(context.Context, func(string)) (TranscriptionSession, error) {
	return nopSession{}, nil
}

type nopSession struct{}

func (nopSession) Feed([]byte) {}
func (nopSession) Stop() error { return nil }

// NopReducer always fails, so large audio is submitted unchanged.
type NopReducer struct{}

func (NopReducer) Reduce(context.Context, []byte, string) ([]byte, string, error) {
	return nil, "", ErrReducerUnavailable
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Alert(string)     {}
func (NopNotifier) RedirectToLogin() {}

// Config tunes the pipeline. Zero fields take the defaults below.
type Config struct {
	// MaxDuration is the hard recording ceiling.
	MaxDuration time.Duration
	// TickInterval advances the elapsed-seconds counter.
	TickInterval time.Duration
	// Timeslice is the fragment length requested from the microphone.
	Timeslice time.Duration
	// CompressThreshold is the largest payload submitted without reduction.
	CompressThreshold int
	// Placeholder is the content used when no transcript was produced.
	Placeholder string
	// Now is the clock used for the title and time label.
	Now func() time.Time
}

const (
	DefaultMaxDuration       = 60 * time.Second
	DefaultTickInterval      = time.Second
	DefaultTimeslice         = time.Second
	DefaultCompressThreshold = 5 << 20
	DefaultPlaceholder       = "No transcription available"
)

func (c Config) withDefaults() Config {
	if c.MaxDuration <= 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Timeslice <= 0 {
		c.Timeslice = DefaultTimeslice
	}
	if c.CompressThreshold <= 0 {
		c.CompressThreshold = DefaultCompressThreshold
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Result is the outcome of one recording.
type Result struct {
	Note *models.Note
	Err  error
}
