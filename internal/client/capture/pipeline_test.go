package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atinyakov/VoiceNotes/internal/client/session"
	"github.com/atinyakov/VoiceNotes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream serves queued fragments; when the queue is drained it blocks
// like a live microphone, unless it was built with eof.
type fakeStream struct {
	frags  chan []byte
	closed atomic.Bool
	mime   string
}

func newFakeStream(eof bool, frags ...[]byte) *fakeStream {
	s := &fakeStream{frags: make(chan []byte, len(frags)), mime: "audio/webm"}
	for _, f := range frags {
		s.frags <- f
	}
	if eof {
		close(s.frags)
	}
	return s
}

func (s *fakeStream) ReadFragment(ctx context.Context) ([]byte, error) {
	select {
	case f, ok := <-s.frags:
		if !ok {
			return nil, io.EOF
		}
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
func (s *fakeStream) MimeType() string { return s.mime }
func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeMic struct {
	stream *fakeStream
	err    error
}

func (m *fakeMic) Open(ctx context.Context, timeslice time.Duration) (Stream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

type fakeCreator struct {
	calls atomic.Int32
	mu    sync.Mutex
	got   models.Note
	err   error
}

func (c *fakeCreator) CreateNote(ctx context.Context, n models.Note) (*models.Note, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.got = n
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	n.ID = "created"
	return &n, nil
}

type fakeSessions struct{ ok bool }

func (f fakeSessions) Current() (session.Session, bool) {
	if !f.ok {
		return session.Session{}, false
	}
	return session.Session{Token: "tok"}, true
}

type recordingNotifier struct {
	mu        sync.Mutex
	alerts    []string
	redirects int
}

func (n *recordingNotifier) Alert(msg string) {
	n.mu.Lock()
	n.alerts = append(n.alerts, msg)
	n.mu.Unlock()
}
func (n *recordingNotifier) RedirectToLogin() {
	n.mu.Lock()
	n.redirects++
	n.mu.Unlock()
}

type fakeReducer struct {
	calls atomic.Int32
	out   []byte
	err   error
	panic bool
}

func (r *fakeReducer) Reduce(ctx context.Context, audio []byte, mimeType string) ([]byte, string, error) {
	r.calls.Add(1)
	if r.panic {
		panic("codec exploded")
	}
	return r.out, "audio/wav", r.err
}

type harness struct {
	stream   *fakeStream
	creator  *fakeCreator
	notifier *recordingNotifier
	pipeline *Pipeline
}

func newHarness(t *testing.T, stream *fakeStream, cfg Config, mutate func(*Deps)) *harness {
	t.Helper()
	h := &harness{stream: stream, creator: &fakeCreator{}, notifier: &recordingNotifier{}}
	deps := Deps{
		Microphone: &fakeMic{stream: stream},
		Creator:    h.creator,
		Sessions:   fakeSessions{ok: true},
		Notifier:   h.notifier,
	}
	if mutate != nil {
		mutate(&deps)
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Date(2024, 6, 1, 14, 5, 9, 0, time.UTC) }
	}
	h.pipeline = NewPipeline(deps, cfg)
	return h
}

// drained waits until the reader has taken every queued fragment.
func (h *harness) drained(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return len(h.stream.frags) == 0 }, 2*time.Second, time.Millisecond)
}

func decodeAudio(t *testing.T, dataURL string) (string, []byte) {
	t.Helper()
	meta, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	require.True(t, ok, "not a data URL: %q", dataURL)
	b, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	return strings.TrimSuffix(meta, ";base64"), b
}

func TestPipeline_ManualStop(t *testing.T) {
	h := newHarness(t, newFakeStream(false, []byte("ab"), []byte("cd")), Config{}, nil)
	ctx := context.Background()

	require.NoError(t, h.pipeline.Start(ctx))
	assert.Equal(t, Recording, h.pipeline.State())
	h.drained(t)

	note, err := h.pipeline.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "created", note.ID)
	assert.Equal(t, Idle, h.pipeline.State())
	assert.True(t, h.stream.closed.Load(), "stream must be released")
	assert.Equal(t, int32(1), h.creator.calls.Load())

	got := h.creator.got
	assert.Equal(t, models.RecordingNote, got.Type)
	assert.Equal(t, "Voice Note - 2:05:09 PM", got.Title)
	assert.Equal(t, "2:05:09 PM", got.Time)
	assert.Equal(t, DefaultPlaceholder, got.Content)
	assert.Equal(t, "0:00", got.Duration)
	assert.Equal(t, models.ImageList{}, got.Images)
	mime, audio := decodeAudio(t, got.AudioData)
	assert.Equal(t, "audio/webm", mime)
	assert.Equal(t, "abcd", string(audio))
}

func TestPipeline_CeilingThenLateStop(t *testing.T) {
	h := newHarness(t, newFakeStream(false, []byte("x")), Config{MaxDuration: 30 * time.Millisecond, TickInterval: 5 * time.Millisecond}, nil)
	ctx := context.Background()

	require.NoError(t, h.pipeline.Start(ctx))
	var res Result
	select {
	case res = <-h.pipeline.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("ceiling never fired")
	}
	require.NoError(t, res.Err)

	note, err := h.pipeline.Stop(ctx)
	require.NoError(t, err)
	assert.Same(t, res.Note, note)
	assert.Equal(t, int32(1), h.creator.calls.Load(), "exactly one submission per recording")
	assert.NotEqual(t, "0:00", h.creator.got.Duration)
	assert.True(t, h.stream.closed.Load())
}

func TestPipeline_ConcurrentStops(t *testing.T) {
	h := newHarness(t, newFakeStream(false), Config{}, nil)
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	var wg sync.WaitGroup
	notes := make([]*models.Note, 8)
	for i := range notes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := h.pipeline.Stop(ctx)
			assert.NoError(t, err)
			notes[i] = n
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), h.creator.calls.Load())
	for _, n := range notes {
		assert.Same(t, notes[0], n)
	}
}

func TestPipeline_StartTwice(t *testing.T) {
	h := newHarness(t, newFakeStream(false), Config{}, nil)
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))
	assert.ErrorIs(t, h.pipeline.Start(ctx), ErrAlreadyRecording)
	_, err := h.pipeline.Stop(ctx)
	require.NoError(t, err)
}

func TestPipeline_StopWithoutRecording(t *testing.T) {
	h := newHarness(t, newFakeStream(false), Config{}, nil)
	_, err := h.pipeline.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
	assert.ErrorIs(t, (<-h.pipeline.Done()).Err, ErrNotRecording)
}

func TestPipeline_DeviceError(t *testing.T) {
	h := newHarness(t, nil, Config{}, func(d *Deps) {
		d.Microphone = &fakeMic{err: errors.New("permission denied")}
	})
	err := h.pipeline.Start(context.Background())
	assert.ErrorIs(t, err, models.ErrDevice)
	assert.Equal(t, Idle, h.pipeline.State())
	assert.Zero(t, h.creator.calls.Load())
}

func TestPipeline_RequiresSession(t *testing.T) {
	h := newHarness(t, newFakeStream(false, []byte("a")), Config{}, func(d *Deps) {
		d.Sessions = fakeSessions{ok: false}
	})
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	_, err := h.pipeline.Stop(ctx)
	assert.ErrorIs(t, err, models.ErrAuthRequired)
	assert.Zero(t, h.creator.calls.Load(), "nothing may be submitted without a session")
	assert.Equal(t, 1, h.notifier.redirects)
	assert.True(t, h.stream.closed.Load())
}

func TestPipeline_UnauthorizedRedirects(t *testing.T) {
	h := newHarness(t, newFakeStream(false), Config{}, nil)
	h.creator.err = models.ErrUnauthorized
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	_, err := h.pipeline.Stop(ctx)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, 1, h.notifier.redirects)
	require.Len(t, h.notifier.alerts, 1)
	assert.Contains(t, h.notifier.alerts[0], "session has expired")
}

func TestPipeline_OtherFailureAlertsOnly(t *testing.T) {
	h := newHarness(t, newFakeStream(false), Config{}, nil)
	h.creator.err = models.ErrPersistence
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	_, err := h.pipeline.Stop(ctx)
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Zero(t, h.notifier.redirects)
	assert.Len(t, h.notifier.alerts, 1)
	assert.Equal(t, Idle, h.pipeline.State())
}

func TestPipeline_EndOfStreamStops(t *testing.T) {
	h := newHarness(t, newFakeStream(true, []byte("12"), []byte("34")), Config{}, nil)
	require.NoError(t, h.pipeline.Start(context.Background()))

	res := <-h.pipeline.Done()
	require.NoError(t, res.Err)
	_, audio := decodeAudio(t, h.creator.got.AudioData)
	assert.Equal(t, "1234", string(audio))
}

func TestPipeline_CancelledContextStillSubmits(t *testing.T) {
	h := newHarness(t, newFakeStream(false, []byte("z")), Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.pipeline.Start(ctx))
	h.drained(t)
	cancel()

	res := <-h.pipeline.Done()
	require.NoError(t, res.Err)
	assert.Equal(t, int32(1), h.creator.calls.Load())
}

type echoTranscriber struct{}

func (echoTranscriber) Start(ctx context.Context, emit func(string)) (TranscriptionSession, error) {
	return &echoSession{emit: emit}, nil
}

type echoSession struct{ emit func(string) }

func (s *echoSession) Feed(b []byte) { s.emit(" " + string(b) + " ") }
func (s *echoSession) Stop() error   { return nil }

type brokenTranscriber struct{}

func (brokenTranscriber) Start(context.Context, func(string)) (TranscriptionSession, error) {
	return nil, errors.New("speech service unreachable")
}

func TestPipeline_Transcript(t *testing.T) {
	h := newHarness(t, newFakeStream(true, []byte("hello"), []byte("world")), Config{}, func(d *Deps) {
		d.Transcriber = echoTranscriber{}
	})
	require.NoError(t, h.pipeline.Start(context.Background()))
	require.NoError(t, (<-h.pipeline.Done()).Err)
	assert.Equal(t, "hello world", h.creator.got.Content)
}

func TestPipeline_TranscriberFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, newFakeStream(true, []byte("a")), Config{}, func(d *Deps) {
		d.Transcriber = brokenTranscriber{}
	})
	require.NoError(t, h.pipeline.Start(context.Background()))
	require.NoError(t, (<-h.pipeline.Done()).Err)
	assert.Equal(t, DefaultPlaceholder, h.creator.got.Content)
}

func TestPipeline_Compression(t *testing.T) {
	small := []byte("0123456789")
	large := []byte(strings.Repeat("x", 64))

	tests := []struct {
		name      string
		payload   []byte
		reducer   *fakeReducer
		wantAudio string
		wantMime  string
		wantCalls int32
	}{
		{"below threshold passes through", small, &fakeReducer{out: []byte("r")}, string(small), "audio/webm", 0},
		{"reduced above threshold", large, &fakeReducer{out: []byte("r")}, "r", "audio/wav", 1},
		{"reducer error falls back", large, &fakeReducer{err: errors.New("no codec")}, string(large), "audio/webm", 1},
		{"empty output falls back", large, &fakeReducer{}, string(large), "audio/webm", 1},
		{"reducer panic falls back", large, &fakeReducer{panic: true}, string(large), "audio/webm", 1},
		{"growing output falls back", large, &fakeReducer{out: []byte(strings.Repeat("z", 128))}, string(large), "audio/webm", 1},
		{"same size output falls back", large, &fakeReducer{out: []byte(strings.Repeat("z", 64))}, string(large), "audio/webm", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, newFakeStream(true, tt.payload), Config{CompressThreshold: 32}, func(d *Deps) {
				d.Reducer = tt.reducer
			})
			require.NoError(t, h.pipeline.Start(context.Background()))
			require.NoError(t, (<-h.pipeline.Done()).Err)

			mime, audio := decodeAudio(t, h.creator.got.AudioData)
			assert.Equal(t, tt.wantAudio, string(audio))
			assert.Equal(t, tt.wantMime, mime)
			assert.Equal(t, tt.wantCalls, tt.reducer.calls.Load())
		})
	}
}

func TestPipeline_WAVReducerNeverGrowsLowRateAudio(t *testing.T) {
	// mono 22050 Hz output is larger than 8 kHz stereo input of the same length
	in := stereoSine(8000, 2000)
	h := newHarness(t, newFakeStream(true, in), Config{CompressThreshold: 1000}, func(d *Deps) {
		d.Reducer = WAVReducer{}
	})
	require.NoError(t, h.pipeline.Start(context.Background()))
	require.NoError(t, (<-h.pipeline.Done()).Err)

	mime, audio := decodeAudio(t, h.creator.got.AudioData)
	assert.Equal(t, in, audio)
	assert.Equal(t, "audio/webm", mime)
}

func TestPipeline_DefaultReducerKeepsLargeAudio(t *testing.T) {
	large := []byte(strings.Repeat("y", 40))
	h := newHarness(t, newFakeStream(true, large), Config{CompressThreshold: 8}, nil)
	require.NoError(t, h.pipeline.Start(context.Background()))
	require.NoError(t, (<-h.pipeline.Done()).Err)
	_, audio := decodeAudio(t, h.creator.got.AudioData)
	assert.Equal(t, large, audio)
}

func TestPipeline_RestartAfterFinish(t *testing.T) {
	first := newFakeStream(true, []byte("1"))
	h := newHarness(t, first, Config{}, nil)
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))
	require.NoError(t, (<-h.pipeline.Done()).Err)

	h.pipeline.deps.Microphone = &fakeMic{stream: newFakeStream(true, []byte("2"))}
	require.NoError(t, h.pipeline.Start(ctx))
	require.NoError(t, (<-h.pipeline.Done()).Err)
	assert.Equal(t, int32(2), h.creator.calls.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "recording", Recording.String())
	assert.Equal(t, "stopping", Stopping.String())
}

// slowMic blocks in Open until release is closed.
type slowMic struct {
	entered chan struct{}
	release chan struct{}
	stream  *fakeStream
}

func (m *slowMic) Open(ctx context.Context, timeslice time.Duration) (Stream, error) {
	close(m.entered)
	<-m.release
	return m.stream, nil
}

func TestPipeline_OpenDoesNotHoldLock(t *testing.T) {
	mic := &slowMic{entered: make(chan struct{}), release: make(chan struct{}), stream: newFakeStream(true, []byte("a"))}
	h := newHarness(t, mic.stream, Config{}, func(d *Deps) { d.Microphone = mic })

	started := make(chan error, 1)
	go func() { started <- h.pipeline.Start(context.Background()) }()
	<-mic.entered

	stateCh := make(chan State, 1)
	go func() { stateCh <- h.pipeline.State() }()
	select {
	case s := <-stateCh:
		assert.Equal(t, Idle, s)
	case <-time.After(time.Second):
		t.Fatal("State blocked while the microphone was opening")
	}
	assert.ErrorIs(t, h.pipeline.Start(context.Background()), ErrAlreadyRecording)

	close(mic.release)
	require.NoError(t, <-started)
	require.NoError(t, (<-h.pipeline.Done()).Err)
}

type panickingCreator struct{}

func (panickingCreator) CreateNote(context.Context, models.Note) (*models.Note, error) {
	panic("transport exploded")
}

func TestPipeline_SubmissionPanicReturnsToIdle(t *testing.T) {
	h := newHarness(t, newFakeStream(true, []byte("a")), Config{}, func(d *Deps) {
		d.Creator = panickingCreator{}
	})
	ctx := context.Background()
	require.NoError(t, h.pipeline.Start(ctx))

	res := <-h.pipeline.Done()
	require.Error(t, res.Err)
	assert.Nil(t, res.Note)
	assert.Equal(t, Idle, h.pipeline.State())

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err := h.pipeline.Stop(stopCtx)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)

	h.pipeline.deps.Microphone = &fakeMic{stream: newFakeStream(true, []byte("b"))}
	h.pipeline.deps.Creator = h.creator
	require.NoError(t, h.pipeline.Start(ctx))
	require.NoError(t, (<-h.pipeline.Done()).Err)
}
