package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/VoiceNotes/internal/models"
	"go.uber.org/zap"
)

// Deps are the collaborators of a Pipeline. Microphone, Creator and Sessions
// are required; the others fall back to no-op implementations.
type Deps struct {
	Microphone  Microphone
	Creator     NoteCreator
	Sessions    SessionSource
	Transcriber Transcriber
	Reducer     Reducer
	Notifier    Notifier
	Log         *zap.Logger
}

// Pipeline drives one recording at a time through Idle → Recording →
// Stopping → Idle. It is safe for concurrent use.
type Pipeline struct {
	deps Deps
	cfg  Config

	mu      sync.Mutex
	state   State
	opening bool
	rec     *recording
}

// NewPipeline returns an idle pipeline.
func NewPipeline(deps Deps, cfg Config) *Pipeline {
	if deps.Transcriber == nil {
		deps.Transcriber = NopTranscriber{}
	}
	if deps.Reducer == nil {
		deps.Reducer = NopReducer{}
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Pipeline{deps: deps, cfg: cfg.withDefaults()}
}

type recording struct {
	stream    Stream
	mimeType  string
	startedAt time.Time

	stopReq  chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	result   Result

	mu        sync.Mutex
	fragments [][]byte
	segments  []string
	elapsed   int
}

func (r *recording) requestStop() {
	r.stopOnce.Do(func() { close(r.stopReq) })
}

func (r *recording) addFragment(b []byte) {
	r.mu.Lock()
	r.fragments = append(r.fragments, b)
	r.mu.Unlock()
}

func (r *recording) addSegment(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	r.mu.Lock()
	r.segments = append(r.segments, s)
	r.mu.Unlock()
}

func (r *recording) tick() {
	r.mu.Lock()
	r.elapsed++
	r.mu.Unlock()
}

func (r *recording) snapshot() (audio []byte, transcript string, elapsed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := 0
	for _, f := range r.fragments {
		size += len(f)
	}
	audio = make([]byte, 0, size)
	for _, f := range r.fragments {
		audio = append(audio, f...)
	}
	return audio, strings.Join(r.segments, " "), r.elapsed
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Elapsed returns the seconds counted by the most recent recording.
func (p *Pipeline) Elapsed() int {
	p.mu.Lock()
	rec := p.rec
	p.mu.Unlock()
	if rec == nil {
		return 0
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.elapsed
}

// Start opens the microphone and begins recording. The recording ends on
// Stop, at the MaxDuration ceiling, when the stream is exhausted, or when
// ctx is cancelled; whichever comes first triggers the single submission.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Idle || p.opening {
		p.mu.Unlock()
		return ErrAlreadyRecording
	}
	p.opening = true
	p.mu.Unlock()

	// the device may block on a permission prompt; keep the lock free meanwhile
	stream, err := p.deps.Microphone.Open(ctx, p.cfg.Timeslice)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.opening = false
	if err != nil {
		return fmt.Errorf("open microphone: %w: %w", models.ErrDevice, err)
	}

	rec := &recording{
		stream:    stream,
		mimeType:  stream.MimeType(),
		startedAt: p.cfg.Now(),
		stopReq:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	p.rec = rec
	p.state = Recording
	go p.run(ctx, rec)
	return nil
}

// Stop ends the recording and waits for its submission. Calls after the
// first, including calls after an automatic stop, return the same outcome.
func (p *Pipeline) Stop(ctx context.Context) (*models.Note, error) {
	p.mu.Lock()
	rec := p.rec
	p.mu.Unlock()
	if rec == nil {
		return nil, ErrNotRecording
	}

	rec.requestStop()
	select {
	case <-rec.done:
		return rec.result.Note, rec.result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done yields the Result of the most recent recording once it is finalized.
func (p *Pipeline) Done() <-chan Result {
	ch := make(chan Result, 1)
	p.mu.Lock()
	rec := p.rec
	p.mu.Unlock()
	if rec == nil {
		ch <- Result{Err: ErrNotRecording}
		close(ch)
		return ch
	}
	go func() {
		<-rec.done
		ch <- rec.result
		close(ch)
	}()
	return ch
}

func (p *Pipeline) run(parent context.Context, rec *recording) {
	log := p.deps.Log
	defer func() {
		if r := recover(); r != nil {
			log.Error("voice note submission panicked", zap.Any("panic", r))
			rec.result = Result{Err: fmt.Errorf("submit voice note: %v", r)}
		}
		p.mu.Lock()
		p.state = Idle
		p.mu.Unlock()
		close(rec.done)
	}()
	recCtx, cancel := context.WithCancel(parent)
	defer cancel()

	var closeOnce sync.Once
	closeStream := func() {
		closeOnce.Do(func() {
			if err := rec.stream.Close(); err != nil {
				log.Warn("failed to release microphone", zap.Error(err))
			}
		})
	}
	defer closeStream()

	ts, err := p.deps.Transcriber.Start(recCtx, rec.addSegment)
	if err != nil {
		log.Warn("transcription unavailable", zap.Error(err))
		ts = nopSession{}
	}

	readerDone := make(chan struct{})
	go p.read(recCtx, rec, ts, readerDone)

	ticker := time.NewTicker(p.cfg.TickInterval)
	ceiling := time.NewTimer(p.cfg.MaxDuration)
	var reason string
loop:
	for {
		select {
		case <-ticker.C:
			rec.tick()
		case <-ceiling.C:
			reason = "max duration reached"
			break loop
		case <-rec.stopReq:
			reason = "stopped"
			break loop
		case <-readerDone:
			reason = "end of stream"
			break loop
		case <-parent.Done():
			reason = "cancelled"
			break loop
		}
	}

	p.mu.Lock()
	p.state = Stopping
	p.mu.Unlock()
	log.Debug("recording stopping", zap.String("reason", reason))

	ticker.Stop()
	ceiling.Stop()
	cancel()
	closeStream()
	<-readerDone
	if err := ts.Stop(); err != nil {
		log.Warn("failed to stop transcription", zap.Error(err))
	}

	rec.result = p.finalize(context.WithoutCancel(parent), rec)
}

func (p *Pipeline) read(ctx context.Context, rec *recording, ts TranscriptionSession, done chan<- struct{}) {
	defer close(done)
	for {
		frag, err := rec.stream.ReadFragment(ctx)
		if len(frag) > 0 {
			rec.addFragment(frag)
			ts.Feed(frag)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				p.deps.Log.Warn("microphone read failed", zap.Error(err))
			}
			return
		}
	}
}

func (p *Pipeline) finalize(ctx context.Context, rec *recording) Result {
	if _, ok := p.deps.Sessions.Current(); !ok {
		p.deps.Notifier.RedirectToLogin()
		return Result{Err: models.ErrAuthRequired}
	}

	audio, transcript, elapsed := rec.snapshot()
	audio, mimeType := p.compress(ctx, audio, rec.mimeType)
	if transcript == "" {
		transcript = p.cfg.Placeholder
	}
	label := models.TimeLabel(rec.startedAt)
	note := models.Note{
		Title:     "Voice Note - " + label,
		Content:   transcript,
		Type:      models.RecordingNote,
		Time:      label,
		Duration:  models.DurationLabel(elapsed),
		AudioData: EncodeDataURL(mimeType, audio),
		Images:    models.ImageList{},
	}

	created, err := p.deps.Creator.CreateNote(ctx, note)
	if err != nil {
		p.deps.Log.Warn("failed to save voice note", zap.Error(err))
		if errors.Is(err, models.ErrUnauthorized) {
			p.deps.Notifier.Alert("Your session has expired. Please log in again.")
			p.deps.Notifier.RedirectToLogin()
		} else {
			p.deps.Notifier.Alert("Failed to save voice note: " + err.Error())
		}
		return Result{Err: err}
	}
	return Result{Note: created}
}

// compress passes small payloads through untouched and never fails: any
// reducer error, panic, empty output or output that is not smaller keeps
// the original audio.
func (p *Pipeline) compress(ctx context.Context, audio []byte, mimeType string) (out []byte, outType string) {
	if len(audio) <= p.cfg.CompressThreshold {
		return audio, mimeType
	}
	log := p.deps.Log
	defer func() {
		if r := recover(); r != nil {
			log.Warn("audio reducer panicked", zap.Any("panic", r))
			out, outType = audio, mimeType
		}
	}()

	reduced, reducedType, err := p.deps.Reducer.Reduce(ctx, audio, mimeType)
	if err != nil {
		log.Warn("audio reduction failed, keeping original", zap.Error(err), zap.Int("size", len(audio)))
		return audio, mimeType
	}
	if len(reduced) == 0 {
		log.Warn("audio reducer returned nothing, keeping original", zap.Int("size", len(audio)))
		return audio, mimeType
	}
	if len(reduced) >= len(audio) {
		log.Debug("audio reduction did not shrink, keeping original",
			zap.Int("size", len(audio)), zap.Int("reduced", len(reduced)))
		return audio, mimeType
	}
	if reducedType == "" {
		reducedType = mimeType
	}
	return reduced, reducedType
}
