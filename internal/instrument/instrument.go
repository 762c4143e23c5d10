// Package instrument wires hand tracking, gesture recognition, control
// smoothing and the synthesis engine into one playable instrument.
package instrument

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/airsynth/internal/control"
	"github.com/ayusman/airsynth/internal/gesture"
	"github.com/ayusman/airsynth/internal/store"
	"github.com/ayusman/airsynth/internal/synth"
	"github.com/ayusman/airsynth/internal/telemetry"
	"github.com/ayusman/airsynth/internal/tracker"
)

// DefaultFeedbackTTL is how long gesture feedback stays on the HUD.
const DefaultFeedbackTTL = 1500 * time.Millisecond

var (
	// ErrPermissionDenied means the user refused camera or audio access.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDeviceUnavailable means the camera or audio device could not be
	// opened for any other reason.
	ErrDeviceUnavailable = errors.New("device unavailable")
)

// Config holds the instrument's tuning and optional collaborators.
type Config struct {
	Mapper       control.MapperConfig
	Smoothing    float64
	TickInterval time.Duration
	Gesture      gesture.Config
	FeedbackTTL  time.Duration

	// Store, if set, persists settings, sessions and gesture events.
	Store *store.Store
	// Metrics may be nil.
	Metrics *telemetry.Metrics
}

// DefaultConfig returns the standard tuning with no store or metrics.
func DefaultConfig() Config {
	return Config{
		Mapper:       control.DefaultMapperConfig(),
		Smoothing:    control.DefaultSmoothing,
		TickInterval: control.DefaultTickInterval,
		Gesture:      gesture.DefaultConfig(),
		FeedbackTTL:  DefaultFeedbackTTL,
	}
}

// Instrument is the running application core. Vision batches come in from a
// tracker, the mapper writes control targets, the loop smooths them into the
// engine, and gestures switch the engine's settings.
type Instrument struct {
	config  Config
	engine  *synth.Engine
	tracker tracker.Tracker
	metrics *telemetry.Metrics

	target   *control.Target
	mapper   *control.Mapper
	loop     *control.Loop
	gestures *gesture.Detector

	presence    control.Presence
	feedback    string
	feedbackAt  time.Time
	lastGesture gesture.Event
	session     *store.Session
	onGesture   func(ev gesture.Event, feedback string)
	onFeedEnd   func()
	now         func() time.Time

	// lifecycle serializes Start and Stop; mu guards the fields above.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.RWMutex
}

// New creates an instrument around engine. tr may be nil for an audio-only
// instrument driven through HandleBatch.
func New(config Config, engine *synth.Engine, tr tracker.Tracker) *Instrument {
	if config.FeedbackTTL <= 0 {
		config.FeedbackTTL = DefaultFeedbackTTL
	}

	target := control.NewTarget(440)
	inst := &Instrument{
		config:   config,
		engine:   engine,
		tracker:  tr,
		metrics:  config.Metrics,
		target:   target,
		mapper:   control.NewMapper(config.Mapper, target),
		gestures: gesture.NewDetector(config.Gesture),
		now:      time.Now,
	}

	inst.loop = control.NewLoop(control.LoopConfig{
		Interval:  config.TickInterval,
		Smoothing: config.Smoothing,
		Initial:   control.Smoothed{Pitch: 440},
		OnTick: func(_ control.Smoothed, took time.Duration) {
			inst.metrics.RecordTick(context.Background(), took)
		},
	}, target, engine)

	return inst
}

// SetClock replaces the time source used for feedback expiry and gesture
// cooldown.
func (i *Instrument) SetClock(now func() time.Time) {
	i.mu.Lock()
	i.now = now
	i.mu.Unlock()
	i.gestures.SetClock(now)
}

// OnGesture registers a callback run after every applied gesture.
func (i *Instrument) OnGesture(fn func(ev gesture.Event, feedback string)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onGesture = fn
}

// OnFeedEnd registers a callback run after the instrument stops itself
// because the tracker feed ended.
func (i *Instrument) OnFeedEnd(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onFeedEnd = fn
}

// Engine returns the synthesis engine.
func (i *Instrument) Engine() *synth.Engine {
	return i.engine
}

// Init opens the audio output and restores saved settings. Failures are
// reported as ErrPermissionDenied or ErrDeviceUnavailable and leave the
// instrument uninitialized, so Init can be retried.
func (i *Instrument) Init() error {
	if i.engine.State() != synth.StateUninitialized {
		return nil
	}

	i.restoreSettings()

	if err := i.engine.Init(); err != nil {
		return classify(err)
	}

	log.Printf("Audio engine initialized (%d Hz)", i.engine.SampleRate())
	return nil
}

// Start initializes if needed, starts the engine and the smoothing loop, and
// begins consuming the tracker. Starting a running instrument is a no-op.
// Start and Stop are serialized.
func (i *Instrument) Start(ctx context.Context) error {
	i.lifecycle.Lock()
	defer i.lifecycle.Unlock()

	if i.Running() {
		return nil
	}

	if err := i.Init(); err != nil {
		return err
	}

	if err := i.engine.Start(); err != nil {
		return classify(err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	var batches <-chan tracker.Batch
	if i.tracker != nil {
		var err error
		batches, err = i.tracker.Frames(runCtx)
		if err != nil {
			cancel()
			i.engine.Stop()
			return classify(err)
		}
	}

	i.loop.Start(runCtx)

	done := make(chan struct{})
	i.mu.Lock()
	i.cancel = cancel
	i.done = done
	i.mu.Unlock()

	i.beginSession()

	go i.consume(runCtx, batches, done)

	log.Println("Instrument started")
	return nil
}

// Stop halts tracking and smoothing, fades the engine out and ends the
// session. It returns once the tracker has released its device. Stopping a
// stopped instrument is a no-op.
func (i *Instrument) Stop() {
	i.lifecycle.Lock()
	defer i.lifecycle.Unlock()
	i.stopRun(nil)
}

// stopRun tears down the current run and reports whether there was one.
// With run set, it only acts if that run is still the current one. The
// caller must hold i.lifecycle.
func (i *Instrument) stopRun(run chan struct{}) bool {
	i.mu.Lock()
	cancel, done := i.cancel, i.done
	if cancel == nil || (run != nil && done != run) {
		i.mu.Unlock()
		return false
	}
	i.cancel, i.done = nil, nil
	i.mu.Unlock()

	cancel()
	<-done
	i.loop.Stop()
	i.engine.Stop()
	i.target.SetVolume(0)
	i.loop.Reset(control.Smoothed{Pitch: i.loop.Current().Pitch})

	i.mu.Lock()
	i.presence = control.Presence{}
	i.mu.Unlock()

	i.endSession()
	log.Println("Instrument stopped")
	return true
}

// Close stops the instrument and releases the audio device.
func (i *Instrument) Close() error {
	i.Stop()
	return i.engine.Close()
}

// Running reports whether a run is active. A run whose tracker feed ended
// stops itself shortly after.
func (i *Instrument) Running() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.cancel != nil
}

// consume feeds batches into HandleBatch until the run is cancelled or the
// tracker closes the feed. On cancel it drains the feed so the tracker has
// released its device before done is closed.
func (i *Instrument) consume(ctx context.Context, batches <-chan tracker.Batch, done chan struct{}) {
	if batches == nil {
		<-ctx.Done()
		close(done)
		return
	}

	for {
		select {
		case <-ctx.Done():
			for range batches {
			}
			close(done)
			return
		case b, ok := <-batches:
			if !ok {
				log.Println("Hand tracker feed ended")
				i.feedEnded(done)
				return
			}
			i.HandleBatch(ctx, b)
		}
	}
}

// feedEnded mutes at once, then stops the run in the background. The stop
// cannot run inline because Stop waits for done.
func (i *Instrument) feedEnded(done chan struct{}) {
	i.target.SetVolume(0)

	i.mu.Lock()
	i.presence = control.Presence{}
	callback := i.onFeedEnd
	i.mu.Unlock()

	close(done)

	go func() {
		i.lifecycle.Lock()
		stopped := i.stopRun(done)
		i.lifecycle.Unlock()

		// A run stopped or replaced in the meantime owns the state now.
		if stopped && callback != nil {
			callback()
		}
	}()
}

// HandleBatch processes one vision tick: it updates the control targets,
// then checks for a gesture and applies it.
func (i *Instrument) HandleBatch(ctx context.Context, b tracker.Batch) {
	presence := i.mapper.Apply(b.Hands)

	i.mu.Lock()
	prev := i.presence
	i.presence = presence
	i.mu.Unlock()

	i.metrics.RecordBatch(ctx, len(b.Hands))
	if prev.Left && !presence.Left {
		i.metrics.RecordHandLoss(ctx, "Left")
	}
	if prev.Right && !presence.Right {
		i.metrics.RecordHandLoss(ctx, "Right")
	}

	ev, ok := i.gestures.DetectBatch(b.Hands)
	if !ok {
		return
	}
	i.applyGesture(ctx, ev)
}

func (i *Instrument) applyGesture(ctx context.Context, ev gesture.Event) {
	feedback := gesture.Apply(ev, i.engine)

	i.mu.Lock()
	i.feedback = feedback
	i.feedbackAt = i.now()
	i.lastGesture = ev
	sess := i.session
	callback := i.onGesture
	i.mu.Unlock()

	log.Printf("Gesture %s: %s", ev, feedback)
	i.metrics.RecordGesture(ctx, string(ev))
	i.saveSettings()

	if sess != nil && i.config.Store != nil {
		err := i.config.Store.Events().Log(&store.GestureEvent{
			SessionID: sess.ID,
			Kind:      string(ev),
			Hand:      gestureHand(ev),
			Feedback:  feedback,
		})
		if err != nil {
			log.Printf("Failed to log gesture event: %v", err)
		}
	}

	if callback != nil {
		callback(ev, feedback)
	}
}

func gestureHand(ev gesture.Event) string {
	if ev == gesture.EventToggleDelay {
		return "Left"
	}
	return "Right"
}

func (i *Instrument) beginSession() {
	if i.config.Store == nil {
		return
	}

	snap := i.engine.Snapshot()
	sess := &store.Session{
		Waveform: string(snap.Waveform),
		DelayMix: snap.DelayMix,
		Analog:   snap.AnalogMode,
	}
	if err := i.config.Store.Sessions().Create(sess); err != nil {
		log.Printf("Failed to record session: %v", err)
		return
	}

	i.mu.Lock()
	i.session = sess
	i.mu.Unlock()
}

func (i *Instrument) endSession() {
	i.mu.Lock()
	sess := i.session
	i.session = nil
	i.mu.Unlock()

	if sess == nil || i.config.Store == nil {
		return
	}
	if err := i.config.Store.Sessions().End(sess.ID, time.Now()); err != nil {
		log.Printf("Failed to end session %s: %v", sess.ID, err)
	}
}

// SessionID returns the current session, or "" when not playing or not
// persisting.
func (i *Instrument) SessionID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.session == nil {
		return ""
	}
	return i.session.ID
}

// classify maps a device error onto the instrument's error taxonomy.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	if errors.Is(err, synth.ErrNotInitialized) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"permission", "denied", "not authorized", "not permitted"} {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
}
