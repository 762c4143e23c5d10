package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/airsynth/internal/capture"
	"github.com/ayusman/airsynth/internal/config"
	"github.com/ayusman/airsynth/internal/detector"
	"github.com/ayusman/airsynth/internal/gesture"
	"github.com/ayusman/airsynth/internal/hook"
	"github.com/ayusman/airsynth/internal/instrument"
	"github.com/ayusman/airsynth/internal/server"
	"github.com/ayusman/airsynth/internal/store"
	"github.com/ayusman/airsynth/internal/synth"
	"github.com/ayusman/airsynth/internal/telemetry"
	"github.com/ayusman/airsynth/internal/tracker"
	"github.com/ayusman/airsynth/internal/tray"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		replayPath  string
		noTray      bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&replayPath, "replay", "", "Play a recorded landmark script instead of the camera")
	flag.BoolVar(&noTray, "no-tray", false, "Run without the system tray")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	fmt.Println("AirSynth - Touchless Hand Theremin")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	var tel *telemetry.Telemetry
	if cfg.Telemetry.MetricsEnabled {
		tel, err = telemetry.Setup("airsynth")
		if err != nil {
			log.Fatalf("Failed to set up telemetry: %v", err)
		}
		defer tel.Shutdown(context.Background())
	}

	var sink synth.Sink = synth.NewOtoSink()
	if !cfg.Audio.Enabled {
		log.Println("Audio output disabled, rendering to a null sink")
		sink = synth.NewNullSink()
	}
	engine := synth.New(engineConfig(cfg), sink)

	preview := capture.NewFrameBuffer(true)
	tr, closeTracker, err := newTracker(cfg, replayPath, preview)
	if err != nil {
		log.Fatalf("Failed to set up tracking: %v", err)
	}
	defer closeTracker()

	instCfg := instrumentConfig(cfg)
	instCfg.Store = st
	if tel != nil {
		instCfg.Metrics = tel.Metrics()
	}
	inst := instrument.New(instCfg, engine, tr)
	defer inst.Close()

	hooks := hook.NewManager(cfg.Hooks.Dir, hook.NewExecutor(time.Duration(cfg.Hooks.TimeoutMS)*time.Millisecond))
	if err := hooks.Discover(); err != nil {
		log.Printf("Failed to discover hooks: %v", err)
	} else if n := len(hooks.List()); n > 0 {
		log.Printf("Loaded %d gesture hooks from %s", n, hooks.Dir())
	}
	defer hooks.Wait()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	webDir := cfg.HTTP.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srvCfg := server.Config{
		StaticDir:  webDir,
		Instrument: inst,
		Store:      st,
		Preview:    preview,
		Context:    ctx,
	}
	if tel != nil {
		srvCfg.Metrics = tel.Handler()
	}
	srv := server.New(srvCfg)
	defer srv.Close()

	addr := cfg.Addr()
	go func() {
		fmt.Printf("Starting server on %s\n", addr)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	var t *tray.Tray
	if cfg.Tray.Enabled && !noTray {
		t = tray.New()
	}

	inst.OnGesture(func(ev gesture.Event, feedback string) {
		settings := inst.Settings()
		hooks.Dispatch(ctx, hook.Request{
			Event:     string(ev),
			Feedback:  feedback,
			Waveform:  string(settings.Waveform),
			DelayMix:  settings.DelayMix,
			Analog:    settings.Analog,
			SessionID: inst.SessionID(),
		})
		if t != nil {
			t.SetLastGesture(feedback)
			t.SetWaveform(string(settings.Waveform))
		}
	})

	if t == nil {
		<-ctx.Done()
		log.Println("Shutting down")
		return
	}

	runTray(ctx, stop, t, inst, "http://"+addr)
	log.Println("Shutting down")
}

// runTray blocks on the system tray until Quit is chosen or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, t *tray.Tray, inst *instrument.Instrument, url string) {
	settings := inst.Settings()
	t.SetAnalog(settings.Analog)
	t.SetWaveform(string(settings.Waveform))

	t.OnToggle(func(playing bool) {
		if !playing {
			inst.Stop()
			return
		}
		if err := inst.Start(ctx); err != nil {
			log.Printf("Failed to start instrument: %v", err)
			t.SetPlaying(false)
			t.SetLastGesture(err.Error())
		}
	})
	t.OnAnalog(inst.SetAnalogMode)
	t.OnSettings(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(stop)

	inst.OnFeedEnd(func() {
		t.SetPlaying(false)
		t.SetLastGesture("camera feed ended")
	})

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}

// newTracker builds the camera tracker, or a replay tracker when a script is
// given. The returned func releases the detector.
func newTracker(cfg config.Config, replayPath string, preview *capture.FrameBuffer) (tracker.Tracker, func(), error) {
	if replayPath != "" {
		f, err := os.Open(replayPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open replay script: %w", err)
		}
		defer f.Close()

		batches, err := tracker.LoadBatches(f)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Replaying %d landmark batches from %s", len(batches), replayPath)
		interval := time.Second / time.Duration(cfg.Camera.ActiveFPS)
		return tracker.NewReplayTracker(batches, interval, true), func() {}, nil
	}

	detCfg := detector.Config{
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConf,
	}

	var det detector.Detector
	mp, err := detector.NewMediaPipeDetector(detCfg)
	if err != nil {
		log.Printf("MediaPipe unavailable (%v), hands will not be detected", err)
		det = detector.NewMockDetector()
	} else {
		det = mp
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = cfg.Camera.DeviceID
	camCfg.FPS = cfg.Camera.IdleFPS

	tr := tracker.NewCameraTracker(tracker.CameraConfig{
		IdleFPS:     cfg.Camera.IdleFPS,
		ActiveFPS:   cfg.Camera.ActiveFPS,
		IdleTimeout: time.Duration(cfg.Camera.IdleTimeoutMS) * time.Millisecond,
		Preview:     preview,
	}, capture.NewCamera(camCfg), capture.NewMotionDetector(cfg.Camera.MotionThreshold), det)

	return tr, func() { det.Close() }, nil
}

func engineConfig(cfg config.Config) synth.Config {
	c := synth.DefaultConfig()
	c.SampleRate = cfg.Audio.SampleRate
	c.Channels = cfg.Audio.Channels
	c.DelayTime = time.Duration(cfg.Delay.TimeMS) * time.Millisecond
	c.Feedback = cfg.Delay.Feedback
	c.DelayMix = cfg.Delay.Mix
	return c
}

func instrumentConfig(cfg config.Config) instrument.Config {
	c := instrument.DefaultConfig()
	c.Mapper.MinFreq = cfg.Control.MinFreq
	c.Mapper.MaxFreq = cfg.Control.MaxFreq
	c.Smoothing = cfg.Control.Smoothing
	c.TickInterval = time.Second / time.Duration(cfg.Control.TickHz)
	c.Gesture = gesture.Config{
		PinchThreshold: cfg.Gesture.PinchThreshold,
		FistThreshold:  cfg.Gesture.FistThreshold,
		Cooldown:       time.Duration(cfg.Gesture.CooldownMS) * time.Millisecond,
	}
	c.FeedbackTTL = time.Duration(cfg.Gesture.FeedbackMS) * time.Millisecond
	return c
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.airsynth/web.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
