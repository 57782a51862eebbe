// Package mock provides an in-memory implementation of the AudioEngine interface.
// Tracks are simulated; the frequency data comes from a bank of modulated
// oscillators run through the real analyser, so the visualiser has something to
// draw without an audio device. It backs demo mode and service tests.
package mock

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/analyser"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// DefaultDuration is the length of every simulated track.
const DefaultDuration = 3 * time.Minute

// Engine is a mock implementation of the AudioEngine interface.
// It simulates audio playback in memory without actually playing audio.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger
	clock  func() time.Time

	// Configuration
	initialized bool
	device      int
	frequency   int
	flags       int

	// Track state
	tracks     map[domain.TrackHandle]*mockTrack
	nextHandle domain.TrackHandle
	active     domain.TrackHandle
	mu         sync.RWMutex

	// Spectrum synthesis
	attached bool
	bank     []oscillator
	noise    *rand.Rand
	analyser *analyser.Analyser
	window   []float32

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       bool
	failPlay       bool
}

// mockTrack represents a loaded track in the mock engine.
type mockTrack struct {
	handle   domain.TrackHandle
	filePath string
	duration time.Duration
	volume   float64
	status   domain.PlaybackStatus

	// position at resumedAt; while playing the clock advances it.
	position  time.Duration
	resumedAt time.Time
}

// oscillator is a sine whose amplitude and frequency wobble slowly.
type oscillator struct {
	freq     float64
	amp      float64
	ampMod   float64
	ampModF  float64
	freqMod  float64
	freqModF float64
}

func defaultBank() []oscillator {
	return []oscillator{
		{freq: 55, amp: 0.8, ampMod: 0.9, ampModF: 2.1, freqMod: 10, freqModF: 2.1},
		{freq: 80, amp: 0.6, ampMod: 0.8, ampModF: 1.05},
		{freq: 150, amp: 0.4, ampMod: 0.7, ampModF: 3.3},
		{freq: 220, amp: 0.35, ampMod: 0.6, ampModF: 1.7},
		{freq: 440, amp: 0.3, ampMod: 0.8, ampModF: 0.8},
		{freq: 660, amp: 0.25, ampMod: 0.75, ampModF: 0.6},
		{freq: 880, amp: 0.2, ampMod: 0.6, ampModF: 1.5},
		{freq: 1200, amp: 0.15, ampMod: 0.5, ampModF: 2.5},
		{freq: 2400, amp: 0.08, ampMod: 0.5, ampModF: 1.8},
		{freq: 5000, amp: 0.04, ampMod: 0.3, ampModF: 4.0},
		{freq: 12000, amp: 0.02, ampMod: 0.3, ampModF: 3.5},
	}
}

// NewEngine creates a new mock audio engine.
func NewEngine() *Engine {
	a := analyser.New(analyser.DefaultConfig())
	return &Engine{
		logger:     slog.Default(),
		clock:      time.Now,
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		nextHandle: 1,
		frequency:  44100,
		bank:       defaultBank(),
		noise:      rand.New(rand.NewPCG(1, 2)), //nolint:gosec // synthetic noise
		analyser:   a,
		window:     make([]float32, a.FFTSize()),
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetClock replaces the wall clock used to advance playing tracks (for testing).
func (m *Engine) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad configures the mock to fail loading tracks (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize(device int, frequency int, flags int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", -1, "mock initialization failed", nil)
	}

	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.device = device
	if frequency > 0 {
		m.frequency = frequency
	}
	m.flags = flags

	return nil
}

// Shutdown shuts down the mock audio engine.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.attached = false
	m.active = domain.InvalidTrackHandle
	m.tracks = make(map[domain.TrackHandle]*mockTrack)
	m.analyser.Reset()

	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Load loads an audio file and returns a handle.
func (m *Engine) Load(filePath string) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	if m.failLoad {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", filePath, -1, "mock load failed", nil)
	}

	if filePath == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}

	handle := m.nextHandle
	m.nextHandle++

	m.tracks[handle] = &mockTrack{
		handle:   handle,
		filePath: filePath,
		duration: DefaultDuration,
		volume:   1.0,
		status:   domain.StatusStopped,
	}
	m.attached = true

	m.logger.Debug("mock track loaded", slog.String("path", filePath), slog.Int64("handle", int64(handle)))
	return handle, nil
}

// Unload unloads a previously loaded track.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	if _, exists := m.tracks[handle]; !exists {
		return domain.ErrInvalidTrackHandle
	}

	m.remove(handle)
	return nil
}

func (m *Engine) remove(handle domain.TrackHandle) {
	delete(m.tracks, handle)
	if m.active == handle {
		m.active = domain.InvalidTrackHandle
	}
}

// Play starts or resumes playback.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	if m.failPlay {
		return domain.ErrPlaybackFailed
	}

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	if track.status == domain.StatusPlaying {
		return nil
	}

	// A finished track starts over
	if track.position >= track.duration {
		track.position = 0
	}

	track.status = domain.StatusPlaying
	track.resumedAt = m.clock()
	m.active = handle
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	if pos := m.advance(track); track.status == domain.StatusPlaying {
		track.position = pos
		track.status = domain.StatusPaused
	}

	return nil
}

// Stop stops playback and unloads the track.
func (m *Engine) Stop(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	if _, exists := m.tracks[handle]; !exists {
		return domain.ErrInvalidTrackHandle
	}

	m.remove(handle)
	return nil
}

// advance returns the position a track has reached by now. Requires m.mu.
func (m *Engine) advance(track *mockTrack) time.Duration {
	if track.status != domain.StatusPlaying {
		return track.position
	}
	pos := track.position + m.clock().Sub(track.resumedAt)
	if pos >= track.duration {
		track.position = track.duration
		track.status = domain.StatusStopped
		return track.duration
	}
	return pos
}

// Status returns the playback status.
func (m *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.StatusStopped, domain.ErrNotInitialized
	}

	track, exists := m.tracks[handle]
	if !exists {
		return domain.StatusStopped, domain.ErrInvalidTrackHandle
	}

	m.advance(track)
	return track.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return 0, domain.ErrNotInitialized
	}

	track, exists := m.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}

	return m.advance(track), nil
}

// Duration returns the total track duration.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return 0, domain.ErrNotInitialized
	}

	track, exists := m.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}

	return track.duration, nil
}

// Seek sets the playback position.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	if position < 0 || position > track.duration {
		return domain.ErrInvalidPosition
	}

	track.position = position
	track.resumedAt = m.clock()
	return nil
}

// SetVolume sets the playback volume.
func (m *Engine) SetVolume(handle domain.TrackHandle, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	track.volume = volume
	return nil
}

// GetVolume returns the current volume.
func (m *Engine) GetVolume(handle domain.TrackHandle) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return 0, domain.ErrNotInitialized
	}

	track, exists := m.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}

	return track.volume, nil
}

// GetMetadata extracts mock metadata from a file path.
func (m *Engine) GetMetadata(filePath string) (*domain.MusicTrack, error) {
	if filePath == "" {
		return nil, domain.ErrInvalidFilePath
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	filename := filepath.Base(filePath)
	ext := filepath.Ext(filename)

	return &domain.MusicTrack{
		FilePath:   filePath,
		Title:      strings.TrimSuffix(filename, ext),
		Artist:     "Oscillator Bank",
		Album:      "Demo",
		Duration:   DefaultDuration,
		FileFormat: strings.TrimPrefix(strings.ToLower(ext), "."),
		SampleRate: m.frequency,
	}, nil
}

// FrequencyBinCount returns zero until the first track is loaded.
func (m *Engine) FrequencyBinCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.attached {
		return 0
	}
	return m.analyser.FrequencyBinCount()
}

// ByteFrequencyData synthesises the analyser window ending at the active track's
// position. Without a playing track the analyser decays towards silence.
func (m *Engine) ByteFrequencyData(dst []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.attached {
		return 0
	}

	track := m.tracks[m.active]
	if track != nil && track.status == domain.StatusPlaying {
		pos := m.advance(track)
		m.synthesize(pos, track.volume)
		m.analyser.Process(m.window)
	} else {
		m.analyser.Process(nil)
	}
	return m.analyser.ByteFrequencyData(dst)
}

// synthesize fills the window with the bank's output ending at end.
func (m *Engine) synthesize(end time.Duration, volume float64) {
	dt := 1 / float64(m.frequency)
	start := end.Seconds() - float64(len(m.window))*dt

	for i := range m.window {
		t := start + float64(i)*dt
		sample := 0.0
		for _, osc := range m.bank {
			amp := osc.amp * (1 - osc.ampMod + osc.ampMod*math.Abs(math.Sin(2*math.Pi*osc.ampModF*t)))
			freq := osc.freq + osc.freqMod*math.Sin(2*math.Pi*osc.freqModF*t)
			sample += amp * math.Sin(2*math.Pi*freq*t)
		}
		sample += (m.noise.Float64()*2 - 1) * 0.01
		m.window[i] = float32(sample * 0.3 * volume)
	}
}

// GetLoadedTracks returns the number of currently loaded tracks (for testing).
func (m *Engine) GetLoadedTracks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracks)
}

// SimulateProgress simulates playback progress (for testing).
// This advances the position by the specified duration.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	if track.status != domain.StatusPlaying {
		return fmt.Errorf("track is not playing")
	}

	track.position += delta
	m.advance(track)
	return nil
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
