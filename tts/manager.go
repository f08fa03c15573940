package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// descriptor pairs a registered engine with its load state. The mutex
// serializes synthesis calls into the engine instance; adapters are not
// reentrant.
type descriptor struct {
	engine Engine
	caps   Capabilities
	state  LoadState
	mu     sync.Mutex
}

// EngineInfo is a snapshot of one registry entry for display.
type EngineInfo struct {
	Name         string
	State        LoadState
	Capabilities Capabilities
}

// Manager owns the set of loaded engines and voice profiles and
// performs mode-aware dispatch with a single fallback retry.
//
// The current engine and current profile are atomically swapped
// pointers: a synthesis call in flight always sees a fully-formed
// value, never a torn intermediate state.
type Manager struct {
	mu      sync.RWMutex
	engines map[string]*descriptor
	order   []string

	profiles     map[string]*Profile
	profileOrder []string

	current        atomic.Pointer[descriptor]
	fallback       atomic.Pointer[descriptor]
	currentProfile atomic.Pointer[Profile]

	chunkSize atomic.Int32 // bytes per chunk when converting batch output
}

// NewManager creates an empty registry seeded with the default voice
// profiles. chunkSize is the slice size, in bytes, used when a batch
// buffer is converted into a chunk stream.
func NewManager(chunkSize int) *Manager {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkBytes
	}
	m := &Manager{
		engines:  make(map[string]*descriptor),
		profiles: make(map[string]*Profile),
	}
	m.chunkSize.Store(int32(chunkSize))
	for _, p := range DefaultProfiles() {
		profile := p
		m.profiles[p.Name] = &profile
		m.profileOrder = append(m.profileOrder, p.Name)
	}
	if def, ok := m.profiles["cute_girl"]; ok {
		m.currentProfile.Store(def)
	}
	return m
}

// ChunkBytes returns the current batch-conversion chunk size in bytes.
func (m *Manager) ChunkBytes() int {
	return int(m.chunkSize.Load())
}

// SetChunkBytes retunes the batch-conversion chunk size. Streams
// already in flight keep their original size.
func (m *Manager) SetChunkBytes(n int) {
	if n <= 0 {
		return
	}
	m.chunkSize.Store(int32(n))
}

// Register loads the engine and adds it to the registry. A load failure
// records the engine as failed and returns a *LoadError; it is never
// fatal to the registry, and failed engines are excluded from selection.
// The first successfully loaded engine becomes the current engine.
func (m *Manager) Register(e Engine) error {
	d := &descriptor{engine: e, caps: e.Capabilities()}

	if err := e.Load(); err != nil {
		d.state = StateFailed
		m.addDescriptor(e.Name(), d)
		log.Warn("engine failed to load, excluding from registry", "engine", e.Name(), "err", err)
		return &LoadError{Engine: e.Name(), Err: err}
	}
	d.state = StateLoaded
	m.addDescriptor(e.Name(), d)
	m.current.CompareAndSwap(nil, d)
	log.Info("engine registered",
		"engine", e.Name(),
		"batch", d.caps.Batch,
		"incremental", d.caps.Incremental,
		"low_latency", d.caps.LowLatency)
	return nil
}

func (m *Manager) addDescriptor(name string, d *descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.engines[name]; !exists {
		m.order = append(m.order, name)
	}
	m.engines[name] = d
}

// SwitchEngine makes the named engine the current engine. The swap is a
// single atomic pointer replace.
func (m *Manager) SwitchEngine(name string) error {
	d, err := m.loadedDescriptor(name)
	if err != nil {
		return err
	}
	m.current.Store(d)
	log.Info("switched engine", "engine", name)
	return nil
}

// SetFallback configures the engine retried once after the primary's
// failure.
func (m *Manager) SetFallback(name string) error {
	d, err := m.loadedDescriptor(name)
	if err != nil {
		return err
	}
	m.fallback.Store(d)
	return nil
}

func (m *Manager) loadedDescriptor(name string) (*descriptor, error) {
	m.mu.RLock()
	d, ok := m.engines[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEngineNotFound, name)
	}
	if d.state != StateLoaded {
		return nil, fmt.Errorf("%s: %w", name, ErrNotLoaded)
	}
	return d, nil
}

// Engines returns a snapshot of the registry in registration order.
func (m *Manager) Engines() []EngineInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]EngineInfo, 0, len(m.order))
	for _, name := range m.order {
		d := m.engines[name]
		infos = append(infos, EngineInfo{Name: name, State: d.state, Capabilities: d.caps})
	}
	return infos
}

// CurrentEngine returns the name of the current engine, or "" when no
// engine loaded.
func (m *Manager) CurrentEngine() string {
	if d := m.current.Load(); d != nil {
		return d.engine.Name()
	}
	return ""
}

// AddProfile validates and stores a voice profile. An existing profile
// with the same name is replaced; insertion order is preserved.
func (m *Manager) AddProfile(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[p.Name]; !exists {
		m.profileOrder = append(m.profileOrder, p.Name)
	}
	m.profiles[p.Name] = &p
	return nil
}

// SetProfile makes the named profile current. The swap is a single
// atomic pointer replace.
func (m *Manager) SetProfile(name string) error {
	m.mu.RLock()
	p, ok := m.profiles[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	m.currentProfile.Store(p)
	log.Info("switched voice profile", "profile", name)
	return nil
}

// Profiles returns profile names in insertion order.
func (m *Manager) Profiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.profileOrder))
	copy(names, m.profileOrder)
	return names
}

// CurrentProfile returns a copy of the current profile.
func (m *Manager) CurrentProfile() Profile {
	if p := m.currentProfile.Load(); p != nil {
		return *p
	}
	return Profile{}
}

// ProfileByName returns a copy of the named profile.
func (m *Manager) ProfileByName(name string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return *p, nil
}

// SelectEngine returns the engine best matching the mode:
//
//   - realtime prefers incremental engines tagged low-latency, then any
//     incremental engine, then falls back to streaming selection;
//   - streaming prefers incremental capability, falling back to a batch
//     engine whose output is converted into one chunk stream;
//   - batch requires batch capability.
//
// Among equally capable engines the current engine wins, then
// registration order. SelectEngine never returns an engine lacking the
// capability the mode requires.
func (m *Manager) SelectEngine(mode Mode) (Engine, error) {
	d, err := m.selectDescriptor(mode)
	if err != nil {
		return nil, err
	}
	return d.engine, nil
}

func (m *Manager) selectDescriptor(mode Mode) (*descriptor, error) {
	switch mode {
	case ModeRealtime:
		if d := m.findDescriptor(func(c Capabilities) bool { return c.Incremental && c.LowLatency }); d != nil {
			return d, nil
		}
		fallthrough
	case ModeStreaming:
		if d := m.findDescriptor(func(c Capabilities) bool { return c.Incremental }); d != nil {
			return d, nil
		}
		if d := m.findDescriptor(func(c Capabilities) bool { return c.Batch }); d != nil {
			return d, nil
		}
	case ModeBatch:
		if d := m.findDescriptor(func(c Capabilities) bool { return c.Batch }); d != nil {
			return d, nil
		}
	}
	return nil, ErrNoEngineAvailable
}

// findDescriptor checks the current engine first, then registration order.
func (m *Manager) findDescriptor(match func(Capabilities) bool) *descriptor {
	if d := m.current.Load(); d != nil && d.state == StateLoaded && match(d.caps) {
		return d
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.order {
		d := m.engines[name]
		if d.state == StateLoaded && match(d.caps) {
			return d
		}
	}
	return nil
}

// Synthesize dispatches the request to the selected engine. On an
// *EngineError it retries exactly once against the fallback engine when
// one is configured and distinct from the engine that failed; a second
// failure is surfaced unretried.
func (m *Manager) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	profile := req.Voice
	if profile == nil {
		var err error
		profile, err = m.resolveProfile(req.Profile)
		if err != nil {
			return nil, err
		}
	}

	primary, err := m.selectDescriptor(req.Mode)
	if err != nil {
		return nil, err
	}

	res, err := m.dispatch(ctx, primary, req, profile)
	if err == nil {
		return res, nil
	}

	var engErr *EngineError
	if !errors.As(err, &engErr) {
		return nil, err
	}

	fb := m.fallback.Load()
	if fb == nil || fb == primary || fb.state != StateLoaded || !modeSupported(fb.caps, req.Mode) {
		return nil, err
	}
	log.Warn("primary engine failed, trying fallback",
		"request", req.ID,
		"primary", primary.engine.Name(),
		"fallback", fb.engine.Name(),
		"err", err)
	return m.dispatch(ctx, fb, req, profile)
}

// modeSupported reports whether an engine with the given capabilities
// can serve a request in the given mode. Streaming modes accept a batch
// engine because dispatch converts its output to chunks.
func modeSupported(caps Capabilities, mode Mode) bool {
	switch mode {
	case ModeBatch:
		return caps.Batch
	case ModeStreaming, ModeRealtime:
		return caps.Incremental || caps.Batch
	}
	return false
}

func (m *Manager) resolveProfile(name string) (*Profile, error) {
	if name == "" {
		return m.currentProfile.Load(), nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// dispatch invokes one engine in the request's mode, holding the
// per-engine lock for the duration of the call. For streams the lock is
// held until the engine's channel is drained, so two synthesis calls
// never overlap on one instance.
func (m *Manager) dispatch(ctx context.Context, d *descriptor, req Request, profile *Profile) (*Result, error) {
	name := d.engine.Name()
	switch req.Mode {
	case ModeBatch:
		d.mu.Lock()
		audio, err := d.engine.Synthesize(ctx, req.Text, profile)
		d.mu.Unlock()
		if err != nil {
			return nil, &EngineError{Engine: name, Err: err}
		}
		return &Result{Engine: name, Audio: audio}, nil

	case ModeStreaming, ModeRealtime:
		if d.caps.Incremental {
			d.mu.Lock()
			ch, err := d.engine.SynthesizeStream(ctx, req.Text, profile)
			if err != nil {
				d.mu.Unlock()
				return nil, &EngineError{Engine: name, Err: err}
			}
			return &Result{Engine: name, Stream: m.relay(ctx, d, ch)}, nil
		}
		// Batch engine: synthesize the whole buffer and slice it.
		d.mu.Lock()
		audio, err := d.engine.Synthesize(ctx, req.Text, profile)
		d.mu.Unlock()
		if err != nil {
			return nil, &EngineError{Engine: name, Err: err}
		}
		return &Result{Engine: name, Stream: NewChunkStream(ctx, audio, m.ChunkBytes())}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, req.Mode)
}

// relay forwards the engine's chunks, releasing the per-engine lock
// when the stream ends or the context is cancelled.
func (m *Manager) relay(ctx context.Context, d *descriptor, in <-chan Chunk) <-chan Chunk {
	out := make(chan Chunk)
	go func() {
		defer d.mu.Unlock()
		defer close(out)
		for chunk := range in {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close unloads every registered engine.
func (m *Manager) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var errs []error
	for _, name := range m.order {
		d := m.engines[name]
		if d.state != StateLoaded {
			continue
		}
		if err := d.engine.Unload(); err != nil {
			errs = append(errs, fmt.Errorf("unload %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
