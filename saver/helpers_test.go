package saver

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/dannystewart/starfieldsaver/config"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type fakeKeys struct {
	mu      sync.Mutex
	err     error
	presses int
}

func (k *fakeKeys) PressQuicksaveKey() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.presses++
	return k.err
}

func (k *fakeKeys) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.presses
}

type fakeSounds struct {
	mu            sync.Mutex
	successes     int
	notifications int
	errors        int
}

func (s *fakeSounds) PlaySuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes++
}

func (s *fakeSounds) PlayNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications++
}

func (s *fakeSounds) PlayError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

func (s *fakeSounds) counts() (successes, notifications, errors int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successes, s.notifications, s.errors
}

type fakeProcs struct {
	mu         sync.Mutex
	names      map[string]struct{}
	namesErr   error
	foreground string
	fgErr      error
}

func (p *fakeProcs) ListRunningProcessNames() (map[string]struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.namesErr != nil {
		return nil, p.namesErr
	}
	names := make(map[string]struct{}, len(p.names))
	for n := range p.names {
		names[n] = struct{}{}
	}
	return names, nil
}

func (p *fakeProcs) ForegroundProcessExecutableName() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.foreground, p.fgErr
}

func (p *fakeProcs) set(names []string, foreground string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = make(map[string]struct{}, len(names))
	for _, n := range names {
		p.names[n] = struct{}{}
	}
	p.foreground = foreground
}

type testEnv struct {
	coordinator *Coordinator
	keys        *fakeKeys
	sounds      *fakeSounds
	procs       *fakeProcs
	cfg         config.Config
	store       *config.Store
}

// newTestEnv builds a coordinator against a temp save directory with the game
// running and focused. A nil clock means the real clock.
func newTestEnv(t *testing.T, saveDir string, clock clockwork.Clock) *testEnv {
	t.Helper()

	cfg := config.Defaults()
	cfg.SaveDirectory = saveDir
	cfg.EnableSounds = false

	store := config.NewStore(filepath.Join(t.TempDir(), "quicksave.toml"), nil, zerolog.Nop())
	keys := &fakeKeys{}
	sounds := &fakeSounds{}
	procs := &fakeProcs{}
	procs.set([]string{"starfield.exe"}, "Starfield.exe")

	c := New(store, cfg, keys, sounds, procs, clock, zerolog.Nop())
	return &testEnv{
		coordinator: c,
		keys:        keys,
		sounds:      sounds,
		procs:       procs,
		cfg:         cfg,
		store:       store,
	}
}
