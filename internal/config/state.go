package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

// State is remembered between invocations.
type State struct {
	LastLoadDir string    `toml:"last_load_dir"`
	LastSaveDir string    `toml:"last_save_dir"`
	UpdatedAt   time.Time `toml:"updated_at"`
}

// StateStore reads and writes State at a fixed path. A sibling ".lock" file
// serialises access across processes.
type StateStore struct {
	path string
	lock *flock.Flock
}

// NewStateStore returns a store for path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the state file location.
func (s *StateStore) Path() string { return s.path }

// Load returns the stored state. A missing file yields the zero State.
func (s *StateStore) Load() (State, error) {
	if err := s.ensureDir(); err != nil {
		return State{}, err
	}
	if err := s.lock.RLock(); err != nil {
		return State{}, fmt.Errorf("lock state: %w", err)
	}
	defer s.lock.Unlock() //nolint:errcheck

	return s.read()
}

// Update applies fn to the stored state under an exclusive lock and writes
// the result back.
func (s *StateStore) Update(fn func(*State)) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state: %w", err)
	}
	defer s.lock.Unlock() //nolint:errcheck

	state, err := s.read()
	if err != nil {
		return err
	}
	fn(&state)
	state.UpdatedAt = time.Now().UTC()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// RememberLoad records the directory of a container that was opened.
func (s *StateStore) RememberLoad(path string) error {
	return s.Update(func(st *State) { st.LastLoadDir = absDir(path) })
}

// RememberSave records the directory of a container that was written.
func (s *StateStore) RememberSave(path string) error {
	return s.Update(func(st *State) { st.LastSaveDir = absDir(path) })
}

func (s *StateStore) read() (State, error) {
	var state State
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, nil
		}
		return state, fmt.Errorf("read state: %w", err)
	}
	if err := toml.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("parse state %s: %w", s.path, err)
	}
	return state, nil
}

func (s *StateStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return nil
}

func absDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Dir(path)
	}
	return filepath.Dir(abs)
}

// ResolveInput returns arg when it names an existing file; otherwise a
// relative arg is retried inside lastDir. The original arg is returned when
// neither exists so the caller reports the path the user typed.
func ResolveInput(arg, lastDir string) string {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return arg
	}
	if lastDir == "" || filepath.IsAbs(arg) {
		return arg
	}
	candidate := filepath.Join(lastDir, arg)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return arg
}

// ResolveOutput places a relative output inside lastDir when useLastDir is set.
func ResolveOutput(arg, lastDir string, useLastDir bool) string {
	if !useLastDir || lastDir == "" || filepath.IsAbs(arg) {
		return arg
	}
	return filepath.Join(lastDir, arg)
}
