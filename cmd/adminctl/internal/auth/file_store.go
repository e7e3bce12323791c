package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Pachada/ReactBase/pkg/sdk"
)

const (
	stateDirName = ".adminctl"

	// DurableFile holds the durable tier: remembered sessions, the remember-me
	// preference and the device id.
	DurableFile = "credentials.json"
	// EphemeralFile holds the ephemeral tier, which lapses after IdleTimeout
	// without use.
	EphemeralFile = "session.json"

	// IdleTimeout is how long an unused ephemeral session survives.
	IdleTimeout = 30 * time.Minute
)

// FileStore implements sdk.KV on top of a single JSON file.
type FileStore struct {
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// Ensure FileStore implements sdk.KV at compile time.
var _ sdk.KV = (*FileStore)(nil)

type fileContents struct {
	Touched time.Time         `json:"touched"`
	Values  map[string]string `json:"values"`
}

// DefaultStateDir returns ~/.adminctl.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, stateDirName), nil
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileLogger sets the logger that reports discarded corrupt files.
func WithFileLogger(logger *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore creates a FileStore for dir/name. A positive ttl makes the
// whole file lapse when it has not been touched for that long.
func NewFileStore(dir, name string, ttl time.Duration, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	s := &FileStore{
		path:   filepath.Join(dir, name),
		ttl:    ttl,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get reads a value. Reading an ephemeral store extends its idle window.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := contents.Values[key]
	if ok && s.ttl > 0 {
		if err := s.write(contents); err != nil {
			return "", false, err
		}
	}
	return value, ok, nil
}

// Set writes a value.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return err
	}
	contents.Values[key] = value
	return s.write(contents)
}

// Delete removes a value; the file is removed once it is empty.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := contents.Values[key]; !ok {
		return nil
	}
	delete(contents.Values, key)
	if len(contents.Values) == 0 {
		return s.remove()
	}
	return s.write(contents)
}

func (s *FileStore) read() (*fileContents, error) {
	empty := &fileContents{Values: map[string]string{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		s.logger.Warn("discarding corrupt credential file", "path", s.path, "error", err)
		return empty, nil
	}
	if contents.Values == nil {
		contents.Values = map[string]string{}
	}
	if s.ttl > 0 && s.now().Sub(contents.Touched) > s.ttl {
		if err := s.remove(); err != nil {
			return nil, err
		}
		return empty, nil
	}
	return &contents, nil
}

func (s *FileStore) write(contents *fileContents) error {
	contents.Touched = s.now()
	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", s.path, err)
	}

	// Replace the file in one rename so a crash never leaves it half written.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", s.path, err)
	}
	return nil
}
