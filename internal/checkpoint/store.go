package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/nao1215/irsyad/internal/fileutil"
	"github.com/nao1215/irsyad/internal/model"
)

// DefaultFileName is the default checkpoint file name.
const DefaultFileName = "checkpoint.json"

var (
	// ErrNoCheckpoint is returned by Read when no checkpoint file exists.
	ErrNoCheckpoint = errors.New("no checkpoint")

	// ErrCorrupt is returned by Read when the checkpoint cannot be decoded
	// or holds invalid values.
	ErrCorrupt = errors.New("corrupt checkpoint")
)

// Store saves and loads a checkpoint file.
type Store struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the clock used for checkpoint timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a Store for the checkpoint file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Save atomically writes a checkpoint for pageNum and the processed URLs.
// URLs are stored sorted so identical progress produces identical files.
func (s *Store) Save(pageNum int, processedURLs []string) error {
	if pageNum < 0 {
		return fmt.Errorf("invalid page number %d", pageNum)
	}

	urls := slices.Clone(processedURLs)
	if urls == nil {
		urls = []string{}
	}
	slices.Sort(urls)
	urls = slices.Compact(urls)

	cp := model.Checkpoint{
		PageNum:       pageNum,
		ProcessedURLs: urls,
		Timestamp:     s.now(),
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	s.logger.Info("checkpoint saved", "page", pageNum, "processed", len(urls))
	return nil
}

// Read returns the stored checkpoint.
// It returns ErrNoCheckpoint when the file does not exist and ErrCorrupt
// when it cannot be decoded or holds a negative page number.
func (s *Store) Read() (*model.Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCheckpoint
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp model.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if cp.PageNum < 0 {
		return nil, fmt.Errorf("%w: negative page number %d", ErrCorrupt, cp.PageNum)
	}

	return &cp, nil
}

// Load returns the page to resume from and the processed URL set.
// A missing, unreadable or corrupt checkpoint yields page 0 and an empty set;
// problems other than absence are logged.
func (s *Store) Load() (int, map[string]struct{}) {
	cp, err := s.Read()
	if err != nil {
		if !errors.Is(err, ErrNoCheckpoint) {
			s.logger.Error("ignoring checkpoint", "path", s.path, "error", err)
		}
		return 0, map[string]struct{}{}
	}

	s.logger.Info("loaded checkpoint", "page", cp.PageNum, "processed", len(cp.ProcessedURLs))
	return cp.PageNum, cp.ProcessedSet()
}

// Clear removes the checkpoint file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	s.logger.Info("checkpoint cleared", "path", s.path)
	return nil
}
