package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/evflex/core/model"
)

// Options configures a file backed store.
type Options struct {
	Path string
	// MaxSizeMB, MaxBackups and MaxAgeDays only apply to the rotating
	// JSONL store. Zero keeps the lumberjack defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// RotatingJSONLStore stores records in a JSONL file rotated by size.
type RotatingJSONLStore struct {
	mu   sync.Mutex
	out  *lumberjack.Logger
	path string
}

// NewRotatingJSONLStore creates the parent directory of opts.Path and
// returns a store writing through lumberjack.
func NewRotatingJSONLStore(opts Options) (*RotatingJSONLStore, error) {
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{
		out: &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		},
		path: opts.Path,
	}, nil
}

// Append encodes one line per row. Rotation happens between lines.
func (s *RotatingJSONLStore) Append(ctx context.Context, runID string, rows []model.ActivityRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.out)
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(Record{RunID: runID, Row: r}); err != nil {
			return err
		}
	}
	return nil
}

// Query reads the rotated backups, oldest first, then the active file.
func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	var res []Record
	for _, f := range files {
		if res, err = scanFile(ctx, f, q, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// files lists backups named <base>-<timestamp><ext> followed by the active
// file when it exists.
func (s *RotatingJSONLStore) files() ([]string, error) {
	ext := filepath.Ext(s.path)
	base := strings.TrimSuffix(s.path, ext)
	backups, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); err == nil {
		backups = append(backups, s.path)
	}
	return backups, nil
}

func (s *RotatingJSONLStore) Close() error { return s.out.Close() }
