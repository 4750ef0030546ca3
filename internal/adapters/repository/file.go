package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/okian/scorecard/internal/domain/model"
)

const defaultDebounce = 250 * time.Millisecond

// FileSource reads a snapshot from a JSON or YAML file. The format is
// chosen by extension; anything other than .yaml or .yml is read as JSON.
type FileSource struct {
	path     string
	debounce time.Duration
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string, opts ...FileOption) *FileSource {
	s := &FileSource{path: path, debounce: defaultDebounce}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the snapshot file path.
func (s *FileSource) Path() string { return s.path }

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return Decode(data, s.path)
}

// Decode parses a snapshot document. name only selects the format. Cells
// and order items that do not have the expected shape are kept as data
// problems for the engine to skip; only a document that cannot be parsed at
// all is an error.
func Decode(data []byte, name string) (model.Snapshot, error) {
	var w wireSnapshot
	if isYAML(name) {
		if err := yaml.Unmarshal(data, &w); err != nil {
			return model.Snapshot{}, fmt.Errorf("%w: %s: %w", ErrSnapshotDecode, name, err)
		}
		return w.snapshot(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&w); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %s: %w", ErrSnapshotDecode, name, err)
	}
	return w.snapshot(), nil
}

// Encode renders a snapshot in the format selected by name.
func Encode(snap model.Snapshot, name string) ([]byte, error) {
	if isYAML(name) {
		return yaml.Marshal(snap)
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Save writes snap to path atomically.
func Save(path string, snap model.Snapshot) error {
	data, err := Encode(snap, path)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// Watch signals after the file is written, created or replaced. The parent
// directory is watched so editors that rename into place are seen too.
func (s *FileSource) Watch(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	out := make(chan struct{}, 1)
	go s.watchLoop(ctx, fsw, abs, out)
	return out, nil
}

func (s *FileSource) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, target string, out chan<- struct{}) {
	defer close(out)
	defer fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !changed(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		case <-fire:
			fire = nil
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

func changed(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func isYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
