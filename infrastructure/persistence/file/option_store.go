// Package file stores options in a YAML document on local disk. Writes are
// atomic renames, and a filesystem watcher drops the cached document whenever
// another process rewrites the file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"admin-notes-backend/application/ports"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const tempFilePrefix = "options-tmp-"

var _ ports.OptionStore = (*OptionStore)(nil)

type document struct {
	Options map[string]optionEntry `yaml:"options"`
}

type optionEntry struct {
	Version uint64   `yaml:"version"`
	Values  []string `yaml:"values"`
}

// OptionStore is a file-backed ports.OptionStore
type OptionStore struct {
	path    string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	cache *document

	stopCh chan struct{}
	done   chan struct{}
}

// NewOptionStore opens (or prepares) the YAML file at path and starts watching
// its directory. Call Close to stop the watcher.
func NewOptionStore(path string, logger *zap.Logger) (*OptionStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so atomic renames are observed.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch store directory: %w", err)
	}

	s := &OptionStore{
		path:    path,
		logger:  logger,
		watcher: watcher,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.watchLoop()

	logger.Info("File option store opened", zap.String("path", path))
	return s, nil
}

// Get returns the record stored under name
func (s *OptionStore) Get(ctx context.Context, name string) (ports.OptionRecord, error) {
	if err := ctx.Err(); err != nil {
		return ports.OptionRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked(false)
	if err != nil {
		return ports.OptionRecord{}, err
	}

	entry := doc.Options[name]
	return ports.OptionRecord{
		Values:  append([]string(nil), entry.Values...),
		Version: entry.Version,
	}, nil
}

// Put rewrites the file when the stored version equals expectedVersion. The
// file is always re-read first so writes from other processes are detected.
func (s *OptionStore) Put(ctx context.Context, name string, values []string, expectedVersion uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked(true)
	if err != nil {
		return 0, err
	}

	current := doc.Options[name]
	if current.Version != expectedVersion {
		return 0, ports.ErrVersionConflict
	}

	next := &document{Options: make(map[string]optionEntry, len(doc.Options)+1)}
	for k, v := range doc.Options {
		next.Options[k] = v
	}
	next.Options[name] = optionEntry{
		Version: expectedVersion + 1,
		Values:  append([]string(nil), values...),
	}

	data, err := yaml.Marshal(next)
	if err != nil {
		return 0, fmt.Errorf("failed to encode options: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		return 0, err
	}

	s.cache = next
	return expectedVersion + 1, nil
}

// Close stops the watcher
func (s *OptionStore) Close() error {
	select {
	case <-s.stopCh:
		return nil
	default:
	}
	close(s.stopCh)
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *OptionStore) loadLocked(fresh bool) (*document, error) {
	if s.cache != nil && !fresh {
		return s.cache, nil
	}

	doc := &document{Options: make(map[string]optionEntry)}
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read option file: %w", err)
	default:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to decode option file %s: %w", s.path, err)
		}
		if doc.Options == nil {
			doc.Options = make(map[string]optionEntry)
		}
	}

	s.cache = doc
	return doc, nil
}

func (s *OptionStore) invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *OptionStore) watchLoop() {
	defer close(s.done)

	for {
		select {
		case <-s.stopCh:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.logger.Debug("Option file changed", zap.String("op", event.Op.String()))
				s.invalidate()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
