package sessionstore

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mesahal/ijaa-client/pkg/logger"
)

// FileStore persists the key space as a single JSON document shared by
// multiple OS processes. External writes are detected by watching the
// containing directory; the store's own writes are suppressed by byte
// comparison so the local context never self-notifies.
//
// Every mutation updates the in-memory image first, so local reads see
// local writes even when the disk rejects the persist.
type FileStore struct {
	path string
	log  *slog.Logger
	mode fs.FileMode

	mu        sync.Mutex
	data      map[string]string
	lastWrite []byte
	subs      map[int64]func(Change)
	next      int64
	watcher   *fsnotify.Watcher
	closed    bool
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithLogger sets the logger for degraded-operation reporting.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(log *slog.Logger) FileOption {
	return func(s *FileStore) {
		if log != nil {
			s.log = log
		}
	}
}

// WithFileMode sets the permission bits used when creating the file.
// Default is 0600.
func WithFileMode(mode fs.FileMode) FileOption {
	return func(s *FileStore) {
		s.mode = mode
	}
}

// NewFileStore opens (or creates) the JSON document at path and starts
// watching for writes made by other processes. A malformed or
// unreadable document is treated as empty, never as an error: stale
// bytes on disk must not block the client from starting.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	s := &FileStore{
		path: path,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		mode: 0o600,
		data: make(map[string]string),
		subs: make(map[int64]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	if raw, err := os.ReadFile(path); err == nil {
		if parsed, ok := parseImage(raw); ok {
			s.data = parsed
			s.lastWrite = raw
		} else {
			s.log.Warn("discarding malformed session file", logger.Key(path))
		}
	}

	// Watch the directory, not the file: atomic replace via rename
	// would otherwise drop the watch after the first external write.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("file watcher unavailable, external changes will not be observed", logger.Error(err))
		return s, nil
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		s.log.Warn("file watcher unavailable, external changes will not be observed", logger.Error(err))
		_ = watcher.Close()
		return s, nil
	}
	s.watcher = watcher
	go s.watch()

	return s, nil
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.data[key] = value
	return s.persistLocked()
}

// Remove implements Store.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.persistLocked()
}

// OnExternalChange implements Store.
func (s *FileStore) OnExternalChange(fn func(Change)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close stops the watcher. Reads and writes on a closed store keep
// serving the in-memory image but no longer persist or notify.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.closed = true
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// persistLocked writes the whole image atomically via temp file and
// rename. Disk failure degrades: the in-memory mutation stands and the
// caller gets ErrUnavailable, which callers treat as best-effort.
func (s *FileStore) persistLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		s.log.Warn("session file encode failed", logger.Error(err))
		return ErrUnavailable
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, s.mode); err != nil {
		s.log.Warn("session file write failed", logger.Error(err))
		return ErrUnavailable
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Warn("session file replace failed", logger.Error(err))
		return ErrUnavailable
	}
	s.lastWrite = raw
	return nil
}

func (s *FileStore) watch() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.reload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("session file watch error", logger.Error(err))
		}
	}
}

// reload re-reads the document after an external write, replaces the
// in-memory image and notifies subscribers with one Change per
// differing key. The store's own writes are identified by byte equality
// with the last persisted image and skipped.
func (s *FileStore) reload() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		// Removed or unreadable: every key is now absent.
		raw = []byte("{}")
	}

	s.mu.Lock()
	if bytes.Equal(raw, s.lastWrite) {
		s.mu.Unlock()
		return
	}
	next, ok := parseImage(raw)
	if !ok {
		s.log.Warn("ignoring malformed external write", logger.Key(s.path))
		next = make(map[string]string)
	}

	changes := diffImages(s.data, next)
	s.data = next
	s.lastWrite = raw

	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, ch := range changes {
		deliver(fns, ch)
	}
}

func parseImage(raw []byte) (map[string]string, bool) {
	if len(raw) == 0 {
		return make(map[string]string), true
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	if m == nil {
		m = make(map[string]string)
	}
	return m, true
}

func diffImages(old, next map[string]string) []Change {
	var changes []Change
	for k, ov := range old {
		nv, ok := next[k]
		switch {
		case !ok:
			changes = append(changes, Change{Key: k, OldValue: strptr(ov)})
		case nv != ov:
			changes = append(changes, Change{Key: k, NewValue: strptr(nv), OldValue: strptr(ov)})
		}
	}
	for k, nv := range next {
		if _, ok := old[k]; !ok {
			changes = append(changes, Change{Key: k, NewValue: strptr(nv)})
		}
	}
	return changes
}
