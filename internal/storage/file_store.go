package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Surajan01/daily-news-analysis/internal/logger"
)

// stateFile is the persisted JSON shape. Unknown extra fields in older or
// newer files are ignored on read.
type stateFile struct {
	ProcessedHashes []string `json:"processed_hashes"`
	LastUpdated     string   `json:"last_updated"`
}

// FileStore persists the seen set as a single JSON file. Flush writes a temp
// file next to the target and renames it, so a failed write never corrupts
// the previous state.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	hashes map[string]struct{}
	now    func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		hashes: make(map[string]struct{}),
		now:    time.Now,
	}
}

// Load reads the persisted set. A missing or unreadable file is not an
// error: the store starts empty and the worst case is re-notification, which
// beats crashing a best-effort tool.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read state file, starting empty", "path", fs.path, "error", err)
		}
		return nil
	}

	if len(data) == 0 {
		return nil
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("corrupt state file, starting empty", "path", fs.path, "error", err)
		return nil
	}

	for _, h := range state.ProcessedHashes {
		fs.hashes[h] = struct{}{}
	}
	return nil
}

func (fs *FileStore) Contains(fingerprint string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.hashes[fingerprint]
	return ok
}

func (fs *FileStore) Add(fingerprint string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.hashes[fingerprint] = struct{}{}
}

// Flush atomically persists the full set plus a last-updated timestamp.
func (fs *FileStore) Flush() error {
	fs.mu.RLock()
	state := stateFile{
		ProcessedHashes: make([]string, 0, len(fs.hashes)),
		LastUpdated:     fs.now().Format(time.RFC3339),
	}
	for h := range fs.hashes {
		state.ProcessedHashes = append(state.ProcessedHashes, h)
	}
	fs.mu.RUnlock()

	// Stable file content makes diffs and tests sane.
	sort.Strings(state.ProcessedHashes)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal state: %v", ErrPersist, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersist, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrPersist, err)
	}

	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace state file: %v", ErrPersist, err)
	}
	return nil
}

func (fs *FileStore) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.hashes)
}
