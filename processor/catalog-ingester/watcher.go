package catalogingester

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// eventChannelBuffer is the size of the spool event channel.
const eventChannelBuffer = 500

// SpoolEvent is a catalog file ready for submission.
type SpoolEvent struct {
	// Path is the file path relative to the spool directory.
	Path string

	// AbsPath is the absolute file path.
	AbsPath string
}

// SpoolWatcher watches a spool directory for catalog files and emits an
// event for each file whose content changed. Files already present at start
// are emitted once during the initial scan.
type SpoolWatcher struct {
	config  SpoolConfig
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change detection
	hashMu sync.RWMutex
	hashes map[string]string

	// Output channel
	events chan SpoolEvent

	// Metrics
	droppedEvents atomic.Int64
}

// NewSpoolWatcher creates a spool directory watcher.
func NewSpoolWatcher(config SpoolConfig, logger *slog.Logger) (*SpoolWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SpoolWatcher{
		config:  config,
		dir:     config.Dir,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan SpoolEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of spool events.
func (w *SpoolWatcher) Events() <-chan SpoolEvent {
	return w.events
}

// Start begins watching the spool directory. Files already matching the
// pattern are emitted before change processing begins.
func (w *SpoolWatcher) Start(ctx context.Context) error {
	// Create the spool directory if it doesn't exist
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	// Add watches recursively
	if err := w.addWatchesRecursive(w.dir); err != nil {
		return err
	}

	// Emit events for files already in the spool
	w.scanExisting()

	// Start the event processing goroutine
	go w.processEvents(ctx)

	w.logger.Info("Spool watcher started",
		"dir", w.dir,
		"pattern", w.config.Pattern,
		"debounce", w.config.GetDebounceDelay())

	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *SpoolWatcher) Stop() error {
	return w.watcher.Close()
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *SpoolWatcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

// matches reports whether a path relative to the spool directory matches the
// configured include pattern.
func (w *SpoolWatcher) matches(relPath string) bool {
	ok, err := doublestar.Match(w.config.Pattern, filepath.ToSlash(relPath))
	if err != nil {
		return false
	}
	return ok
}

// setHash records the content hash for a file.
func (w *SpoolWatcher) setHash(relPath, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[relPath] = hash
}

// getHash returns the recorded content hash for a file.
func (w *SpoolWatcher) getHash(relPath string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[relPath]
	return hash, ok
}

// contentHash returns the hex SHA-256 of file content.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// addWatchesRecursive adds watches to all directories under root.
func (w *SpoolWatcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		// Skip hidden directories
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// scanExisting emits an event for every file already in the spool that
// matches the pattern, recording its hash so later watch events for
// unchanged content are suppressed.
func (w *SpoolWatcher) scanExisting() {
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") && path != w.dir {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(w.dir, path)
		if err != nil || !w.matches(relPath) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("Failed to read spool file",
				"path", relPath,
				"error", err)
			return nil
		}

		w.setHash(relPath, contentHash(content))
		w.sendEvent(SpoolEvent{Path: relPath, AbsPath: path})
		return nil
	})
	if err != nil {
		w.logger.Warn("Spool scan incomplete", "error", err)
	}
}

// processEvents handles fsnotify events with debouncing.
func (w *SpoolWatcher) processEvents(ctx context.Context) {
	defer close(w.events) // Close events channel when goroutine exits
	ticker := time.NewTicker(w.config.GetDebounceDelay())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *SpoolWatcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	relPath, err := filepath.Rel(w.dir, path)
	if err != nil {
		return
	}

	if !w.matches(relPath) {
		// But handle directory creation (for new watches)
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	// Accumulate pending changes
	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Spool change detected",
		"path", relPath,
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *SpoolWatcher) handleNewDirectory(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	} else {
		w.logger.Debug("Added watch for new directory", "path", path)
	}
}

// flushPending processes accumulated changes.
func (w *SpoolWatcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	// Copy and clear pending
	toProcess := make(map[string]fsnotify.Op)
	for k, v := range w.pending {
		toProcess[k] = v
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	// Process each change
	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, _ := filepath.Rel(w.dir, path)

		// Removed files are not submissions; just forget their hash
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			w.hashMu.Lock()
			delete(w.hashes, relPath)
			w.hashMu.Unlock()
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("Failed to read spool file",
				"path", relPath,
				"error", err)
			continue
		}

		// Check if content actually changed
		newHash := contentHash(content)
		if oldHash, ok := w.getHash(relPath); ok && oldHash == newHash {
			continue
		}
		w.setHash(relPath, newHash)

		w.sendEvent(SpoolEvent{Path: relPath, AbsPath: path})
	}
}

// sendEvent sends an event to the output channel.
func (w *SpoolWatcher) sendEvent(event SpoolEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent spool event", "path", event.Path)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}
