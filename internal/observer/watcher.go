package observer

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the files that changed during one debounce
// window, sorted
type ChangeCallback func(changedFiles []string)

// ProjectWatcher monitors a project tree for source changes
type ProjectWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	callback ChangeCallback
	debounce time.Duration
	debug    bool

	// Directory names that are never descended into, e.g. "target".
	ignoredDirs map[string]struct{}
	// Exact paths whose events are dropped, e.g. the build artifact.
	ignoredPaths map[string]struct{}

	pending map[string]struct{}
	timer   *time.Timer
	paused  bool
	mu      sync.Mutex

	cancel context.CancelFunc
}

// NewProjectWatcher creates a watcher for everything below root
func NewProjectWatcher(root string, callback ChangeCallback) (*ProjectWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ProjectWatcher{
		watcher:      watcher,
		root:         filepath.Clean(root),
		callback:     callback,
		debounce:     300 * time.Millisecond,
		ignoredDirs:  make(map[string]struct{}),
		ignoredPaths: make(map[string]struct{}),
		pending:      make(map[string]struct{}),
	}, nil
}

// IgnoreDirs skips directories with any of the given base names
func (pw *ProjectWatcher) IgnoreDirs(names ...string) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	for _, n := range names {
		pw.ignoredDirs[n] = struct{}{}
	}
}

// IgnorePaths drops events for the given paths. Relative paths resolve
// against the root.
func (pw *ProjectWatcher) IgnorePaths(paths ...string) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(pw.root, p)
		}
		pw.ignoredPaths[filepath.Clean(p)] = struct{}{}
	}
}

// SetDebounce sets the debounce duration for batching file changes
func (pw *ProjectWatcher) SetDebounce(d time.Duration) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.debounce = d
}

// SetDebug enables logging of watch errors and ignored events
func (pw *ProjectWatcher) SetDebug(debug bool) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.debug = debug
}

// Pause drops all events until Resume is called. Changes already collected
// but not yet delivered are discarded.
func (pw *ProjectWatcher) Pause() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.paused = true
	pw.discardLocked()
}

// Resume starts collecting events again. Events that arrive while Resume
// runs belong to the paused period and are discarded as well.
func (pw *ProjectWatcher) Resume() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.paused = false
	pw.discardLocked()
}

func (pw *ProjectWatcher) discardLocked() {
	if pw.timer != nil {
		pw.timer.Stop()
		pw.timer = nil
	}
	pw.pending = make(map[string]struct{})
}

// Start adds the project tree and begins watching for file changes
func (pw *ProjectWatcher) Start(ctx context.Context) error {
	if err := pw.addTree(pw.root); err != nil {
		return err
	}

	ctx, pw.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-pw.watcher.Events:
				if !ok {
					return
				}
				pw.handleEvent(event)
			case err, ok := <-pw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[watch] error: %v", err)
			}
		}
	}()

	return nil
}

// Stop stops watching for file changes
func (pw *ProjectWatcher) Stop() {
	if pw.cancel != nil {
		pw.cancel()
	}
	pw.watcher.Close()

	pw.mu.Lock()
	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.mu.Unlock()
}

func (pw *ProjectWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != pw.root && pw.skipDir(path) {
			return filepath.SkipDir
		}
		return pw.watcher.Add(path)
	})
}

func (pw *ProjectWatcher) skipDir(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return true
	}
	pw.mu.Lock()
	defer pw.mu.Unlock()
	_, ignored := pw.ignoredDirs[name]
	return ignored
}

func (pw *ProjectWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if pw.skipDir(event.Name) {
				return
			}
			if err := pw.addTree(event.Name); err != nil && pw.debug {
				log.Printf("[watch] could not watch %s: %v", event.Name, err)
			}
		}
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.paused {
		return
	}
	if _, ignored := pw.ignoredPaths[filepath.Clean(event.Name)]; ignored {
		if pw.debug {
			log.Printf("[watch] ignoring %s", event.Name)
		}
		return
	}

	pw.pending[event.Name] = struct{}{}

	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.debounce, pw.flush)
}

func (pw *ProjectWatcher) flush() {
	pw.mu.Lock()
	pending := pw.pending
	pw.pending = make(map[string]struct{})
	pw.mu.Unlock()

	if pw.callback == nil || len(pending) == 0 {
		return
	}

	files := make([]string, 0, len(pending))
	for f := range pending {
		files = append(files, f)
	}
	sort.Strings(files)
	pw.callback(files)
}
