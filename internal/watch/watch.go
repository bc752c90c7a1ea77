// Package watch supplies the build orchestrator with a stream of debounced
// change-event batches for a shader crate's source tree. It is deliberately
// thin: the orchestrator only ever sees batches of paths, never raw fsnotify
// events.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce folds rapid successive events (editor save storms, git
// checkouts) into a single batch.
const DefaultDebounce = 300 * time.Millisecond

// Batch is one debounced set of changed paths.
type Batch []string

// Watcher monitors a directory tree and emits change batches. Infinite until
// stopped.
type Watcher struct {
	Dir string
	// Ignore lists directory names (not paths) that are never watched.
	Ignore []string
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// Batches is the read side consumed by the orchestrator.
	Batches <-chan Batch

	batches chan Batch
	done    chan struct{}
	quit    chan struct{}
	fw      *fsnotify.Watcher
}

// New creates a watcher for the given crate directory. target/ and dotted
// directories are always ignored; callers add the output dir.
func New(dir string, ignore ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan Batch, 4)
	return &Watcher{
		Dir:     dir,
		Ignore:  append([]string{"target"}, ignore...),
		Batches: ch,
		batches: ch,
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
		fw:      fw,
	}, nil
}

// Start registers watches over the tree and begins emitting batches.
func (w *Watcher) Start() error {
	if err := w.addTree(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop tears the watcher down and closes the batch channel. Safe to call
// with batches still unconsumed; the loop never blocks on a full channel
// once a stop is underway.
func (w *Watcher) Stop() {
	close(w.quit)
	w.fw.Close()
	<-w.done
	close(w.batches)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

func (w *Watcher) ignored(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ig := range w.Ignore {
		if name == ig {
			return true
		}
	}
	return false
}

func (w *Watcher) loop() {
	defer close(w.done)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if w.ignored(filepath.Base(event.Name)) {
				continue
			}
			// New subdirectories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(event.Name)
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			now := time.Now()
			var batch Batch
			for path, t := range pending {
				if now.Sub(t) >= debounce {
					batch = append(batch, path)
					delete(pending, path)
				}
			}
			if len(batch) > 0 {
				select {
				case w.batches <- batch:
				case <-w.quit:
					return
				}
			}

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event or batch carries on.
		}
	}
}
