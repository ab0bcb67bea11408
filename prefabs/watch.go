package prefabs

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports edits to prefab and script files in the override
// directory. Names are relative to that directory, ready for Load.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	Events   chan string
	Errors   chan error
}

// NewWatcher watches root and its scripts and scenarios subdirectories.
// Missing subdirectories are skipped.
func NewWatcher(root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	for _, sub := range []string{"scripts", "scenarios"} {
		_ = fw.Add(filepath.Join(root, sub))
	}

	return &Watcher{
		watcher:  fw,
		root:     root,
		debounce: DefaultDebounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
	}, nil
}

// Run forwards relevant changes until ctx is done, then closes the
// watcher and both channels.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		_ = w.watcher.Close()
		close(w.Events)
		close(w.Errors)
	}()

	// A name is sent once its file has been quiet for the debounce
	// period, so the last write of a save burst is the one reported.
	type firing struct {
		name string
		gen  uint64
	}
	type quiet struct {
		timer *time.Timer
		gen   uint64
	}
	pending := make(map[string]quiet)
	fired := make(chan firing)
	done := make(chan struct{})
	var gen uint64
	defer func() {
		close(done)
		for _, q := range pending {
			q.timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isSpecFile(event.Name) && !isScriptFile(event.Name) {
				continue
			}
			name := event.Name
			if rel, err := filepath.Rel(w.root, event.Name); err == nil {
				name = filepath.ToSlash(rel)
			}
			if q, ok := pending[name]; ok {
				q.timer.Stop()
			}
			gen++
			f := firing{name: name, gen: gen}
			pending[name] = quiet{gen: gen, timer: time.AfterFunc(w.debounce, func() {
				select {
				case fired <- f:
				case <-done:
				}
			})}
		case f := <-fired:
			if q, ok := pending[f.name]; !ok || q.gen != f.gen {
				continue
			}
			delete(pending, f.name)
			select {
			case w.Events <- f.name:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tengo")
}
