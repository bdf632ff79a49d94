package catalogfile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/models"
)

// Watcher reloads the catalog file on change and hands the result to onChange.
// The parent directory is watched so editors that replace the file are seen.
type Watcher struct {
	source   *Source
	watcher  *fsnotify.Watcher
	onChange func(models.Catalog)
	log      logger.Logger

	mu          sync.Mutex
	debounce    time.Duration
	lastApplied time.Time
}

func NewWatcher(source *Source, onChange func(models.Catalog), log logger.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(source.Path())); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{
		source:   source,
		watcher:  w,
		onChange: onChange,
		log:      log.Component("catalog_watcher"),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Watch blocks until ctx is done or the watcher is closed.
func (fw *Watcher) Watch(ctx context.Context) {
	defer fw.watcher.Close()
	target := filepath.Clean(fw.source.Path())

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fw.HandleFileChange(ctx)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watch error", map[string]interface{}{"error": err})
		}
	}
}

// HandleFileChange reloads the file. A file that does not parse (for example
// one caught mid-write) is logged and the current catalog stays in place.
func (fw *Watcher) HandleFileChange(ctx context.Context) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if time.Since(fw.lastApplied) < fw.debounce {
		return
	}

	catalog, err := fw.source.FetchCatalog(ctx)
	if err != nil {
		fw.log.Warn("ignoring catalog change", map[string]interface{}{"error": err})
		return
	}
	fw.lastApplied = time.Now()
	fw.log.Info("catalog file changed", map[string]interface{}{"dishes": len(catalog)})
	fw.onChange(catalog)
}
