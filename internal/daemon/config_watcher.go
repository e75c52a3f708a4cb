package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/steptimer/internal/config"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for writes to settle before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Reloader applies a freshly loaded configuration.
type Reloader interface {
	ReloadConfig(ctx context.Context, cfg *config.Config) error
}

// ConfigWatcher reloads the daemon configuration when its file changes on disk. Editors
// often replace the file instead of writing it, so the parent directory is watched and
// events are filtered by file name.
type ConfigWatcher struct {
	path     string
	target   Reloader
	fs       *fsnotify.Watcher
	log      *slog.Logger
	debounce time.Duration

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewConfigWatcher prepares a watcher for path. Nothing is watched until Start.
func NewConfigWatcher(path string, target Reloader) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.FileSystemError("failed to resolve config path").
			WithCause(err).WithContext("path", path).Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.FileSystemError("failed to create file watcher").WithCause(err).Build()
	}
	return &ConfigWatcher{
		path:     abs,
		target:   target,
		fs:       fw,
		log:      slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the settle time. It must be called before Start.
func (cw *ConfigWatcher) SetDebounce(d time.Duration) { cw.debounce = d }

// Start watches the config directory until ctx ends or Stop is called.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(cw.path)
	if err := cw.fs.Add(dir); err != nil {
		return errors.FileSystemError("failed to watch config directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	cw.log.Info("Watching configuration file", logfields.Path(cw.path))

	cw.wg.Add(1)
	go func() {
		defer cw.wg.Done()
		cw.run(ctx)
	}()
	return nil
}

// Stop ends the watch and waits for a reload in progress. It is safe to call twice.
func (cw *ConfigWatcher) Stop() {
	cw.stopOnce.Do(func() {
		close(cw.done)
		if err := cw.fs.Close(); err != nil {
			cw.log.Warn("Closing file watcher failed", logfields.Error(err))
		}
	})
	cw.wg.Wait()
}

// run multiplexes file events and the debounce timer. A burst of writes ends in a single
// reload once the file has been quiet for the debounce period.
func (cw *ConfigWatcher) run(ctx context.Context) {
	settle := time.NewTimer(cw.debounce)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()
	name := filepath.Base(cw.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.done:
			return
		case ev, ok := <-cw.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				cw.log.Warn("Config file removed, keeping current settings", logfields.Path(ev.Name))
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				cw.log.Debug("Config file changed", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
				settle.Reset(cw.debounce)
			}
		case err, ok := <-cw.fs.Errors:
			if !ok {
				return
			}
			cw.log.Error("Config watcher error", logfields.Error(err))
		case <-settle.C:
			if err := cw.reload(ctx); err != nil {
				cw.log.Error("Configuration reload rejected", logfields.Error(err))
			}
		}
	}
}

// reload applies the file on disk. A file that does not parse or validate leaves the
// running configuration untouched.
func (cw *ConfigWatcher) reload(ctx context.Context) error {
	cw.log.Info("Reloading configuration", logfields.Path(cw.path))
	next, err := config.Load(cw.path)
	if err != nil {
		return err
	}
	return cw.target.ReloadConfig(ctx, next)
}
