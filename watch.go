// FILE: lixenwraith/bridge/watch.go
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// WatchOptions configures configuration file watching.
type WatchOptions struct {
	// PollInterval for file stat checks (minimum MinPollInterval)
	PollInterval time.Duration

	// Debounce coalesces rapid successive writes
	Debounce time.Duration

	// MaxWatchers limits concurrent subscriber channels
	MaxWatchers int

	// ReloadTimeout bounds one reload
	ReloadTimeout time.Duration

	// VerifyPermissions refuses reloads after group or world permission changes
	VerifyPermissions bool
}

// DefaultWatchOptions returns the default watch settings.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// Notifications sent to subscribers besides changed setting paths.
const (
	EventFileDeleted        = "file_deleted"
	EventPermissionsChanged = "permissions_changed"
	EventReloadTimeout      = "reload_timeout"
	EventReloadErrorPrefix  = "reload_error:"
)

// LiveEngine holds an Engine that is rebuilt whenever its configuration
// file changes. Readers always see a complete engine.
type LiveEngine struct {
	builder *Builder
	current atomic.Pointer[Engine]
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	opts   WatchOptions
	path   string

	mu            sync.RWMutex
	lastModTime   time.Time
	lastSize      int64
	lastMode      os.FileMode
	subscribers   map[int64]chan string
	nextID        atomic.Int64
	debounceTimer *time.Timer
	reloading     atomic.Bool
	done          chan struct{}
}

// BuildLive builds the engine and starts watching the configuration file.
// Without a file the engine is returned and never reloads.
func (b *Builder) BuildLive(opts WatchOptions) (*LiveEngine, error) {
	engine, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}

	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	live := &LiveEngine{
		builder:     b,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		opts:        opts,
		path:        b.file.Path,
		subscribers: make(map[int64]chan string),
		done:        make(chan struct{}),
	}
	live.current.Store(engine)

	if live.path == "" {
		close(live.done)
		return live, err
	}
	if info, statErr := os.Stat(live.path); statErr == nil {
		live.lastModTime = info.ModTime()
		live.lastSize = info.Size()
		live.lastMode = info.Mode()
	}
	go live.watchLoop()
	return live, err
}

// Engine returns the current engine.
func (l *LiveEngine) Engine() *Engine {
	return l.current.Load()
}

// Changes returns a channel receiving the path of every setting changed by
// a reload, and the Event* notifications. The channel closes on Stop.
func (l *LiveEngine) Changes() <-chan string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.subscribers) >= l.opts.MaxWatchers || l.ctx.Err() != nil {
		ch := make(chan string)
		close(ch)
		return ch
	}

	ch := make(chan string, 10)
	id := l.nextID.Add(1)
	l.subscribers[id] = ch

	go func() {
		<-l.ctx.Done()
		l.mu.Lock()
		delete(l.subscribers, id)
		close(ch)
		l.mu.Unlock()
	}()
	return ch
}

// Stop ends watching and closes subscriber channels.
func (l *LiveEngine) Stop() {
	l.cancel()
	l.mu.Lock()
	if l.debounceTimer != nil {
		l.debounceTimer.Stop()
		l.debounceTimer = nil
	}
	l.mu.Unlock()
	<-l.done
}

func (l *LiveEngine) watchLoop() {
	defer close(l.done)

	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.check()
		}
	}
}

// check stats the file and schedules a debounced reload on change
func (l *LiveEngine) check() {
	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.notify(EventFileDeleted)
		}
		return
	}

	if l.opts.VerifyPermissions && l.lastMode != 0 &&
		info.Mode()&0o077 != l.lastMode&0o077 {
		l.logger.Warn("configuration file permissions changed, reload refused", "path", l.path)
		l.notify(EventPermissionsChanged)
		return
	}

	if info.ModTime().Equal(l.lastModTime) && info.Size() == l.lastSize {
		return
	}
	l.lastModTime = info.ModTime()
	l.lastSize = info.Size()
	l.lastMode = info.Mode()

	l.mu.Lock()
	if l.debounceTimer != nil {
		l.debounceTimer.Stop()
	}
	l.debounceTimer = time.AfterFunc(l.opts.Debounce, l.reload)
	l.mu.Unlock()
}

// reload re-reads the file, rebuilds the engine and notifies subscribers
func (l *LiveEngine) reload() {
	if !l.reloading.CompareAndSwap(false, true) {
		return
	}
	defer l.reloading.Store(false)

	ctx, cancel := context.WithTimeout(l.ctx, l.opts.ReloadTimeout)
	defer cancel()

	settings := l.builder.settings
	before := settings.snapshot()

	type result struct {
		engine *Engine
		err    error
	}
	done := make(chan result, 1)
	go func() {
		if err := settings.loadFile(l.path, l.builder.opts); err != nil {
			done <- result{err: err}
			return
		}
		opts, err := l.builder.scanOptions()
		if err != nil {
			done <- result{err: err}
			return
		}
		engine, err := New(opts, l.builder.cache, l.builder.logger)
		done <- result{engine: engine, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			l.logger.Warn("configuration reload failed", "path", l.path, "error", r.err)
			l.notify(fmt.Sprintf("%s%v", EventReloadErrorPrefix, r.err))
			return
		}
		l.current.Store(r.engine)
		l.logger.Info("configuration reloaded", "path", l.path)

		after := settings.snapshot()
		for path, val := range after {
			if old, ok := before[path]; !ok || !reflect.DeepEqual(old, val) {
				l.notify(path)
			}
		}
	case <-ctx.Done():
		l.notify(EventReloadTimeout)
	}
}

func (l *LiveEngine) notify(event string) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, ch := range l.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// snapshot copies the effective value of every path.
func (s *Settings) snapshot() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(map[string]any, len(s.items))
	for path, item := range s.items {
		out[path] = item.currentValue
	}
	return out
}
