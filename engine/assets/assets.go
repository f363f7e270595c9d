package assets

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/raycast/engine/core"
)

// Editors often write a file in several steps; events closer together than
// this are folded into one reload.
const reloadDebounce = 100 * time.Millisecond

// ConfigWatcher calls OnConfigChange whenever the config file is written.
// Shader sources are watched too but only produce a warning: programs are
// linked once during initialization.
type ConfigWatcher struct {
	configPath string
	shaderDirs []string

	OnConfigChange func(path string)

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	mutex    sync.Mutex
	isClosed bool
}

func NewConfigWatcher(configPath string, shaderPaths []string, onChange func(path string)) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]struct{})
	var shaderDirs []string
	for _, p := range shaderPaths {
		dir, err := filepath.Abs(filepath.Dir(p))
		if err != nil {
			return nil, err
		}
		if _, ok := dirs[dir]; !ok {
			dirs[dir] = struct{}{}
			shaderDirs = append(shaderDirs, dir)
		}
	}

	return &ConfigWatcher{
		configPath:     abs,
		shaderDirs:     shaderDirs,
		OnConfigChange: onChange,
		done:           make(chan struct{}),
	}, nil
}

// Start watches the directories holding the config and shader files.
// Directories rather than files are watched so that editors replacing the
// file by rename are still seen.
func (cw *ConfigWatcher) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(cw.configPath)); err != nil {
		w.Close()
		return err
	}
	for _, dir := range cw.shaderDirs {
		if err := w.Add(dir); err != nil {
			core.LogWarn("not watching shader directory %s: %s", dir, err)
		}
	}
	cw.fsnotify = w

	cw.wg.Add(1)
	go cw.start()
	core.LogDebug("watching %s for changes", cw.configPath)
	return nil
}

func (cw *ConfigWatcher) start() {
	defer cw.wg.Done()

	var pending <-chan time.Time
	for {
		select {
		case e, ok := <-cw.fsnotify.Events:
			if !ok {
				return
			}
			cw.handleEvent(e, &pending)

		case <-pending:
			pending = nil
			if cw.OnConfigChange != nil {
				cw.OnConfigChange(cw.configPath)
			}

		case err, ok := <-cw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("config watcher: %s", err)

		case <-cw.done:
			return
		}
	}
}

func (cw *ConfigWatcher) handleEvent(e fsnotify.Event, pending *<-chan time.Time) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	name, err := filepath.Abs(e.Name)
	if err != nil {
		return
	}

	switch {
	case name == cw.configPath:
		*pending = time.After(reloadDebounce)
	case determineAssetKind(name) == AssetKindShader && cw.watchesShaderDir(filepath.Dir(name)):
		core.LogWarn("shader %s changed; restart to rebuild programs", filepath.Base(name))
	}
}

func (cw *ConfigWatcher) watchesShaderDir(dir string) bool {
	for _, d := range cw.shaderDirs {
		if d == dir {
			return true
		}
	}
	return false
}

// Close stops the watcher and waits for the event goroutine to exit.
func (cw *ConfigWatcher) Close() error {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	if cw.isClosed {
		return errors.New("config watcher already closed")
	}
	cw.isClosed = true
	close(cw.done)
	cw.wg.Wait()
	if cw.fsnotify != nil {
		return cw.fsnotify.Close()
	}
	return nil
}
