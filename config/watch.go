package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stewi1014/fractalvis/programs"
)

// ShaderExt is the extension of fragment shader overrides in a shader directory.
const ShaderExt = ".frag"

const debounceDelay = 100 * time.Millisecond

// Watcher reloads the config file and fragment shader overrides when they
// change on disk. Callbacks run on the goroutine calling Run.
type Watcher struct {
	// OnConfig receives the config after a successful reload.
	OnConfig func(Config)
	// OnShader is called after a variant's fragment shader has been replaced
	// or restored.
	OnShader func(variant string)
	Logger   *slog.Logger

	configPath string
	shaderDir  string
	fs         *fsnotify.Watcher
}

// NewWatcher starts watching configPath and shaderDir. Either may be empty.
// Directories are watched rather than files so editors that replace the file
// on save are still seen.
func NewWatcher(configPath, shaderDir string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		Logger:    slog.New(slog.DiscardHandler),
		shaderDir: shaderDir,
		fs:        fs,
	}

	if configPath != "" {
		w.configPath = filepath.Clean(configPath)
		if err := fs.Add(filepath.Dir(w.configPath)); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watching %s: %w", configPath, err)
		}
	}
	if shaderDir != "" {
		w.shaderDir = filepath.Clean(shaderDir)
		if err := fs.Add(w.shaderDir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watching %s: %w", shaderDir, err)
		}
	}

	return w, nil
}

// Run dispatches changes until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	pending := make(map[string]fsnotify.Op)
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			pending[filepath.Clean(event.Name)] |= event.Op
			debounce.Reset(debounceDelay)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watcher error", "err", err)

		case <-debounce.C:
			for name, op := range pending {
				w.handle(name, op)
			}
			clear(pending)
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.configPath != "" && name == w.configPath {
		return true
	}
	return w.shaderDir != "" && filepath.Dir(name) == w.shaderDir && filepath.Ext(name) == ShaderExt
}

func (w *Watcher) handle(name string, op fsnotify.Op) {
	if name == w.configPath {
		if op.Has(fsnotify.Remove) && !exists(name) {
			return
		}
		cfg, err := Load(name)
		if err != nil {
			w.Logger.Warn("config reload failed", "err", err)
			return
		}
		w.Logger.Info("config reloaded", "path", name)
		if w.OnConfig != nil {
			w.OnConfig(cfg)
		}
		return
	}

	variant, err := LoadShader(name)
	if err != nil {
		w.Logger.Warn("shader reload failed", "path", name, "err", err)
		return
	}
	w.Logger.Info("shader reloaded", "variant", variant)
	if w.OnShader != nil {
		w.OnShader(variant)
	}
}

// LoadShader installs the fragment shader at path for the variant named by
// the file's base name. A missing file restores the built in shader.
func LoadShader(path string) (variant string, err error) {
	variant = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return variant, programs.SetFragmentShader(variant, "")
	}
	if err != nil {
		return variant, err
	}
	return variant, programs.SetFragmentShader(variant, string(src))
}

// LoadShaders installs every override in dir. Files not named after a
// registered variant are skipped.
func LoadShaders(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ShaderExt))
	if err != nil {
		return nil, err
	}

	var loaded []string
	for _, path := range matches {
		variant, err := LoadShader(path)
		if errors.Is(err, programs.ErrUnknownVariant) {
			continue
		}
		if err != nil {
			return loaded, err
		}
		loaded = append(loaded, variant)
	}
	return loaded, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
