package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/labportal/internal/fetch"
)

// Source reads the portal document from disk. Files ending in .yaml or .yml
// are decoded as YAML; everything else must be JSON. Read always returns JSON.
type Source struct {
	path   string
	logger *zap.Logger
}

// NewSource creates a Source for path.
func NewSource(path string, logger *zap.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// Path returns the file being served.
func (s *Source) Path() string { return s.path }

// Read loads the file and returns it as JSON. JSON files are validated and
// served byte for byte; YAML files are converted key for key, so fields the
// Document type does not model survive either way.
func (s *Source) Read() ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read portal config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		return yamlToJSON(s.path, raw)
	}
	if _, err := Parse(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return raw, nil
}

func yamlToJSON(path string, raw []byte) ([]byte, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fetch.ErrParse, path, err)
	}
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fetch.ErrParse, path, err)
	}
	out, err := json.Marshal(tree)
	if err != nil {
		// Non-string mapping keys have no JSON form.
		return nil, fmt.Errorf("%w: %s: %w", fetch.ErrParse, path, err)
	}
	return out, nil
}

const watchDebounce = 250 * time.Millisecond

// Watch calls onChange whenever the file is written, created or renamed into
// place, debounced so an editor's burst of events yields one call. It blocks
// until ctx is cancelled. The parent directory is watched so atomic
// replace-by-rename is seen.
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Base(s.path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, onChange)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("portal config watcher error", zap.Error(err))
		}
	}
}
