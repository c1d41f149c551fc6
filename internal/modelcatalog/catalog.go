// Package modelcatalog serves the GET /v1/models list from a YAML file that
// is hot-reloaded on change, so the operator can add or retire a model
// without restarting the gateway.
package modelcatalog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/halcyon-ai/relaygw/internal/logging"
)

// ModelInfo is one entry of the catalog's models.yaml.
type ModelInfo struct {
	ID      string `yaml:"id" json:"id"`
	OwnedBy string `yaml:"ownedBy" json:"owned_by"`
	Created int64  `yaml:"created,omitempty" json:"created"`
}

type fileFormat struct {
	Models []ModelInfo `yaml:"models"`
}

// ModelObject is the OpenAI-compatible `data[]` entry shape.
type ModelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ListResponse is the GET /v1/models response body.
type ListResponse struct {
	Object string        `json:"object"`
	Data   []ModelObject `json:"data"`
}

// Catalog holds the current model list and watches its backing file for
// changes, reloading on write.
type Catalog struct {
	path string

	mu     sync.RWMutex
	models []ModelInfo

	watcher *fsnotify.Watcher
}

// Load reads path once and starts a watcher that reloads on any write. A
// missing file is not an error: the catalog starts empty and will pick up
// the file once it is created.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	c.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return c, err
	}
	c.watcher = watcher

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		logging.Warnf("modelcatalog: could not watch %s: %v", dir, err)
		return c, nil
	}

	go c.watch()
	return c, nil
}

func (c *Catalog) watch() {
	var debounce *time.Timer
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(c.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, c.reload)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logging.Warnf("modelcatalog: watcher error: %v", err)
		}
	}
}

func (c *Catalog) reload() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		logging.Warnf("modelcatalog: failed to parse %s: %v", c.path, err)
		return
	}
	c.mu.Lock()
	c.models = f.Models
	c.mu.Unlock()
}

// List returns the OpenAI-compatible model listing.
func (c *Catalog) List() ListResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data := make([]ModelObject, 0, len(c.models))
	for _, m := range c.models {
		data = append(data, ModelObject{ID: m.ID, Object: "model", Created: m.Created, OwnedBy: m.OwnedBy})
	}
	return ListResponse{Object: "list", Data: data}
}

// Has reports whether id is a known model.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Close stops the file watcher.
func (c *Catalog) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}
