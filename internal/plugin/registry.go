// Package plugin hosts optional panel extensions. A plugin opts into each
// capability by implementing the matching interface.
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/events"
)

var (
	ErrUnknownPlugin   = errors.New("unknown plugin")
	ErrDuplicatePlugin = errors.New("plugin already registered")
)

// Plugin is the minimal plugin.
type Plugin interface {
	Name() string
}

// Adder is notified once the plugin joined a registry.
type Adder interface {
	Added(host Host)
}

// Clickable reacts to the plugin's toolbar button.
type Clickable interface {
	Clicked()
}

// ContentProvider supplies the body of the plugin's settings dialog.
type ContentProvider interface {
	Content() string
}

// Host is what plugins see of the application.
type Host interface {
	Bus() *events.Bus
}

type Registry struct {
	bus    *events.Bus
	logger *zap.Logger

	mu      sync.RWMutex
	plugins map[string]Plugin
}

func NewRegistry(bus *events.Bus, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		bus:     bus,
		logger:  logger,
		plugins: make(map[string]Plugin),
	}
}

// Bus implements Host.
func (r *Registry) Bus() *events.Bus { return r.bus }

// Add registers p under id, announces it and then calls its Added hook.
func (r *Registry) Add(id string, p Plugin) error {
	r.mu.Lock()
	if _, exists := r.plugins[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, id)
	}
	r.plugins[id] = p
	r.mu.Unlock()

	r.logger.Info("plugin added", zap.String("id", id), zap.String("name", p.Name()))
	r.bus.Publish(events.PluginAdded{ID: id})

	if a, ok := p.(Adder); ok {
		a.Added(r)
	}
	return nil
}

// Get returns the plugin registered under id.
func (r *Registry) Get(id string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HandleClick runs the plugin's click hook and asks the shell to show its
// settings when it provides any.
func (r *Registry) HandleClick(id string) error {
	p, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
	}
	debug.Log(debug.PLUGIN, "click: %s", id)

	if c, ok := p.(Clickable); ok {
		c.Clicked()
	}
	if cp, ok := p.(ContentProvider); ok {
		r.bus.Publish(events.ConfigDialogRequested{PluginID: id, Content: cp.Content()})
	}
	return nil
}
