// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/cabloy/frontbuild/internal/meta"
)

const (
	// EventBeforeDev fires before the dev server starts.
	EventBeforeDev Event = "beforeDev"
	// EventBeforeBuild fires before a production or development build.
	EventBeforeBuild Event = "beforeBuild"
)

type (
	// Event names a host lifecycle event.
	Event string

	// Hook runs on a lifecycle event.
	Hook func(ctx context.Context, bc meta.BuildContext) error

	// Hooks is a registry of lifecycle hooks. It is safe for concurrent use.
	Hooks struct {
		mu    sync.Mutex
		hooks map[Event][]Hook
	}
)

// Command returns the CLI command matching the event.
func (e Event) Command() string {
	switch e {
	case EventBeforeDev:
		return "dev"
	case EventBeforeBuild:
		return "build"
	default:
		return string(e)
	}
}

// NewHooks creates an empty registry.
func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[Event][]Hook)}
}

// On registers fn for event. Hooks fire in registration order.
func (h *Hooks) On(event Event, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks[event] = append(h.hooks[event], fn)
}

// OnBeforeDev registers fn for EventBeforeDev.
func (h *Hooks) OnBeforeDev(fn Hook) { h.On(EventBeforeDev, fn) }

// OnBeforeBuild registers fn for EventBeforeBuild.
func (h *Hooks) OnBeforeBuild(fn Hook) { h.On(EventBeforeBuild, fn) }

// Len returns the number of hooks registered for event.
func (h *Hooks) Len(event Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks[event])
}

// Fire runs the hooks of event one after another and stops at the first
// error.
func (h *Hooks) Fire(ctx context.Context, event Event, bc meta.BuildContext) error {
	h.mu.Lock()
	hooks := append([]Hook(nil), h.hooks[event]...)
	h.mu.Unlock()

	for i, fn := range hooks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, bc); err != nil {
			return fmt.Errorf("%s hook %d: %w", event, i, err)
		}
	}
	return nil
}
