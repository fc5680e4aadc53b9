// Package memory contains an in-memory publisher implementation for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/camillebr/photosite/internal/notify"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []notify.Event
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, event notify.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns the recorded publishes.
func (p *Publisher) Events() []notify.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]notify.Event, len(p.events))
	copy(out, p.events)
	return out
}
