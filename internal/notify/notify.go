// Package notify publishes content-change events so the public site can
// revalidate its caches after an admin edit. Publishing is best effort: a
// failed notification never fails the content operation that triggered it.
package notify

import "context"

// Event kinds.
const (
	KindImageUpdated = "image.updated"
	KindImageDeleted = "image.deleted"
	KindTextUpdated  = "text.updated"
	KindTextDeleted  = "text.deleted"
)

// Event describes one content change.
type Event struct {
	Kind    string `json:"kind"`
	Section string `json:"section"`
	URL     string `json:"url,omitempty"`
}

// Publisher sends events to interested consumers.
type Publisher interface {
	// Publish delivers the event and returns a provider message ID.
	Publish(ctx context.Context, event Event) (string, error)
}

// NoOp is a Publisher that drops every event, used when notifications are
// not configured.
type NoOp struct{}

// Publish does nothing and returns an empty ID.
func (NoOp) Publish(_ context.Context, _ Event) (string, error) {
	return "", nil
}
