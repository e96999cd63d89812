package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/roomchat/internal/domain"
)

// DefaultNotificationTTL is how long a banner stays up when no TTL is configured.
const DefaultNotificationTTL = 4 * time.Second

// Notifier holds the single transient banner of a session and dismisses it
// after a fixed interval.
type Notifier struct {
	ttl      time.Duration
	onExpire func(domain.Notification)

	mu      sync.Mutex
	current *domain.Notification
	timer   *time.Timer
	stopped bool
}

// NewNotifier creates a Notifier. onExpire, if set, runs on the timer
// goroutine after a banner is auto-dismissed; it may take other locks.
func NewNotifier(ttl time.Duration, onExpire func(domain.Notification)) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl, onExpire: onExpire}
}

// Show replaces the current banner and restarts the dismissal timer.
func (n *Notifier) Show(level domain.Level, text string) domain.Notification {
	note := domain.Notification{ID: uuid.NewString(), Level: level, Text: text}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return note
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.current = &note
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(note.ID) })
	return note
}

// Current returns a copy of the visible banner, or nil.
func (n *Notifier) Current() *domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	c := *n.current
	return &c
}

// Dismiss removes the banner if id is still the visible one.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil || n.current.ID != id {
		return false
	}
	n.current = nil
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	return true
}

// Stop cancels any pending dismissal. Later calls to Show are ignored.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	n.current = nil
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) expire(id string) {
	n.mu.Lock()
	if n.current == nil || n.current.ID != id {
		n.mu.Unlock()
		return
	}
	expired := *n.current
	n.current = nil
	n.timer = nil
	n.mu.Unlock()

	if n.onExpire != nil {
		n.onExpire(expired)
	}
}
