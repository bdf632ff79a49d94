package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/common/metrics"
	"menu-advisor/internal/engine/render"
)

const (
	DefaultVoiceTTL = 3000 * time.Millisecond
	DefaultErrorTTL = 5000 * time.Millisecond
)

// Timer is the part of *time.Timer the channel uses.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. time.AfterFunc satisfies it through
// AfterFunc below.
type Scheduler func(d time.Duration, f func()) Timer

// AfterFunc is the real-clock scheduler.
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type entry struct {
	note  render.Notification
	timer Timer
}

// Channel shows notifications on a surface and dismisses them after their
// TTL. Notifications are never deduplicated and appear in emission order.
type Channel struct {
	mu       sync.Mutex
	surface  render.Surface
	log      logger.Logger
	schedule Scheduler
	newID    func() string
	voiceTTL time.Duration
	errorTTL time.Duration
	active   []entry
	closed   bool
}

type Option func(*Channel)

func WithDurations(voice, errTTL time.Duration) Option {
	return func(c *Channel) {
		if voice > 0 {
			c.voiceTTL = voice
		}
		if errTTL > 0 {
			c.errorTTL = errTTL
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(c *Channel) { c.schedule = s }
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Channel) { c.newID = fn }
}

func NewChannel(surface render.Surface, log logger.Logger, opts ...Option) *Channel {
	c := &Channel{
		surface:  surface,
		log:      log.Component("notify"),
		schedule: AfterFunc,
		newID:    uuid.NewString,
		voiceTTL: DefaultVoiceTTL,
		errorTTL: DefaultErrorTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Voice shows transcript feedback for the voice TTL.
func (c *Channel) Voice(text string) render.Notification {
	return c.Show(render.NotificationVoice, text, c.voiceTTL)
}

// Error shows an error for the error TTL.
func (c *Channel) Error(text string) render.Notification {
	return c.Show(render.NotificationError, text, c.errorTTL)
}

// Persistent shows an error that stays until Dismiss is called.
func (c *Channel) Persistent(text string) render.Notification {
	return c.Show(render.NotificationError, text, 0)
}

// Show renders a notification. A zero ttl disables auto-dismiss.
func (c *Channel) Show(kind render.NotificationKind, text string, ttl time.Duration) render.Notification {
	note := render.Notification{ID: c.newID(), Text: text, Kind: kind}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return note
	}
	e := entry{note: note}
	if ttl > 0 {
		id := note.ID
		e.timer = c.schedule(ttl, func() { c.Dismiss(id) })
	}
	c.active = append(c.active, e)
	c.mu.Unlock()

	metrics.Notifications.WithLabelValues(string(kind)).Inc()
	c.surface.Render(render.Instruction{Kind: render.ShowNotification, Notification: note})
	c.log.Debug("notification shown", map[string]interface{}{
		"id":    note.ID,
		"kind":  string(kind),
		"ttlMs": ttl.Milliseconds(),
	})
	return note
}

// Dismiss removes the notification. It reports false when id is not active,
// which happens when a timer fires after a manual dismiss.
func (c *Channel) Dismiss(id string) bool {
	c.mu.Lock()
	idx := -1
	for i, e := range c.active {
		if e.note.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	e := c.active[idx]
	c.active = append(c.active[:idx], c.active[idx+1:]...)
	c.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
	}
	c.surface.Render(render.Instruction{Kind: render.DismissNotification, Notification: e.note})
	return true
}

// Active returns the visible notifications in emission order.
func (c *Channel) Active() []render.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]render.Notification, len(c.active))
	for i, e := range c.active {
		out[i] = e.note
	}
	return out
}

// Close stops every pending timer. Later calls to Show render nothing.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, e := range c.active {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}
