package form

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/internal/schema"
)

type formKey struct {
	id   string
	mode schema.Mode
}

// Registry keeps one Controller per browser form instance and mode.
type Registry struct {
	auth Authenticator
	ttl  time.Duration
	opts []Option

	mu    sync.Mutex
	forms map[formKey]*Controller
}

func NewRegistry(auth Authenticator, ttl time.Duration, opts ...Option) *Registry {
	return &Registry{
		auth:  auth,
		ttl:   ttl,
		opts:  opts,
		forms: make(map[formKey]*Controller),
	}
}

// Get returns the controller for id and mode, creating it on first use.
func (r *Registry) Get(id string, mode schema.Mode) *Controller {
	key := formKey{id: id, mode: mode}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.forms[key]; ok {
		return c
	}

	opts := make([]Option, 0, len(r.opts)+1)
	opts = append(opts, r.opts...)
	opts = append(opts, WithLogger(log.WithField("form_id", id)))
	c := NewController(mode, r.auth, opts...)
	r.forms[key] = c
	return c
}

// Drop forgets every controller of the form instance id.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.forms {
		if key.id == id {
			delete(r.forms, key)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// Sweep evicts controllers idle for longer than the TTL. Controllers with a submission
// in flight are kept. It returns the number evicted.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for key, c := range r.forms {
		if now.Sub(c.LastActive()) < r.ttl {
			continue
		}
		if c.Snapshot().Status.State == Submitting {
			continue
		}
		delete(r.forms, key)
		evicted++
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				log.WithField("evicted", n).Debug("Swept idle forms")
			}
		}
	}
}
