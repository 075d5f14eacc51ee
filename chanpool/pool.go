// Package chanpool caches transport channels by endpoint so that every client
// talking to the same service shares one connection. The pool is the only
// shared mutable state in the toolkit; everything else is either immutable or
// owned by a single invocation.
package chanpool

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/meridianhq/meridian-go/transport"
)

// Dialer establishes a channel to an endpoint. The default is
// transport.Dial with the options supplied at pool construction.
type Dialer func(ctx context.Context, endpoint transport.Endpoint) (transport.Channel, error)

// Pool caches one channel per endpoint. Channels are created lazily on first
// request and live until ShutdownAll. Pass the pool by reference to the
// clients that need it; there is deliberately no package-level instance.
type Pool struct {
	mu      sync.Mutex
	entries map[transport.Endpoint]*entry
	dial    Dialer
}

type entry struct {
	once    sync.Once
	channel transport.Channel
	err     error
}

// New builds a pool around the given dialer.
func New(dial Dialer) *Pool {
	return &Pool{
		entries: make(map[transport.Endpoint]*entry),
		dial:    dial,
	}
}

// NewDefault builds a pool that dials real gRPC connections with the given
// options.
func NewDefault(opts transport.DialOptions) *Pool {
	return New(func(ctx context.Context, endpoint transport.Endpoint) (transport.Channel, error) {
		return transport.Dial(ctx, endpoint, opts)
	})
}

// Get returns the shared channel for the endpoint, dialing it on first
// access. Concurrent first access is safe: exactly one dial happens per
// distinct endpoint. A failed dial is not retained, so the next Get retries
// it.
func (p *Pool) Get(ctx context.Context, endpoint transport.Endpoint) (transport.Channel, error) {
	p.mu.Lock()
	e, ok := p.entries[endpoint]
	if !ok {
		e = &entry{}
		p.entries[endpoint] = e
	}
	p.mu.Unlock()

	e.once.Do(func() {
		e.channel, e.err = p.dial(ctx, endpoint)
	})

	if e.err != nil {
		// Drop the failed entry, unless another one already replaced it.
		p.mu.Lock()
		if p.entries[endpoint] == e {
			delete(p.entries, endpoint)
		}
		p.mu.Unlock()

		return nil, e.err
	}

	return e.channel, nil
}

// ShutdownAll closes every channel the pool created and clears its state.
// Channels obtained elsewhere are unaffected. Subsequent Get calls dial
// fresh channels.
func (p *Pool) ShutdownAll() error {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[transport.Endpoint]*entry)
	p.mu.Unlock()

	var errs []error
	for endpoint, e := range entries {
		// Wait out any dial that is still in flight for this entry, then
		// read its result safely.
		e.once.Do(func() {})

		if e.channel == nil {
			continue
		}

		if err := e.channel.Close(); err != nil {
			log.WithError(err).WithField("endpoint", endpoint.String()).Warn("error closing pooled channel")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
