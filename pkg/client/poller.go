package client

import (
	"context"
	"reflect"
	"sync"
	"time"

	"mentorship/backend/pkg/mentorship"

	"github.com/rs/zerolog"
)

// Poll interval bounds.
const (
	DefaultPollInterval = 3 * time.Second
	MinPollInterval     = time.Second
	MaxPollInterval     = 5 * time.Second
)

// ClampInterval returns d within [MinPollInterval, MaxPollInterval]; a
// non-positive d gives DefaultPollInterval.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultPollInterval
	case d < MinPollInterval:
		return MinPollInterval
	case d > MaxPollInterval:
		return MaxPollInterval
	default:
		return d
	}
}

// Poller periodically re-reads the relationship list and publishes the
// views that changed to the hub, so a viewer sees the other party's
// actions without a push channel.
type Poller struct {
	repo     *Repository
	hub      *Hub
	interval time.Duration
	log      zerolog.Logger

	mu   sync.Mutex
	last map[uint]interface{}

	quit     chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
}

// NewPoller creates a poller over repo publishing to hub.
func NewPoller(repo *Repository, hub *Hub, interval time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		repo:     repo,
		hub:      hub,
		interval: ClampInterval(interval),
		log:      log,
		last:     make(map[uint]interface{}),
		quit:     make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Interval returns the effective poll interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Watch subscribes to a topic: a counterparty id, or ProfileTopic. The
// current view is delivered on the next poll. buffer is at least 1. The
// returned func unsubscribes.
func (p *Poller) Watch(topic uint, buffer int) (Subscriber, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := make(Subscriber, buffer)
	p.hub.Subscribe(topic, sub)

	p.mu.Lock()
	delete(p.last, topic)
	p.mu.Unlock()

	return sub, func() { p.hub.Unsubscribe(topic, sub) }
}

// Start launches the poll loop in a background goroutine. It polls once
// immediately.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

// Stop signals the poller to stop and returns immediately. It is safe to
// call more than once. Call Done() to wait for it to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
}

// Done returns a channel that is closed when the poller has fully stopped.
func (p *Poller) Done() <-chan struct{} {
	return p.doneCh
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollLogged(ctx)
	for {
		select {
		case <-p.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollLogged(ctx)
		}
	}
}

func (p *Poller) pollLogged(ctx context.Context) {
	if err := p.Poll(ctx); err != nil {
		p.log.Warn().Err(err).Msg("poller: refresh failed")
	}
}

// Poll refreshes the list once and publishes every watched view that
// differs from what was last delivered. A view some subscriber missed is
// published again on the next poll.
func (p *Poller) Poll(ctx context.Context) error {
	rows, err := p.repo.Refresh(ctx)
	if err != nil {
		return err
	}

	me := p.repo.Me()
	for _, topic := range p.hub.Topics() {
		var (
			view  interface{}
			event Event
		)
		if topic == ProfileTopic {
			profile := mentorship.Aggregate(rows, me)
			view = profile
			event = Event{Type: EventProfile, Topic: topic, Profile: &profile}
		} else {
			pair := mentorship.ResolvePair(rows, me, topic)
			view = pair
			event = Event{Type: EventPair, Topic: topic, Pair: &pair}
		}

		if !p.changed(topic, view) {
			continue
		}
		p.log.Debug().Str("type", event.Type).Uint("topic", topic).Msg("poller: view changed")
		if missed := p.hub.Publish(event); missed > 0 {
			p.log.Debug().Uint("topic", topic).Int("missed", missed).Msg("poller: subscriber buffer full")
			continue
		}
		p.record(topic, view)
	}
	return nil
}

func (p *Poller) changed(topic uint, view interface{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, ok := p.last[topic]
	return !ok || !reflect.DeepEqual(prev, view)
}

func (p *Poller) record(topic uint, view interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last[topic] = view
}
