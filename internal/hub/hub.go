// Package hub drives the controller poll loop and fans snapshots out
// to subscribers, the recorder and the Redis publisher.
package hub

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ksurct/common/gamepad"
	"github.com/ksurct/common/internal/log"
	"github.com/ksurct/common/internal/metrics"
)

// ErrUnknownController is returned for operations on unregistered IDs.
var ErrUnknownController = errors.New("unknown controller")

// Appender receives every snapshot of a polled controller. The
// recorder implements it.
type Appender interface {
	Append(ctx context.Context, snap gamepad.Snapshot) error
}

// Publisher pushes snapshots to external consumers. Publish must not
// block the poll loop and must swallow its own failures.
type Publisher interface {
	Publish(ctx context.Context, snap gamepad.Snapshot)
}

// Options configures the hub's timing.
type Options struct {
	// PollInterval is the period of the device poll loop.
	PollInterval time.Duration
	// SnapshotHz caps the snapshot rate delivered to each subscriber.
	SnapshotHz float64
}

type pad struct {
	id        string
	ctrl      *gamepad.Controller
	last      gamepad.Snapshot
	connected bool
}

type subscriber struct {
	ch         chan gamepad.Snapshot
	controller string // "" matches all controllers
	limiter    *rate.Limiter
}

// Hub owns all registered controllers and their poll loop.
type Hub struct {
	opts      Options
	logger    zerolog.Logger
	appender  Appender
	publisher Publisher

	mu       sync.RWMutex
	pads     map[string]*pad
	subs     map[uint64]*subscriber
	nextSub  uint64
	lastPoll time.Time
}

// New creates a hub. Appender and publisher may be nil.
func New(opts Options, appender Appender, publisher Publisher) *Hub {
	return &Hub{
		opts:      opts,
		logger:    log.WithComponent("hub"),
		appender:  appender,
		publisher: publisher,
		pads:      make(map[string]*pad),
		subs:      make(map[uint64]*subscriber),
	}
}

// Add registers a controller under the given ID.
func (h *Hub) Add(id string, ctrl *gamepad.Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := ctrl.Snapshot()
	snap.Controller = id
	h.pads[id] = &pad{id: id, ctrl: ctrl, last: snap, connected: true}
	metrics.ControllersConnected.Set(float64(h.connectedLocked()))

	h.logger.Info().
		Str(log.FieldController, id).
		Str(log.FieldDevice, ctrl.Name()).
		Str(log.FieldEvent, "controller.added").
		Msg("controller registered")
}

func (h *Hub) connectedLocked() int {
	n := 0
	for _, p := range h.pads {
		if p.connected {
			n++
		}
	}
	return n
}

// Connected reports the number of controllers still polled.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connectedLocked()
}

// LastPoll reports when the last poll cycle completed.
func (h *Hub) LastPoll() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastPoll
}

// Snapshots returns the latest snapshot of every controller, ordered
// by ID.
func (h *Hub) Snapshots() []gamepad.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]gamepad.Snapshot, 0, len(h.pads))
	for _, p := range h.pads {
		out = append(out, p.last)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Controller < out[j].Controller })
	return out
}

// Snapshot returns the latest snapshot of one controller.
func (h *Hub) Snapshot(id string) (gamepad.Snapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.pads[id]
	if !ok {
		return gamepad.Snapshot{}, ErrUnknownController
	}
	return p.last, nil
}

// Rumble plays force feedback on one controller.
func (h *Hub) Rumble(id string, strength float64, d time.Duration) error {
	h.mu.RLock()
	p, ok := h.pads[id]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownController
	}
	return p.ctrl.Rumble(strength, d)
}

// Zero recalibrates one controller's axes at their current positions.
func (h *Hub) Zero(id string) error {
	h.mu.RLock()
	p, ok := h.pads[id]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownController
	}
	p.ctrl.Zero()
	return nil
}

// Subscribe returns a channel of snapshots for one controller, or for
// all when id is empty. Slow consumers lose frames rather than stall
// the poll loop. The returned cancel func releases the subscription.
func (h *Hub) Subscribe(id string) (<-chan gamepad.Snapshot, func()) {
	limit := rate.Inf
	if h.opts.SnapshotHz > 0 {
		limit = rate.Limit(h.opts.SnapshotHz)
	}
	sub := &subscriber{
		ch:         make(chan gamepad.Snapshot, 16),
		controller: id,
		limiter:    rate.NewLimiter(limit, 1),
	}

	h.mu.Lock()
	key := h.nextSub
	h.nextSub++
	h.subs[key] = sub
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[key]; ok {
			delete(h.subs, key)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Run executes the poll loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.opts.PollInterval)
	defer ticker.Stop()

	h.logger.Info().
		Dur("interval", h.opts.PollInterval).
		Float64("snapshot_hz", h.opts.SnapshotHz).
		Str(log.FieldEvent, "hub.started").
		Msg("poll loop started")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "hub.stopped").Msg("poll loop stopped")
			return ctx.Err()
		case <-ticker.C:
			h.pollOnce(ctx)
		}
	}
}

// pollOnce updates every connected controller concurrently, then fans
// the resulting snapshots out.
func (h *Hub) pollOnce(ctx context.Context) {
	start := time.Now()

	h.mu.RLock()
	pads := make([]*pad, 0, len(h.pads))
	for _, p := range h.pads {
		if p.connected {
			pads = append(pads, p)
		}
	}
	h.mu.RUnlock()

	snaps := make([]gamepad.Snapshot, len(pads))
	g := new(errgroup.Group)
	for i, p := range pads {
		g.Go(func() error {
			snaps[i] = h.pollPad(p)
			return nil
		})
	}
	_ = g.Wait()

	h.mu.Lock()
	h.lastPoll = time.Now()
	h.mu.Unlock()
	metrics.ObservePoll(time.Since(start))

	for _, snap := range snaps {
		h.deliver(ctx, snap)
	}
}

func (h *Hub) pollPad(p *pad) gamepad.Snapshot {
	evs, err := p.ctrl.Update()
	if err != nil {
		metrics.IncPollError(p.id)
		metrics.IncEvent(p.id, gamepad.EventDevice.String())
		h.logger.Warn().Err(err).
			Str(log.FieldController, p.id).
			Str(log.FieldEvent, "controller.lost").
			Msg("poll failed, dropping controller")

		h.mu.Lock()
		p.connected = false
		p.last.Connected = false
		snap := p.last
		metrics.ControllersConnected.Set(float64(h.connectedLocked()))
		h.mu.Unlock()
		return snap
	}

	for _, ev := range evs {
		metrics.IncEvent(p.id, ev.Type.String())
	}

	snap := p.ctrl.Snapshot()
	snap.Controller = p.id
	h.mu.Lock()
	p.last = snap
	h.mu.Unlock()
	return snap
}

func (h *Hub) deliver(ctx context.Context, snap gamepad.Snapshot) {
	if h.appender != nil {
		if err := h.appender.Append(ctx, snap); err != nil {
			h.logger.Warn().Err(err).
				Str(log.FieldController, snap.Controller).
				Msg("recording append failed")
		}
	}
	if h.publisher != nil {
		h.publisher.Publish(ctx, snap)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.controller != "" && sub.controller != snap.Controller {
			continue
		}
		if !sub.limiter.Allow() {
			continue
		}
		select {
		case sub.ch <- snap:
			metrics.IncSnapshot(true)
		default:
			metrics.IncSnapshot(false)
		}
	}
}
