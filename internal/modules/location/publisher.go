// README: Location publisher — throttled fan-out of driver position samples.
package location

import (
	"context"
	"log"
	"sync"
	"time"

	"freteiro/internal/types"
)

// Sample is one raw position fix from a driver device.
type Sample struct {
	DriverID types.ID
	Position types.Point
}

// ProfileSink writes the position onto the driver's profile.
type ProfileSink interface {
	SetPosition(ctx context.Context, driverID types.ID, pos types.Point) error
}

// DeliverySink writes the position onto the driver's active delivery, if any.
type DeliverySink interface {
	SetDriverLocation(ctx context.Context, driverID types.ID, pos types.Point) error
}

// IndexSink feeds the live geospatial index and the snapshot trail.
type IndexSink interface {
	Index(ctx context.Context, driverID types.ID, pos types.Point) error
}

// MirrorSink pushes the position to the realtime mirror consumed by client
// apps.
type MirrorSink interface {
	MirrorPosition(ctx context.Context, driverID types.ID, pos types.Point) error
}

// Publisher throttles the sample stream per driver and fans admitted samples
// out to every sink. The throttle is leading-edge: the first sample of a
// window publishes immediately, everything else inside the window is
// discarded, and nothing is flushed when the window ends. Sink failures are
// logged and never reach the caller; position data is inherently
// self-correcting.
type Publisher struct {
	profiles   ProfileSink
	deliveries DeliverySink
	index      IndexSink
	mirror     MirrorSink

	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[types.ID]time.Time

	queue chan Sample
}

func NewPublisher(profiles ProfileSink, deliveries DeliverySink, index IndexSink, mirror MirrorSink, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Publisher{
		profiles:   profiles,
		deliveries: deliveries,
		index:      index,
		mirror:     mirror,
		interval:   interval,
		now:        time.Now,
		last:       make(map[types.ID]time.Time),
		queue:      make(chan Sample, 256),
	}
}

// Offer submits a sample without blocking the caller. Samples inside a
// driver's throttle window, and samples that arrive while the queue is
// saturated, are dropped.
func (p *Publisher) Offer(s Sample) {
	if s.DriverID == "" {
		return
	}
	if !p.admit(s.DriverID) {
		return
	}
	select {
	case p.queue <- s:
	default:
		// Queue full; release the window so the next sample can try again.
		p.forget(s.DriverID)
		log.Printf("location: queue saturated, dropping sample for driver %s", s.DriverID)
	}
}

// Run drains the queue until ctx is cancelled. Meant to run as a background
// goroutine owned by the process lifecycle.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-p.queue:
			p.publish(ctx, s)
		}
	}
}

func (p *Publisher) admit(driverID types.ID) bool {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.last[driverID]; ok && now.Sub(last) < p.interval {
		return false
	}
	p.last[driverID] = now
	return true
}

func (p *Publisher) forget(driverID types.ID) {
	p.mu.Lock()
	delete(p.last, driverID)
	p.mu.Unlock()
}

func (p *Publisher) publish(ctx context.Context, s Sample) {
	if p.profiles != nil {
		if err := p.profiles.SetPosition(ctx, s.DriverID, s.Position); err != nil {
			log.Printf("location: profile write for driver %s failed: %v", s.DriverID, err)
		}
	}
	if p.deliveries != nil {
		if err := p.deliveries.SetDriverLocation(ctx, s.DriverID, s.Position); err != nil {
			log.Printf("location: delivery write for driver %s failed: %v", s.DriverID, err)
		}
	}
	if p.index != nil {
		if err := p.index.Index(ctx, s.DriverID, s.Position); err != nil {
			log.Printf("location: geo index write for driver %s failed: %v", s.DriverID, err)
		}
	}
	if p.mirror != nil {
		if err := p.mirror.MirrorPosition(ctx, s.DriverID, s.Position); err != nil {
			log.Printf("location: realtime mirror for driver %s failed: %v", s.DriverID, err)
		}
	}
}
