package poller

import (
	"benchlink/pkg/runtime"
	"context"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
	"sync"
	"time"
)

// Reader is the read side of a modbus client.
type Reader interface {
	ReadCoils(ctx context.Context, address, quantity uint16) ([]bool, error)
	ReadDiscreteInputs(ctx context.Context, address, quantity uint16) ([]bool, error)
	ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error)
	ReadInputRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error)
}

type Publisher interface {
	Publish(ctx context.Context, data *runtime.PublishData) error
}

type Status struct {
	Polls     uint64    `json:"polls"`
	Failures  uint64    `json:"failures"`
	Published uint64    `json:"published"`
	LastPoll  time.Time `json:"lastPoll,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Poller reads every point once per interval and publishes the batch.
type Poller struct {
	reader    Reader
	publisher Publisher
	interval  time.Duration
	points    []Point

	polls     atomic.Uint64
	failures  atomic.Uint64
	published atomic.Uint64

	mu        sync.RWMutex
	latest    *runtime.TimeSeriesData
	lastPoll  time.Time
	lastError string
}

func New(reader Reader, publisher Publisher, o Options) *Poller {
	points := make([]Point, len(o.Points))
	copy(points, o.Points)
	return &Poller{
		reader:    reader,
		publisher: publisher,
		interval:  o.Interval,
		points:    points,
	}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	if len(p.points) == 0 {
		klog.V(1).InfoS("No points configured, poller idle")
		return
	}
	klog.V(1).InfoS("Poller started", "points", len(p.points), "interval", p.interval)
	wait.UntilWithContext(ctx, p.tick, p.interval)
	klog.V(1).InfoS("Poller stopped")
}

func (p *Poller) tick(ctx context.Context) {
	data, err := p.Poll(ctx)
	if err != nil {
		klog.V(2).InfoS("Failed to poll points", "err", err)
	}
	if data == nil || p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, data); err != nil {
		klog.V(2).InfoS("Failed to publish points", "err", err)
		return
	}
	p.published.Inc()
}

// Poll reads every point once. Points that fail are left out of the batch; the
// batch is nil when every point failed.
func (p *Poller) Poll(ctx context.Context) (*runtime.PublishData, error) {
	p.polls.Inc()
	values := make([]runtime.PointData, 0, len(p.points))
	var errs []error
	for i := range p.points {
		point := &p.points[i]
		v, err := point.read(ctx, p.reader)
		if err != nil {
			errs = append(errs, errors.WithMessagef(err, "point %s", point.Name))
			continue
		}
		values = append(values, runtime.PointData{DataPointId: point.Name, Value: v})
	}

	now := time.Now()
	err := utilerrors.NewAggregate(errs)
	if err != nil {
		p.failures.Inc()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPoll = now
	p.lastError = ""
	if err != nil {
		p.lastError = err.Error()
	}
	if len(values) == 0 {
		return nil, err
	}
	data := runtime.NewPublishData(now, values)
	p.latest = &data.Payload.Data[0]
	return data, err
}

// Latest returns a copy of the last successful batch.
func (p *Poller) Latest() (runtime.TimeSeriesData, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return runtime.TimeSeriesData{}, false
	}
	out := runtime.TimeSeriesData{Timestamp: p.latest.Timestamp, Values: make([]runtime.PointData, len(p.latest.Values))}
	copy(out.Values, p.latest.Values)
	return out, true
}

func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Status{
		Polls:     p.polls.Load(),
		Failures:  p.failures.Load(),
		Published: p.published.Load(),
		LastPoll:  p.lastPoll,
		LastError: p.lastError,
	}
}
