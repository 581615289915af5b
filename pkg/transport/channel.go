package transport

import (
	"bytes"
	"context"
	"errors"
	"go.uber.org/atomic"
	"io"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
	"sync"
	"time"
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

var StateToString = map[State]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Connected:    "connected",
}

func (s State) String() string {
	return StateToString[s]
}

// FrameComplete reports whether the bytes accumulated so far hold a complete reply.
// A nil FrameComplete ends the read as soon as data has arrived and the line
// stays quiet for one poll interval.
type FrameComplete func(received []byte) bool

// DelimiterFrame completes once b has been received.
func DelimiterFrame(b byte) FrameComplete {
	return func(received []byte) bool {
		return bytes.IndexByte(received, b) >= 0
	}
}

// SuffixFrame completes once the received bytes end with suffix.
func SuffixFrame(suffix []byte) FrameComplete {
	return func(received []byte) bool {
		return bytes.HasSuffix(received, suffix)
	}
}

// LengthFrame completes once at least n bytes have been received.
func LengthFrame(n int) FrameComplete {
	return func(received []byte) bool {
		return len(received) >= n
	}
}

// Channel owns one physical link. Connect starts a background loop that keeps the
// link open; SendAndReceive runs one request/response exchange at a time.
type Channel interface {
	Connect()
	Disconnect()
	State() State
	WaitConnected(ctx context.Context) error
	// SendAndReceive writes request and reads until complete matches or timeout
	// elapses. On ErrTimeout the bytes received so far are returned with the error.
	// A timeout <= 0 uses the channel default.
	SendAndReceive(ctx context.Context, request []byte, timeout time.Duration, complete FrameComplete) ([]byte, error)
	Address() string
	Timeout() time.Duration
}

// link is an opened serial port or socket.
type link interface {
	// read blocks for at most the poll interval and returns 0, nil on a quiet line.
	read(p []byte) (int, error)
	write(p []byte) (int, error)
	// discard drops buffered input and output.
	discard() error
	close() error
}

type dialer func() (link, error)

type Handshake struct {
	// Probe is sent right after the link opens; any non-empty reply marks the link alive.
	Probe   []byte        `json:"probe,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

var _ Channel = (*channel)(nil)

type channel struct {
	address           string
	dial              dialer
	timeout           time.Duration
	reconnectInterval time.Duration
	handshake         *Handshake

	// mu serializes exchanges and guards link against the reconnect loop.
	mu    sync.Mutex
	link  link
	state atomic.Int32

	stopping  atomic.Bool
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func newChannel(address string, dial dialer, timeout, reconnectInterval time.Duration, handshake *Handshake) *channel {
	if reconnectInterval <= 0 {
		reconnectInterval = defaultReconnectInterval
	}
	if handshake != nil {
		hs := *handshake
		if hs.Timeout <= 0 {
			hs.Timeout = defaultHandshakeTimeout
		}
		handshake = &hs
	}
	return &channel{
		address:           address,
		dial:              dial,
		timeout:           timeout,
		reconnectInterval: reconnectInterval,
		handshake:         handshake,
	}
}

func (c *channel) Address() string {
	return c.address
}

func (c *channel) Timeout() time.Duration {
	return c.timeout
}

func (c *channel) State() State {
	return State(c.state.Load())
}

func (c *channel) setState(s State) {
	if old := State(c.state.Swap(int32(s))); old != s {
		klog.V(3).InfoS("Channel state changed", "address", c.address, "from", old, "to", s)
	}
}

// Connect starts the reconnect loop. It returns immediately and is a no-op while the loop runs.
func (c *channel) Connect() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.cancel != nil {
		return
	}
	c.stopping.Store(false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	go func() {
		defer close(done)
		wait.UntilWithContext(ctx, c.reconcile, c.reconnectInterval)
	}()
	klog.V(1).InfoS("Channel reconnect loop started", "address", c.address, "interval", c.reconnectInterval)
}

// Disconnect stops the reconnect loop and closes the link. An exchange in flight
// returns ErrNotConnected within one poll interval. Safe to call repeatedly.
func (c *channel) Disconnect() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stopping.Store(true)
	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
		c.done = nil
		klog.V(1).InfoS("Channel reconnect loop stopped", "address", c.address)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.link != nil {
		if err := c.link.discard(); err != nil {
			klog.V(4).InfoS("Failed to flush link", "address", c.address, "err", err)
		}
		if err := c.link.close(); err != nil {
			klog.V(2).InfoS("Failed to close link", "address", c.address, "err", err)
		}
		c.link = nil
	}
	c.setState(Disconnected)
}

func (c *channel) WaitConnected(ctx context.Context) error {
	return wait.PollUntilContextCancel(ctx, 10*time.Millisecond, true, func(ctx context.Context) (bool, error) {
		return c.State() == Connected, nil
	})
}

// reconcile opens the link when it is down. It runs on the reconnect loop only.
func (c *channel) reconcile(ctx context.Context) {
	if c.State() == Connected {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.link != nil {
		return
	}

	c.setState(Connecting)
	l, err := c.dial()
	if err != nil {
		klog.V(2).InfoS("Failed to open link", "address", c.address, "err", err)
		c.setState(Disconnected)
		return
	}
	if err = c.probe(l); err != nil {
		klog.V(2).InfoS("Failed to confirm link", "address", c.address, "err", err)
		_ = l.close()
		c.setState(Disconnected)
		return
	}
	c.link = l
	c.setState(Connected)
	klog.V(1).InfoS("Channel connected", "address", c.address)
}

func (c *channel) probe(l link) error {
	if c.handshake == nil || len(c.handshake.Probe) == 0 {
		return nil
	}
	reply, err := c.roundTrip(context.Background(), l, c.handshake.Probe, c.handshake.Timeout, nil)
	if err != nil && !errors.Is(err, ErrTimeout) {
		return err
	}
	if len(reply) == 0 {
		return ErrHandshakeFailed
	}
	klog.V(4).InfoS("Succeed to confirm link", "address", c.address, "reply", reply)
	return nil
}

func (c *channel) SendAndReceive(ctx context.Context, request []byte, timeout time.Duration, complete FrameComplete) ([]byte, error) {
	if len(request) == 0 {
		return nil, ErrEmptyRequest
	}
	if timeout <= 0 {
		timeout = c.timeout
	}
	if c.State() != Connected {
		return nil, ErrNotConnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.link == nil || c.State() != Connected {
		return nil, ErrNotConnected
	}

	received, err := c.roundTrip(ctx, c.link, request, timeout, complete)
	var te *TransportError
	if errors.As(err, &te) {
		c.drop()
	}
	return received, err
}

// drop closes a failed link so the reconnect loop opens a fresh one. Caller holds mu.
func (c *channel) drop() {
	if c.link == nil {
		return
	}
	if err := c.link.close(); err != nil {
		klog.V(4).InfoS("Failed to close failed link", "address", c.address, "err", err)
	}
	c.link = nil
	c.setState(Disconnected)
}

func (c *channel) roundTrip(ctx context.Context, l link, request []byte, timeout time.Duration, complete FrameComplete) ([]byte, error) {
	if err := l.discard(); err != nil {
		return nil, &TransportError{Op: "discard", Address: c.address, Err: err}
	}
	n, err := l.write(request)
	if err == nil && n != len(request) {
		err = io.ErrShortWrite
	}
	if err != nil {
		klog.V(2).InfoS("Failed to write bytes", "address", c.address, "written", n, "length", len(request), "err", err)
		return nil, &TransportError{Op: "write", Address: c.address, Err: err}
	}
	klog.V(5).InfoS("Succeed to write bytes", "address", c.address, "bytes", request)

	deadline := time.Now().Add(timeout)
	buf := make([]byte, readBufferSize)
	var received []byte
	for {
		if c.stopping.Load() {
			return received, ErrNotConnected
		}
		if err := ctx.Err(); err != nil {
			return received, err
		}

		n, err := l.read(buf)
		if err != nil {
			klog.V(2).InfoS("Failed to read bytes", "address", c.address, "err", err)
			return received, &TransportError{Op: "read", Address: c.address, Err: err}
		}
		if n > 0 {
			received = append(received, buf[:n]...)
		}
		if len(received) > 0 {
			if (complete == nil && n == 0) || (complete != nil && complete(received)) {
				klog.V(5).InfoS("Succeed to read bytes", "address", c.address, "bytes", received)
				return received, nil
			}
		}
		if !time.Now().Before(deadline) {
			klog.V(4).InfoS("Receive timed out", "address", c.address, "timeout", timeout, "received", len(received))
			return received, ErrTimeout
		}
	}
}
