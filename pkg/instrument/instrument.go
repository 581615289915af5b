package instrument

import (
	"benchlink/pkg/transport"
	"context"
	"encoding/json"
	"errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
	"time"
)

const (
	LinkSerial = "serial"
	LinkSocket = "socket"

	defaultQueryTimeout = time.Second
	// defaultQuietPeriod bounds how long Send listens for an unexpected reply.
	defaultQuietPeriod = 50 * time.Millisecond
)

// Instrument is a text command instrument on a transport channel: meters,
// testers and barcode scanners.
type Instrument struct {
	name        string
	channel     transport.Channel
	interpreter Interpreter
	timeout     time.Duration
	quiet       time.Duration
}

type Option func(*Instrument)

func WithName(name string) Option {
	return func(i *Instrument) {
		i.name = name
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(i *Instrument) {
		if timeout > 0 {
			i.timeout = timeout
		}
	}
}

func WithQuietPeriod(quiet time.Duration) Option {
	return func(i *Instrument) {
		if quiet > 0 {
			i.quiet = quiet
		}
	}
}

func New(channel transport.Channel, interpreter Interpreter, opts ...Option) *Instrument {
	i := &Instrument{
		name:        channel.Address(),
		channel:     channel,
		interpreter: interpreter,
		timeout:     defaultQueryTimeout,
		quiet:       defaultQuietPeriod,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type Config struct {
	Name string `json:"name"`
	// Link is "serial" or "socket".
	Link       string        `json:"link"`
	Terminator string        `json:"terminator,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	// Probe confirms a freshly opened link, e.g. "*IDN?".
	Probe  string                  `json:"probe,omitempty"`
	Serial transport.SerialOptions `json:"serial,omitempty"`
	Socket transport.SocketOptions `json:"socket,omitempty"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Link:       LinkSerial,
		Terminator: "\r\n",
		Timeout:    defaultQueryTimeout,
		Serial:     transport.NewDefaultSerialOptions(),
		Socket:     transport.NewDefaultSocketOptions(),
	}
}

// UnmarshalJSON fills the fields missing from data with the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	p := plain(*NewDefaultConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

func (c *Config) Validate(fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	if len(c.Name) == 0 {
		errs = append(errs, field.Required(fldPath.Child("name"), "instrument name must not be empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, field.Invalid(fldPath.Child("timeout"), c.Timeout, "must not be negative"))
	}
	switch c.Link {
	case LinkSerial:
		errs = append(errs, c.Serial.Validate(fldPath.Child("serial"))...)
	case LinkSocket:
		errs = append(errs, c.Socket.Validate(fldPath.Child("socket"))...)
	default:
		errs = append(errs, field.NotSupported(fldPath.Child("link"), c.Link, []string{LinkSerial, LinkSocket}))
	}
	return errs
}

// NewFromConfig builds the channel and a line interpreter for cfg. The channel
// is not connected yet.
func NewFromConfig(cfg *Config) (*Instrument, error) {
	interpreter := &LineInterpreter{Terminator: cfg.Terminator}

	var handshake *transport.Handshake
	if len(cfg.Probe) > 0 {
		probe, err := interpreter.Encode(cfg.Probe)
		if err != nil {
			return nil, err
		}
		handshake = &transport.Handshake{Probe: probe}
	}

	var channel transport.Channel
	var err error
	switch cfg.Link {
	case LinkSerial:
		o := cfg.Serial
		o.Handshake = handshake
		channel, err = transport.NewSerialChannel(o)
	case LinkSocket:
		o := cfg.Socket
		o.Handshake = handshake
		channel, err = transport.NewSocketChannel(o)
	default:
		return nil, transport.ErrInvalidConfiguration
	}
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if len(name) == 0 {
		name = channel.Address()
	}
	return New(channel, interpreter, WithName(name), WithTimeout(cfg.Timeout)), nil
}

func (i *Instrument) Name() string {
	return i.name
}

func (i *Instrument) Connect() {
	i.channel.Connect()
}

func (i *Instrument) Disconnect() {
	i.channel.Disconnect()
}

func (i *Instrument) State() transport.State {
	return i.channel.State()
}

func (i *Instrument) WaitConnected(ctx context.Context) error {
	return i.channel.WaitConnected(ctx)
}

// Query sends command and returns the decoded reply.
func (i *Instrument) Query(ctx context.Context, command string) (string, error) {
	request, err := i.interpreter.Encode(command)
	if err != nil {
		return "", err
	}
	reply, err := i.channel.SendAndReceive(ctx, request, i.timeout, i.interpreter.Complete())
	if err != nil {
		klog.V(2).InfoS("Failed to query instrument", "instrument", i.name, "command", command, "received", len(reply), "err", err)
		return "", err
	}
	line, err := i.interpreter.Decode(reply)
	if err != nil {
		klog.V(2).InfoS("Failed to decode instrument reply", "instrument", i.name, "command", command, "reply", reply, "err", err)
		return line, err
	}
	klog.V(4).InfoS("Succeed to query instrument", "instrument", i.name, "command", command, "reply", line)
	return line, nil
}

// Send issues a command that normally has no reply, such as "*RST". A reply that
// does arrive within the quiet period is still checked for instrument errors.
func (i *Instrument) Send(ctx context.Context, command string) error {
	request, err := i.interpreter.Encode(command)
	if err != nil {
		return err
	}
	reply, err := i.channel.SendAndReceive(ctx, request, i.quiet, i.interpreter.Complete())
	switch {
	case errors.Is(err, transport.ErrTimeout) && len(reply) == 0:
		return nil
	case err != nil:
		klog.V(2).InfoS("Failed to send instrument command", "instrument", i.name, "command", command, "err", err)
		return err
	}
	_, err = i.interpreter.Decode(reply)
	return err
}
