package modbus

import (
	"benchlink/pkg/protocol/modbus/model"
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/transport"
	"benchlink/pkg/utils/binutil"
	"context"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
	"time"
)

// Client talks to one modbus unit over a transport channel. All operations are
// safe for concurrent use; exchanges are serialized by the channel.
type Client struct {
	mode    modbus.Mode
	framer  model.Framer
	channel transport.Channel
	unitId  uint8
	timeout time.Duration

	transactionId atomic.Uint32
}

type Option func(*Client)

func WithUnitId(unitId uint8) Option {
	return func(c *Client) {
		c.unitId = unitId
	}
}

// WithTimeout overrides the per-request response timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewClient(mode modbus.Mode, channel transport.Channel, opts ...Option) (*Client, error) {
	framer, ok := model.Framers[mode]
	if !ok {
		return nil, errors.Wrapf(modbus.ErrUnsupportedMode, "%q", mode)
	}
	if channel == nil {
		return nil, errors.New("modbus client needs a transport channel")
	}
	c := &Client{
		mode:    mode,
		framer:  framer,
		channel: channel,
		unitId:  1,
		timeout: defaultTimeout(mode, channel),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientConfig describes a client together with the channel it runs on.
type ClientConfig struct {
	Mode    modbus.Mode   `json:"mode"`
	UnitId  uint8         `json:"unitId"`
	Timeout time.Duration `json:"timeout,omitempty"`
	// Handshake confirms every freshly opened link with a one register read.
	Handshake bool                    `json:"handshake,omitempty"`
	Serial    transport.SerialOptions `json:"serial,omitempty"`
	Socket    transport.SocketOptions `json:"socket,omitempty"`
}

func NewDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Mode:   modbus.Rtu,
		UnitId: 1,
		Serial: transport.NewDefaultSerialOptions(),
		Socket: transport.NewDefaultSocketOptions(),
	}
}

func (cfg *ClientConfig) Validate(fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	framer, ok := model.Framers[cfg.Mode]
	if !ok {
		modes := make([]string, 0, len(modbus.Modes))
		for _, m := range modbus.Modes {
			modes = append(modes, string(m))
		}
		return append(errs, field.NotSupported(fldPath.Child("mode"), cfg.Mode, modes))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, field.Invalid(fldPath.Child("timeout"), cfg.Timeout, "must not be negative"))
	}
	if framer.Mode().Serial() {
		errs = append(errs, cfg.Serial.Validate(fldPath.Child("serial"))...)
	} else {
		errs = append(errs, cfg.Socket.Validate(fldPath.Child("socket"))...)
	}
	return errs
}

// New builds the channel described by cfg and a client on top of it. The
// channel is not connected yet.
func New(cfg *ClientConfig) (*Client, error) {
	framer, ok := model.Framers[cfg.Mode]
	if !ok {
		return nil, errors.Wrapf(modbus.ErrUnsupportedMode, "%q", cfg.Mode)
	}

	var handshake *transport.Handshake
	if cfg.Handshake {
		probe, err := framer.Encode(&modbus.Request{
			UnitId:       cfg.UnitId,
			FunctionCode: modbus.ReadHoldingRegisters,
			Payload:      addressQuantity(0, 1),
		})
		if err != nil {
			return nil, err
		}
		handshake = &transport.Handshake{Probe: probe}
	}

	var channel transport.Channel
	var err error
	if cfg.Mode.Serial() {
		o := cfg.Serial
		o.Handshake = handshake
		channel, err = transport.NewSerialChannel(o)
	} else {
		o := cfg.Socket
		o.Handshake = handshake
		channel, err = transport.NewSocketChannel(o)
	}
	if err != nil {
		return nil, err
	}
	return NewClient(cfg.Mode, channel, WithUnitId(cfg.UnitId), WithTimeout(cfg.Timeout))
}

func defaultTimeout(mode modbus.Mode, channel transport.Channel) time.Duration {
	switch mode {
	case modbus.Rtu:
		return modbus.RtuTimeout
	case modbus.Ascii:
		return modbus.AsciiTimeout
	}
	if t := channel.Timeout(); t > 0 {
		return t
	}
	return modbus.TcpTimeout
}

func (c *Client) Mode() modbus.Mode {
	return c.mode
}

func (c *Client) UnitId() uint8 {
	return c.unitId
}

func (c *Client) Address() string {
	return c.channel.Address()
}

func (c *Client) Connect() {
	c.channel.Connect()
}

func (c *Client) Disconnect() {
	c.channel.Disconnect()
}

func (c *Client) State() transport.State {
	return c.channel.State()
}

func (c *Client) WaitConnected(ctx context.Context) error {
	return c.channel.WaitConnected(ctx)
}

func (c *Client) ReadCoils(ctx context.Context, address, quantity uint16) ([]bool, error) {
	return c.readBits(ctx, modbus.ReadCoils, address, quantity)
}

func (c *Client) ReadDiscreteInputs(ctx context.Context, address, quantity uint16) ([]bool, error) {
	return c.readBits(ctx, modbus.ReadDiscreteInputs, address, quantity)
}

func (c *Client) ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	return c.readRegisters(ctx, modbus.ReadHoldingRegisters, address, quantity)
}

func (c *Client) ReadInputRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	return c.readRegisters(ctx, modbus.ReadInputRegisters, address, quantity)
}

func (c *Client) WriteSingleCoil(ctx context.Context, address uint16, value bool) error {
	v := modbus.CoilOff
	if value {
		v = modbus.CoilOn
	}
	payload := make([]byte, 4)
	binutil.WriteUint16(payload, address)
	binutil.WriteUint16(payload[2:], v)
	_, err := c.send(ctx, modbus.WriteSingleCoil, payload)
	return err
}

func (c *Client) WriteSingleRegister(ctx context.Context, address, value uint16) error {
	payload := make([]byte, 4)
	binutil.WriteUint16(payload, address)
	binutil.WriteUint16(payload[2:], value)
	_, err := c.send(ctx, modbus.WriteSingleRegister, payload)
	return err
}

func (c *Client) WriteMultipleCoils(ctx context.Context, address uint16, values []bool) error {
	if err := checkRange(address, len(values), modbus.MaxWriteCoils); err != nil {
		return err
	}
	packed := binutil.ShrinkBool(values)
	payload := append(addressQuantity(address, uint16(len(values))), byte(len(packed)))
	payload = append(payload, packed...)
	response, err := c.send(ctx, modbus.WriteMultipleCoils, payload)
	if err != nil {
		return err
	}
	return checkEcho(response, len(values))
}

func (c *Client) WriteMultipleRegisters(ctx context.Context, address uint16, values []uint16) error {
	if err := checkRange(address, len(values), modbus.MaxWriteRegisters); err != nil {
		return err
	}
	data := binutil.Uint16sToBytes(values)
	payload := append(addressQuantity(address, uint16(len(values))), byte(len(data)))
	payload = append(payload, data...)
	response, err := c.send(ctx, modbus.WriteMultipleRegisters, payload)
	if err != nil {
		return err
	}
	return checkEcho(response, len(values))
}

// Execute sends a raw PDU and returns the response payload after the function code.
func (c *Client) Execute(ctx context.Context, functionCode modbus.FunctionCode, payload []byte) ([]byte, error) {
	response, err := c.send(ctx, functionCode, payload)
	if err != nil {
		return nil, err
	}
	return response.Payload, nil
}

func (c *Client) readBits(ctx context.Context, functionCode modbus.FunctionCode, address, quantity uint16) ([]bool, error) {
	if err := checkRange(address, int(quantity), modbus.MaxReadBits); err != nil {
		return nil, err
	}
	response, err := c.send(ctx, functionCode, addressQuantity(address, quantity))
	if err != nil {
		return nil, err
	}
	data, err := c.readData(response.Payload, binutil.PackedLength(int(quantity)))
	if err != nil {
		return nil, err
	}
	return binutil.ExpandBool(data, int(quantity)), nil
}

func (c *Client) readRegisters(ctx context.Context, functionCode modbus.FunctionCode, address, quantity uint16) ([]uint16, error) {
	if err := checkRange(address, int(quantity), modbus.MaxReadRegisters); err != nil {
		return nil, err
	}
	response, err := c.send(ctx, functionCode, addressQuantity(address, quantity))
	if err != nil {
		return nil, err
	}
	data, err := c.readData(response.Payload, int(quantity)*2)
	if err != nil {
		return nil, err
	}
	return binutil.BytesToUint16s(data), nil
}

// readData strips the byte count from a read response. Some modbus tcp
// devices leave the byte count out; that layout is accepted on tcp only.
func (c *Client) readData(payload []byte, n int) ([]byte, error) {
	if len(payload) == n+1 && int(payload[0]) == n {
		return payload[1:], nil
	}
	if c.mode == modbus.Tcp && len(payload) == n {
		return payload, nil
	}
	return nil, errors.Wrapf(modbus.ErrDataLength, "expected %d data bytes, got a %d byte payload", n, len(payload))
}

func (c *Client) send(ctx context.Context, functionCode modbus.FunctionCode, payload []byte) (*modbus.Response, error) {
	request := &modbus.Request{
		UnitId:       c.unitId,
		FunctionCode: functionCode,
		Payload:      payload,
	}
	if c.mode == modbus.Tcp {
		request.TransactionId = c.nextTransactionId()
	}
	adu, err := c.framer.Encode(request)
	if err != nil {
		return nil, err
	}

	klog.V(5).InfoS("Send modbus request", "address", c.channel.Address(), "request", request)
	received, err := c.channel.SendAndReceive(ctx, adu, c.timeout, c.framer.Complete(request))
	if err != nil {
		klog.V(3).InfoS("Failed to exchange modbus request", "address", c.channel.Address(), "request", request, "received", len(received), "err", err)
		return nil, err
	}
	response, err := c.framer.Decode(request, received)
	if err != nil {
		klog.V(3).InfoS("Failed to decode modbus response", "address", c.channel.Address(), "request", request, "err", err)
		return nil, err
	}
	return response, nil
}

// nextTransactionId wraps from 65535 to 0.
func (c *Client) nextTransactionId() uint16 {
	return uint16(c.transactionId.Inc())
}

func addressQuantity(address, quantity uint16) []byte {
	payload := make([]byte, 4)
	binutil.WriteUint16(payload, address)
	binutil.WriteUint16(payload[2:], quantity)
	return payload
}

func checkRange(address uint16, quantity, max int) error {
	if quantity < 1 || quantity > max {
		return errors.Wrapf(modbus.ErrInvalidQuantity, "quantity %d not in [1, %d]", quantity, max)
	}
	if int(address)+quantity > 1<<16 {
		return errors.Wrapf(modbus.ErrAddressOverflow, "address %d quantity %d", address, quantity)
	}
	return nil
}

func checkEcho(response *modbus.Response, quantity int) error {
	if len(response.Payload) < 4 {
		return errors.Wrapf(modbus.ErrDataLength, "write response payload is %d bytes", len(response.Payload))
	}
	if echoed := binutil.ParseUint16(response.Payload[2:]); int(echoed) != quantity {
		return errors.Wrapf(modbus.ErrQuantityEcho, "wrote %d, device echoed %d", quantity, echoed)
	}
	return nil
}
