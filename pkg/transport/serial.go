package transport

import (
	"benchlink/pkg/runtime/constant"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
)

var StopBitsToStopBits = map[constant.StopBits]serial.StopBits{
	constant.OneStopBit:           serial.OneStopBit,
	constant.OnePointFiveStopBits: serial.OnePointFiveStopBits,
	constant.TwoStopBits:          serial.TwoStopBits,
}

var ParityToParity = map[constant.Parity]serial.Parity{
	constant.NoParity:    serial.NoParity,
	constant.OddParity:   serial.OddParity,
	constant.EvenParity:  serial.EvenParity,
	constant.MarkParity:  serial.MarkParity,
	constant.SpaceParity: serial.SpaceParity,
}

// openPort is swapped in tests.
var openPort = func(name string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(name, mode)
}

// NewSerialChannel validates o and returns a disconnected channel for the port.
func NewSerialChannel(o SerialOptions) (Channel, error) {
	if err := newConfigurationError(o.Validate(field.NewPath("serial"))); err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: o.BaudRate,
		DataBits: o.DataBits,
		Parity:   ParityToParity[o.Parity],
		StopBits: StopBitsToStopBits[o.StopBits],
	}
	dial := func() (link, error) {
		port, err := openPort(o.PortName, mode)
		if err != nil {
			return nil, errors.Wrapf(err, "open serial port %s", o.PortName)
		}
		if err = port.SetReadTimeout(defaultPollInterval); err != nil {
			_ = port.Close()
			return nil, errors.Wrapf(err, "set read timeout on %s", o.PortName)
		}
		klog.V(4).InfoS("Succeed to open serial port", "port", o.PortName, "baudRate", o.BaudRate,
			"dataBits", o.DataBits, "parity", o.Parity, "stopBits", o.StopBits)
		return &serialLink{port: port}, nil
	}
	return newChannel(o.PortName, dial, orDefault(o.Timeout, defaultSerialTimeout), o.ReconnectInterval, o.Handshake), nil
}

type serialLink struct {
	port serial.Port
}

func (s *serialLink) read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *serialLink) write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialLink) discard() error {
	if err := s.port.ResetInputBuffer(); err != nil {
		return err
	}
	return s.port.ResetOutputBuffer()
}

func (s *serialLink) close() error {
	return s.port.Close()
}
