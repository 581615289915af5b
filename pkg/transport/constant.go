package transport

import (
	"errors"
	"time"
)

const (
	defaultReconnectInterval = 3 * time.Second
	defaultHandshakeTimeout  = 500 * time.Millisecond
	defaultPollInterval      = 5 * time.Millisecond
	defaultSerialTimeout     = 300 * time.Millisecond
	defaultSocketTimeout     = 3000 * time.Millisecond
	discardLimit             = 64
	readBufferSize           = 1024
)

var (
	ErrNotConnected         = errors.New("channel not connected")
	ErrTimeout              = errors.New("channel receive timed out")
	ErrEmptyRequest         = errors.New("empty request")
	ErrInvalidConfiguration = errors.New("invalid channel configuration")
	ErrHandshakeFailed      = errors.New("handshake probe got no reply")
)

var SupportedBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}
