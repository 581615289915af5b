package transport

import (
	"benchlink/pkg/runtime/constant"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSerialOptionsValidate(t *testing.T) {
	valid := NewDefaultSerialOptions()
	valid.PortName = "/dev/ttyUSB0"

	tests := []struct {
		name   string
		modify func(o *SerialOptions)
		fields []string
	}{
		{name: "valid", modify: func(o *SerialOptions) {}},
		{name: "empty port", modify: func(o *SerialOptions) { o.PortName = "" }, fields: []string{"serial.portName"}},
		{name: "odd baud rate", modify: func(o *SerialOptions) { o.BaudRate = 14400 }, fields: []string{"serial.baudRate"}},
		{name: "data bits low", modify: func(o *SerialOptions) { o.DataBits = 4 }, fields: []string{"serial.dataBits"}},
		{name: "data bits high", modify: func(o *SerialOptions) { o.DataBits = 9 }, fields: []string{"serial.dataBits"}},
		{name: "parity", modify: func(o *SerialOptions) { o.Parity = constant.Parity(9) }, fields: []string{"serial.parity"}},
		{name: "stop bits", modify: func(o *SerialOptions) { o.StopBits = constant.StopBits(9) }, fields: []string{"serial.stopBits"}},
		{name: "several", modify: func(o *SerialOptions) {
			o.PortName = ""
			o.BaudRate = 0
		}, fields: []string{"serial.portName", "serial.baudRate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.modify(&o)
			_, err := NewSerialChannel(o)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			var fields []string
			for _, e := range ce.Errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestSupportedBaudRates(t *testing.T) {
	for _, rate := range []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200} {
		o := NewDefaultSerialOptions()
		o.PortName = "COM1"
		o.BaudRate = rate
		_, err := NewSerialChannel(o)
		assert.NoError(t, err, "baud rate %d", rate)
	}
}

func TestSocketOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		port   int
		fields []string
	}{
		{name: "valid", host: "192.168.1.10", port: 502},
		{name: "lowest port", host: "localhost", port: 1},
		{name: "highest port", host: "localhost", port: 65535},
		{name: "empty host", host: "", port: 502, fields: []string{"socket.host"}},
		{name: "port zero", host: "localhost", port: 0, fields: []string{"socket.port"}},
		{name: "port too high", host: "localhost", port: 65536, fields: []string{"socket.port"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewDefaultSocketOptions()
			o.Host = tt.host
			o.Port = tt.port
			c, err := NewSocketChannel(o)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				assert.Equal(t, Disconnected, c.State())
				assert.Equal(t, defaultSocketTimeout, c.Timeout())
				return
			}
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			require.Len(t, ce.Errs, len(tt.fields))
			for i, e := range ce.Errs {
				assert.Equal(t, tt.fields[i], e.Field)
			}
		})
	}
}
