package options

import (
	"benchlink/pkg/broker"
	baseoptions "benchlink/pkg/generic/options"
	"benchlink/pkg/instrument"
	"benchlink/pkg/poller"
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/runtime/constant"
	"benchlink/pkg/transport"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"os"
	"path/filepath"
	"sigs.k8s.io/yaml"
	"strings"
	"testing"
)

func validTcpOptions() *Options {
	o := NewDefaultOptions()
	o.Device.Mode = modbus.Tcp
	o.Device.Socket.Host = "127.0.0.1"
	return o
}

func fieldNames(errs []error) []string {
	var names []string
	for _, err := range errs {
		if fe, ok := err.(*field.Error); ok {
			names = append(names, fe.Field)
		}
	}
	return names
}

func TestDefaultOptions(t *testing.T) {
	o := NewDefaultOptions()
	assert.Equal(t, "32200", o.Port)
	assert.Equal(t, modbus.Rtu, o.Device.Mode)
	assert.Equal(t, uint8(1), o.Device.UnitId)
	assert.True(t, strings.HasPrefix(o.Mqtt.ClientId, "benchlink-"))
	assert.False(t, o.Mqtt.Enabled())
	assert.NotEqual(t, o.Mqtt.ClientId, NewDefaultOptions().Mqtt.ClientId)
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(validTcpOptions()))

	o := NewDefaultOptions()
	o.Port = "http"
	o.CertFile = "server.crt"
	o.Mqtt.Broker = "localhost"
	o.Instruments = []instrument.Config{
		{Name: "meter", Link: instrument.LinkSocket, Socket: transport.SocketOptions{Host: "10.0.0.8", Port: 23}},
		{Name: "meter", Link: instrument.LinkSocket, Socket: transport.SocketOptions{Host: "10.0.0.9", Port: 23}},
	}
	assert.Equal(t, []string{
		"port",
		"keyFile",
		"device.serial.portName",
		"mqtt.broker",
		"instruments[1].name",
	}, fieldNames(Validate(o)))
}

func TestValidateLogging(t *testing.T) {
	o := validTcpOptions()
	o.Logging.Format = "xml"
	assert.Contains(t, fieldNames(Validate(o)), "logging.format")

	o = validTcpOptions()
	o.Logging.Verbosity = 6
	assert.Empty(t, Validate(o))
}

func TestValidatePoints(t *testing.T) {
	o := validTcpOptions()
	o.Poll.Points = []poller.Point{
		{Name: "speed", Function: "readHoldingRegisters", Address: 0, Count: 1},
		{Name: "speed", Function: "writeSingleCoil", Address: 1, Count: 1},
	}
	names := fieldNames(Validate(o))
	assert.Contains(t, names, "poll.points[1].name")
	assert.Contains(t, names, "poll.points[1].function")
}

func TestConfig(t *testing.T) {
	o := validTcpOptions()
	o.Instruments = []instrument.Config{*instrument.NewDefaultConfig()}
	o.Instruments[0].Name = "meter"
	o.Instruments[0].Link = instrument.LinkSocket
	o.Instruments[0].Socket.Host = "10.0.0.8"

	c, err := o.Config()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:502", c.Client.Address())
	assert.Equal(t, transport.Disconnected, c.Client.State())
	assert.Nil(t, c.Broker)
	assert.NotNil(t, c.Poller)
	require.Len(t, c.Instruments, 1)
	assert.Equal(t, "meter", c.Instruments[0].Name())

	o.Mqtt.Broker = "tcp://127.0.0.1:1883"
	c, err = o.Config()
	require.NoError(t, err)
	require.NotNil(t, c.Broker)
	assert.Equal(t, "data/"+o.Mqtt.ClientId+"/v1/points", c.Broker.Options().DataTopic)
}

func TestConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "benchlink.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
port: "8080"
device:
  mode: modbusRtuOverTcp
  unitId: 7
  socket:
    host: 192.168.1.20
    port: 4196
poll:
  points:
  - name: temperature
    function: readInputRegisters
    address: 100
    dataType: float32
    memoryLayout: CDAB
mqtt:
  broker: tcp://broker:1883
  clientId: bench-07
instruments:
- name: scanner
  link: socket
  socket:
    host: 192.168.1.30
    port: 9004
`), 0o600))

	o := NewDefaultOptions()
	o.ConfigFile = file
	require.NoError(t, baseoptions.ParseAndApplyConfigFile(o, nil))

	assert.Equal(t, "8080", o.Port)
	assert.Equal(t, modbus.RtuOverTcp, o.Device.Mode)
	assert.Equal(t, uint8(7), o.Device.UnitId)
	assert.Equal(t, 4196, o.Device.Socket.Port)
	assert.Equal(t, 9600, o.Device.Serial.BaudRate)
	require.Len(t, o.Poll.Points, 1)
	assert.Equal(t, "float32", o.Poll.Points[0].DataType.String())
	assert.Equal(t, "bench-07", o.Mqtt.ClientId)
	assert.Equal(t, broker.NewDefaultOptions().Qos, o.Mqtt.Qos)
	require.Len(t, o.Instruments, 1)
	assert.Equal(t, "\r\n", o.Instruments[0].Terminator)
	assert.Empty(t, Validate(o))
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	o := validTcpOptions()
	data, err := yaml.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: modbusTcp")
}

func TestSerialFlags(t *testing.T) {
	o := NewDefaultOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--mode", "modbusAscii", "--serial-port", "/dev/ttyUSB0", "--baud-rate", "19200", "--data-bits", "7", "--parity", "evenParity", "--stop-bits", "2", "--unit-id", "12"}))

	assert.Equal(t, modbus.Ascii, o.Device.Mode)
	assert.Equal(t, "/dev/ttyUSB0", o.Device.Serial.PortName)
	assert.Equal(t, 19200, o.Device.Serial.BaudRate)
	assert.Equal(t, 7, o.Device.Serial.DataBits)
	assert.Equal(t, constant.EvenParity, o.Device.Serial.Parity)
	assert.Equal(t, constant.TwoStopBits, o.Device.Serial.StopBits)
	assert.Equal(t, uint8(12), o.Device.UnitId)
	assert.Empty(t, Validate(o))

	assert.Error(t, fs.Parse([]string{"--parity", "sometimes"}))
}
