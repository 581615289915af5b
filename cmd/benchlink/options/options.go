package options

import (
	"benchlink/cmd/benchlink/config"
	"benchlink/pkg/broker"
	baseoptions "benchlink/pkg/generic/options"
	"benchlink/pkg/instrument"
	"benchlink/pkg/poller"
	"benchlink/pkg/protocol/modbus"
	"benchlink/pkg/utils/uuidutil"
	"github.com/spf13/pflag"
	"time"
)

type Options struct {
	Port     string        `json:"port"`
	Wait     time.Duration `json:"graceful-timeout"`
	CertFile string        `json:"certFile,omitempty"`
	KeyFile  string        `json:"keyFile,omitempty"`

	Device      modbus.ClientConfig `json:"device"`
	Poll        poller.Options      `json:"poll"`
	Mqtt        broker.Options      `json:"mqtt"`
	Instruments []instrument.Config `json:"instruments,omitempty"`
	baseoptions.BaseOptions
}

const (
	_defaultPort    = "32200"
	_defaultWait    = 15 * time.Second
	_clientIdPrefix = "benchlink"
)

func NewDefaultOptions() *Options {
	mqtt := broker.NewDefaultOptions()
	mqtt.ClientId = uuidutil.ClientId(_clientIdPrefix)
	return &Options{
		Port:        _defaultPort,
		Wait:        _defaultWait,
		Device:      *modbus.NewDefaultClientConfig(),
		Poll:        poller.NewDefaultOptions(),
		Mqtt:        mqtt,
		BaseOptions: baseoptions.NewDefaultBaseOptions(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Port, "port", "P", o.Port, "Port exposed")
	fs.DurationVar(&o.Wait, "graceful-timeout", o.Wait, "The duration for which the server gracefully wait for existing connections to finish - e.g. 15s or 1m")
	fs.StringVar(&o.CertFile, "tls-cert-file", o.CertFile, "File containing the x509 certificate for HTTPS. HTTP is served when empty")
	fs.StringVar(&o.KeyFile, "tls-private-key-file", o.KeyFile, "File containing the x509 private key matching --tls-cert-file")

	fs.StringVar((*string)(&o.Device.Mode), "mode", string(o.Device.Mode), "Modbus wire mode: modbusRtu, modbusAscii, modbusTcp or modbusRtuOverTcp")
	fs.Uint8Var(&o.Device.UnitId, "unit-id", o.Device.UnitId, "Modbus unit id of the device")
	fs.DurationVar(&o.Device.Timeout, "request-timeout", o.Device.Timeout, "Response timeout per modbus request, 0 uses the mode default")
	fs.BoolVar(&o.Device.Handshake, "handshake", o.Device.Handshake, "Confirm every new link by reading one holding register")
	fs.StringVar(&o.Device.Serial.PortName, "serial-port", o.Device.Serial.PortName, "Serial port of an rtu or ascii device, e.g. /dev/ttyUSB0 or COM3")
	fs.IntVar(&o.Device.Serial.BaudRate, "baud-rate", o.Device.Serial.BaudRate, "Serial baud rate")
	fs.IntVar(&o.Device.Serial.DataBits, "data-bits", o.Device.Serial.DataBits, "Serial data bits, 5 to 8")
	fs.Var(&o.Device.Serial.Parity, "parity", "Serial parity: noParity, oddParity, evenParity, markParity or spaceParity")
	fs.Var(&o.Device.Serial.StopBits, "stop-bits", "Serial stop bits: 1, 1.5 or 2")
	fs.StringVar(&o.Device.Socket.Host, "device-host", o.Device.Socket.Host, "Host of a tcp or rtuOverTcp device")
	fs.IntVar(&o.Device.Socket.Port, "device-port", o.Device.Socket.Port, "Port of a tcp or rtuOverTcp device")

	fs.DurationVar(&o.Poll.Interval, "poll-interval", o.Poll.Interval, "Interval between two polls of the configured points")

	fs.StringVar(&o.Mqtt.Broker, "mqtt-broker", o.Mqtt.Broker, "MQTT broker url, e.g. tcp://127.0.0.1:1883. Poll data is only logged when empty")
	fs.StringVar(&o.Mqtt.ClientId, "mqtt-client-id", o.Mqtt.ClientId, "MQTT client id")
	fs.StringVar(&o.Mqtt.Username, "mqtt-username", o.Mqtt.Username, "MQTT username")
	fs.StringVar(&o.Mqtt.Password, "mqtt-password", o.Mqtt.Password, "MQTT password")
}

func (o *Options) Config() (*config.Config, error) {
	c := &config.Config{
		CertFile: o.CertFile,
		KeyFile:  o.KeyFile,
	}

	client, err := modbus.New(&o.Device)
	if err != nil {
		return nil, err
	}
	c.Client = client

	var publisher poller.Publisher = broker.LogPublisher{}
	if o.Mqtt.Enabled() {
		c.Broker = broker.NewBroker(o.Mqtt, client)
		publisher = c.Broker
	}
	c.Poller = poller.New(client, publisher, o.Poll)

	for i := range o.Instruments {
		ins, err := instrument.NewFromConfig(&o.Instruments[i])
		if err != nil {
			return nil, err
		}
		c.Instruments = append(c.Instruments, ins)
	}
	return c, nil
}
