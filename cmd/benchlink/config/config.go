package config

import (
	"benchlink/pkg/broker"
	"benchlink/pkg/instrument"
	"benchlink/pkg/poller"
	"benchlink/pkg/protocol/modbus"
	"context"
	"k8s.io/klog/v2"
)

type Config struct {
	Client      *modbus.Client
	Poller      *poller.Poller
	Broker      *broker.Broker
	Instruments []*instrument.Instrument
	CertFile    string
	KeyFile     string
}

// Connect starts the reconnect loops of every link. It does not wait for them.
func (c *Config) Connect() {
	c.Client.Connect()
	for _, i := range c.Instruments {
		i.Connect()
	}
}

// Shutdown closes the broker session and every link.
func (c *Config) Shutdown(ctx context.Context) error {
	if c.Broker != nil {
		if err := c.Broker.Shutdown(ctx); err != nil {
			klog.V(2).InfoS("Failed to shutdown MQTT broker", "err", err)
		}
	}
	for _, i := range c.Instruments {
		i.Disconnect()
	}
	c.Client.Disconnect()
	klog.V(1).InfoS("Device links closed", "address", c.Client.Address())
	return nil
}
