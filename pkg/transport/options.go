package transport

import (
	"benchlink/pkg/runtime/constant"
	"fmt"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"net"
	"strconv"
	"time"
)

// SerialOptions describes a serial port link.
type SerialOptions struct {
	PortName          string            `json:"portName"`
	BaudRate          int               `json:"baudRate"`
	DataBits          int               `json:"dataBits"`
	Parity            constant.Parity   `json:"parity"`
	StopBits          constant.StopBits `json:"stopBits"`
	Timeout           time.Duration     `json:"timeout,omitempty"`
	ReconnectInterval time.Duration     `json:"reconnectInterval,omitempty"`
	Handshake         *Handshake        `json:"handshake,omitempty"`
}

func NewDefaultSerialOptions() SerialOptions {
	return SerialOptions{
		BaudRate:          9600,
		DataBits:          8,
		Parity:            constant.NoParity,
		StopBits:          constant.OneStopBit,
		Timeout:           defaultSerialTimeout,
		ReconnectInterval: defaultReconnectInterval,
	}
}

func (o *SerialOptions) Validate(fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	if len(o.PortName) == 0 {
		errs = append(errs, field.Required(fldPath.Child("portName"), "serial port name must not be empty"))
	}
	if !supportedBaudRate(o.BaudRate) {
		errs = append(errs, field.NotSupported(fldPath.Child("baudRate"), o.BaudRate, baudRateStrings()))
	}
	if o.DataBits < 5 || o.DataBits > 8 {
		errs = append(errs, field.Invalid(fldPath.Child("dataBits"), o.DataBits, "must be between 5 and 8"))
	}
	if _, ok := constant.ParityToString[o.Parity]; !ok {
		errs = append(errs, field.Invalid(fldPath.Child("parity"), o.Parity, constant.ErrParity.Error()))
	}
	if _, ok := constant.StopBitsToString[o.StopBits]; !ok {
		errs = append(errs, field.Invalid(fldPath.Child("stopBits"), o.StopBits, constant.ErrStopBits.Error()))
	}
	if o.Timeout < 0 {
		errs = append(errs, field.Invalid(fldPath.Child("timeout"), o.Timeout, "must not be negative"))
	}
	if o.ReconnectInterval < 0 {
		errs = append(errs, field.Invalid(fldPath.Child("reconnectInterval"), o.ReconnectInterval, "must not be negative"))
	}
	return errs
}

// SocketOptions describes a TCP client link.
type SocketOptions struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ConnectTimeout    time.Duration `json:"connectTimeout,omitempty"`
	SendTimeout       time.Duration `json:"sendTimeout,omitempty"`
	ReceiveTimeout    time.Duration `json:"receiveTimeout,omitempty"`
	ReconnectInterval time.Duration `json:"reconnectInterval,omitempty"`
	Handshake         *Handshake    `json:"handshake,omitempty"`
}

func NewDefaultSocketOptions() SocketOptions {
	return SocketOptions{
		Port:              502,
		ConnectTimeout:    defaultSocketTimeout,
		SendTimeout:       defaultSocketTimeout,
		ReceiveTimeout:    defaultSocketTimeout,
		ReconnectInterval: defaultReconnectInterval,
	}
}

func (o *SocketOptions) Validate(fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	if len(o.Host) == 0 {
		errs = append(errs, field.Required(fldPath.Child("host"), "host must not be empty"))
	}
	if o.Port < 1 || o.Port > 65535 {
		errs = append(errs, field.Invalid(fldPath.Child("port"), o.Port, "must be between 1 and 65535"))
	}
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"connectTimeout", o.ConnectTimeout},
		{"sendTimeout", o.SendTimeout},
		{"receiveTimeout", o.ReceiveTimeout},
		{"reconnectInterval", o.ReconnectInterval},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, field.Invalid(fldPath.Child(d.name), d.value, "must not be negative"))
		}
	}
	return errs
}

func (o *SocketOptions) address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func supportedBaudRate(rate int) bool {
	for _, r := range SupportedBaudRates {
		if r == rate {
			return true
		}
	}
	return false
}

func baudRateStrings() []string {
	s := make([]string, 0, len(SupportedBaudRates))
	for _, r := range SupportedBaudRates {
		s = append(s, fmt.Sprint(r))
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
