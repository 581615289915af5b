package runtime

import (
	"fmt"
	"time"
)

type FunctionCode uint8

const (
	ReadCoils              FunctionCode = 0x01
	ReadDiscreteInputs     FunctionCode = 0x02
	ReadHoldingRegisters   FunctionCode = 0x03
	ReadInputRegisters     FunctionCode = 0x04
	WriteSingleCoil        FunctionCode = 0x05
	WriteSingleRegister    FunctionCode = 0x06
	WriteMultipleCoils     FunctionCode = 0x0F
	WriteMultipleRegisters FunctionCode = 0x10

	// ExceptionBit is set on the function code of an exception response.
	ExceptionBit = 0x80
)

var FunctionCodeToString = map[FunctionCode]string{
	ReadCoils:              "readCoils",
	ReadDiscreteInputs:     "readDiscreteInputs",
	ReadHoldingRegisters:   "readHoldingRegisters",
	ReadInputRegisters:     "readInputRegisters",
	WriteSingleCoil:        "writeSingleCoil",
	WriteSingleRegister:    "writeSingleRegister",
	WriteMultipleCoils:     "writeMultipleCoils",
	WriteMultipleRegisters: "writeMultipleRegisters",
}

var StringToFunctionCode = map[string]FunctionCode{
	"readCoils":              ReadCoils,
	"readDiscreteInputs":     ReadDiscreteInputs,
	"readHoldingRegisters":   ReadHoldingRegisters,
	"readInputRegisters":     ReadInputRegisters,
	"writeSingleCoil":        WriteSingleCoil,
	"writeSingleRegister":    WriteSingleRegister,
	"writeMultipleCoils":     WriteMultipleCoils,
	"writeMultipleRegisters": WriteMultipleRegisters,
}

func (f FunctionCode) String() string {
	if s, ok := FunctionCodeToString[f]; ok {
		return s
	}
	return fmt.Sprintf("functionCode(0x%02X)", uint8(f))
}

// Mode selects the wire format.
type Mode string

const (
	Rtu        Mode = "modbusRtu"
	Ascii      Mode = "modbusAscii"
	Tcp        Mode = "modbusTcp"
	RtuOverTcp Mode = "modbusRtuOverTcp"
)

var Modes = []Mode{Rtu, Ascii, Tcp, RtuOverTcp}

// Serial reports whether the mode runs over a serial port.
func (m Mode) Serial() bool {
	return m == Rtu || m == Ascii
}

const (
	// modbus 一次最多读取125个寄存器, 2000个线圈
	MaxReadRegisters  = 125
	MaxReadBits       = 2000
	MaxWriteRegisters = 123
	MaxWriteCoils     = 1968
	// MaxPayload is the largest PDU payload after the function code.
	MaxPayload = 252

	CoilOn  uint16 = 0xFF00
	CoilOff uint16 = 0x0000

	RtuTimeout   = 100 * time.Millisecond
	AsciiTimeout = 200 * time.Millisecond
	TcpTimeout   = 3000 * time.Millisecond
)
