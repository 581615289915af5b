package model

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/transport"
	"github.com/pkg/errors"
)

var _ Framer = (*ModbusTcp)(nil)
var _ Framer = (*ModbusRtu)(nil)
var _ Framer = (*ModbusAscii)(nil)
var _ Framer = (*ModbusRtuOverTcp)(nil)

var Framers = map[modbus.Mode]Framer{
	modbus.Tcp:        &ModbusTcp{},
	modbus.Rtu:        &ModbusRtu{},
	modbus.Ascii:      &ModbusAscii{},
	modbus.RtuOverTcp: &ModbusRtuOverTcp{},
}

// Framer turns requests into wire frames and wire frames back into responses.
// Implementations are stateless and safe for concurrent use.
type Framer interface {
	Mode() modbus.Mode
	Encode(request *modbus.Request) ([]byte, error)
	// Decode validates adu as the response to request.
	Decode(request *modbus.Request, adu []byte) (*modbus.Response, error)
	// Complete returns the end-of-frame predicate for the response to request,
	// or nil when the response length cannot be known in advance.
	Complete(request *modbus.Request) transport.FrameComplete
}

func checkPayload(request *modbus.Request) error {
	if len(request.Payload) > modbus.MaxPayload {
		return errors.Wrapf(modbus.ErrPayloadTooLong, "payload is %d bytes", len(request.Payload))
	}
	return nil
}

// verifyPdu applies the checks shared by every wire format to the function code
// and payload of a response. unitId is the unit id found on the wire.
func verifyPdu(request *modbus.Request, unitId, functionCode byte, payload []byte) (*modbus.Response, error) {
	if functionCode&modbus.ExceptionBit != 0 {
		if modbus.FunctionCode(functionCode&^modbus.ExceptionBit) != request.FunctionCode {
			return nil, errors.Wrapf(modbus.ErrFunctionMismatch, "expected 0x%02X, got exception for 0x%02X",
				uint8(request.FunctionCode), functionCode&^modbus.ExceptionBit)
		}
		if len(payload) < 1 {
			return nil, errors.Wrap(modbus.ErrShortFrame, "exception response without exception code")
		}
		return nil, &modbus.ExceptionError{FunctionCode: request.FunctionCode, Code: modbus.ExceptionCode(payload[0])}
	}
	if modbus.FunctionCode(functionCode) != request.FunctionCode {
		return nil, errors.Wrapf(modbus.ErrFunctionMismatch, "expected 0x%02X, got 0x%02X", uint8(request.FunctionCode), functionCode)
	}
	return &modbus.Response{
		TransactionId: request.TransactionId,
		UnitId:        unitId,
		FunctionCode:  request.FunctionCode,
		Payload:       payload,
	}, nil
}

// pduLength returns the length of the response PDU (function code included)
// found at the start of pdu, or 0 when more bytes are needed. ok is false when
// the function code gives no way to know the length.
func pduLength(pdu []byte) (length int, ok bool) {
	if len(pdu) < 1 {
		return 0, true
	}
	if pdu[0]&modbus.ExceptionBit != 0 {
		return 2, true
	}
	switch modbus.FunctionCode(pdu[0]) {
	case modbus.ReadCoils, modbus.ReadDiscreteInputs, modbus.ReadHoldingRegisters, modbus.ReadInputRegisters:
		if len(pdu) < 2 {
			return 0, true
		}
		return 2 + int(pdu[1]), true
	case modbus.WriteSingleCoil, modbus.WriteSingleRegister, modbus.WriteMultipleCoils, modbus.WriteMultipleRegisters:
		return 5, true
	}
	return 0, false
}

func knownLength(functionCode modbus.FunctionCode) bool {
	_, ok := pduLength([]byte{byte(functionCode)})
	return ok
}
