package model

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/transport"
	"benchlink/pkg/utils/binutil"
	"benchlink/pkg/utils/crcutil"
	"github.com/pkg/errors"
)

// RtuNonDataLength is the unit id, function code and crc16 around the payload.
const RtuNonDataLength = 4

type ModbusRtu struct {
}

func (m *ModbusRtu) Mode() modbus.Mode {
	return modbus.Rtu
}

func (m *ModbusRtu) Encode(request *modbus.Request) ([]byte, error) {
	if err := checkPayload(request); err != nil {
		return nil, err
	}
	// 01 03 00 00 00 0A C5 CD
	// 01  设备地址
	// 03  功能码
	// 00 00  起始地址
	// 00 0A  寄存器数量(word数量)/线圈数量
	// C5 CD  crc16检验码, low byte first
	n := len(request.Payload)
	message := make([]byte, n+RtuNonDataLength)
	message[0] = request.UnitId
	message[1] = byte(request.FunctionCode)
	copy(message[2:], request.Payload)
	binutil.WriteUint16LittleEndian(message[n+2:], crcutil.Crc16(message[:n+2]))
	return message, nil
}

func (m *ModbusRtu) Decode(request *modbus.Request, adu []byte) (*modbus.Response, error) {
	if len(adu) < RtuNonDataLength {
		return nil, errors.Wrapf(modbus.ErrShortFrame, "rtu frame is %d bytes", len(adu))
	}
	n := len(adu)
	computed := crcutil.Crc16(adu[:n-2])
	if received := binutil.ParseUint16LittleEndian(adu[n-2:]); received != computed {
		return nil, errors.Wrapf(modbus.ErrCrcMismatch, "received 0x%04X, computed 0x%04X", received, computed)
	}
	if adu[0] != request.UnitId {
		return nil, errors.Wrapf(modbus.ErrUnitMismatch, "expected %d, got %d", request.UnitId, adu[0])
	}
	return verifyPdu(request, adu[0], adu[1], binutil.Dup(adu[2:n-2]))
}

func (m *ModbusRtu) Complete(request *modbus.Request) transport.FrameComplete {
	if !knownLength(request.FunctionCode) {
		return nil
	}
	return func(received []byte) bool {
		if len(received) < 2 {
			return false
		}
		length, _ := pduLength(received[1:])
		return length > 0 && len(received) >= 1+length+2
	}
}
