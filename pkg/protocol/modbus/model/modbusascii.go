package model

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/transport"
	"benchlink/pkg/utils/crcutil"
	"bytes"
	"encoding/hex"
	"github.com/pkg/errors"
)

const (
	asciiStart = ':'
	// AsciiNonDataLength is the unit id, function code and lrc around the payload.
	AsciiNonDataLength = 3
)

var asciiEnd = []byte("\r\n")

type ModbusAscii struct {
}

func (m *ModbusAscii) Mode() modbus.Mode {
	return modbus.Ascii
}

func (m *ModbusAscii) Encode(request *modbus.Request) ([]byte, error) {
	if err := checkPayload(request); err != nil {
		return nil, err
	}
	// :010300000001FB\r\n
	// 01  设备地址
	// 03  功能码
	// 0000  起始地址
	// 0001  寄存器数量
	// FB  lrc校验码
	n := len(request.Payload)
	raw := make([]byte, n+AsciiNonDataLength)
	raw[0] = request.UnitId
	raw[1] = byte(request.FunctionCode)
	copy(raw[2:], request.Payload)
	raw[n+2] = crcutil.Lrc(raw[:n+2])

	message := make([]byte, 0, 1+len(raw)*2+len(asciiEnd))
	message = append(message, asciiStart)
	message = append(message, bytes.ToUpper([]byte(hex.EncodeToString(raw)))...)
	message = append(message, asciiEnd...)
	return message, nil
}

func (m *ModbusAscii) Decode(request *modbus.Request, adu []byte) (*modbus.Response, error) {
	if len(adu) < 1+AsciiNonDataLength*2+len(asciiEnd) {
		return nil, errors.Wrapf(modbus.ErrShortFrame, "ascii frame is %d bytes", len(adu))
	}
	if adu[0] != asciiStart || !bytes.HasSuffix(adu, asciiEnd) {
		return nil, modbus.ErrAsciiFraming
	}
	body := adu[1 : len(adu)-len(asciiEnd)]
	if len(body)%2 != 0 {
		return nil, errors.Wrapf(modbus.ErrAsciiHex, "odd length %d", len(body))
	}
	raw := make([]byte, len(body)/2)
	if _, err := hex.Decode(raw, body); err != nil {
		return nil, errors.Wrap(modbus.ErrAsciiHex, err.Error())
	}

	n := len(raw)
	if computed := crcutil.Lrc(raw[:n-1]); computed != raw[n-1] {
		return nil, errors.Wrapf(modbus.ErrLrcMismatch, "received 0x%02X, computed 0x%02X", raw[n-1], computed)
	}
	if raw[0] != request.UnitId {
		return nil, errors.Wrapf(modbus.ErrUnitMismatch, "expected %d, got %d", request.UnitId, raw[0])
	}
	return verifyPdu(request, raw[0], raw[1], raw[2:n-1])
}

// Complete waits for the CR LF terminator.
func (m *ModbusAscii) Complete(_ *modbus.Request) transport.FrameComplete {
	return transport.SuffixFrame(asciiEnd)
}
