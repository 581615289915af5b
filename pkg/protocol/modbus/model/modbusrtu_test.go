package model

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestModbusRtuEncode(t *testing.T) {
	m := &ModbusRtu{}
	adu, err := m.Encode(&modbus.Request{UnitId: 1, FunctionCode: modbus.ReadHoldingRegisters, Payload: []byte{0x00, 0x00, 0x00, 0x01}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A}, adu)

	adu, err = m.Encode(&modbus.Request{UnitId: 1, FunctionCode: modbus.ReadHoldingRegisters, Payload: []byte{0x00, 0x00, 0x00, 0x0A}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}, adu)
}

func TestModbusRtuDecodeException(t *testing.T) {
	m := &ModbusRtu{}
	request := &modbus.Request{UnitId: 1, FunctionCode: modbus.ReadHoldingRegisters}
	// 01 83 02 C0 F1
	_, err := m.Decode(request, []byte{0x01, 0x83, 0x02, 0xC0, 0xF1})
	var exception *modbus.ExceptionError
	require.ErrorAs(t, err, &exception)
	assert.Equal(t, modbus.IllegalDataAddress, exception.Code)
}

func TestModbusRtuDecodeErrors(t *testing.T) {
	m := &ModbusRtu{}
	request := &modbus.Request{UnitId: 1, FunctionCode: modbus.ReadHoldingRegisters}
	valid, err := m.Encode(&modbus.Request{UnitId: 1, FunctionCode: modbus.ReadHoldingRegisters, Payload: []byte{0x02, 0x12, 0x34}})
	require.NoError(t, err)

	corrupted := append([]byte(nil), valid...)
	corrupted[3] ^= 0xFF

	otherUnit, err := m.Encode(&modbus.Request{UnitId: 2, FunctionCode: modbus.ReadHoldingRegisters, Payload: []byte{0x02, 0x12, 0x34}})
	require.NoError(t, err)

	tests := []struct {
		name string
		adu  []byte
		want error
		kind error
	}{
		{name: "empty", adu: nil, want: modbus.ErrShortFrame, kind: modbus.ErrFrameFormat},
		{name: "three bytes", adu: valid[:3], want: modbus.ErrShortFrame, kind: modbus.ErrFrameFormat},
		{name: "truncated", adu: valid[:len(valid)-1], want: modbus.ErrCrcMismatch, kind: modbus.ErrFrameFormat},
		{name: "corrupted", adu: corrupted, want: modbus.ErrCrcMismatch, kind: modbus.ErrFrameFormat},
		{name: "other unit", adu: otherUnit, want: modbus.ErrUnitMismatch, kind: modbus.ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Decode(request, tt.adu)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	response, err := m.Decode(request, valid)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x12, 0x34}, response.Payload)
}

func TestModbusRtuOverTcp(t *testing.T) {
	m := &ModbusRtuOverTcp{}
	assert.Equal(t, modbus.RtuOverTcp, m.Mode())
	adu, err := m.Encode(&modbus.Request{UnitId: 1, FunctionCode: modbus.ReadHoldingRegisters, Payload: []byte{0x00, 0x00, 0x00, 0x01}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A}, adu)
}
