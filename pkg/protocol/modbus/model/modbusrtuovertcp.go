package model

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
)

// ModbusRtuOverTcp carries rtu frames, crc16 included, over a tcp socket as
// serial device servers do.
type ModbusRtuOverTcp struct {
	ModbusRtu
}

func (m *ModbusRtuOverTcp) Mode() modbus.Mode {
	return modbus.RtuOverTcp
}
