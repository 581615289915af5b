package model

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/transport"
	"benchlink/pkg/utils/binutil"
	"github.com/pkg/errors"
)

const (
	// MbapHeaderLength covers transaction id, protocol id, length and unit id.
	MbapHeaderLength = 7
	// TcpNonDataLength is the mbap header plus the function code.
	TcpNonDataLength = MbapHeaderLength + 1
	protocolId       = 0
	// gatewayUnitId is accepted in place of the requested unit id.
	gatewayUnitId    = 0xFF
)

type ModbusTcp struct {
}

func (m *ModbusTcp) Mode() modbus.Mode {
	return modbus.Tcp
}

func (m *ModbusTcp) Encode(request *modbus.Request) ([]byte, error) {
	if err := checkPayload(request); err != nil {
		return nil, err
	}
	// 00 01 00 00 00 06 18 03 00 02 00 02
	// 00 01  此次通信事务处理标识符，一般每次通信之后将被要求加1以区别不同的通信数据报文
	// 00 00  表示协议标识符，00 00为modbus协议
	// 00 06  数据长度，用来指示接下来数据的长度，单位字节
	// 18  设备地址，用以标识连接在串行线或者网络上的远程服务端的地址。以上七个字节也被称为modbus报文头
	// 03  功能码，此时代码03为读取保持寄存器数据
	// 00 02  起始地址
	// 00 02  寄存器数量(word数量)/线圈数量
	n := len(request.Payload)
	message := make([]byte, n+TcpNonDataLength)
	binutil.WriteUint16(message[0:], request.TransactionId)
	binutil.WriteUint16(message[2:], protocolId)
	binutil.WriteUint16(message[4:], uint16(n+2))
	message[6] = request.UnitId
	message[7] = byte(request.FunctionCode)
	copy(message[8:], request.Payload)
	return message, nil
}

func (m *ModbusTcp) Decode(request *modbus.Request, adu []byte) (*modbus.Response, error) {
	if len(adu) < TcpNonDataLength {
		return nil, errors.Wrapf(modbus.ErrShortFrame, "tcp frame is %d bytes", len(adu))
	}
	if id := binutil.ParseUint16(adu[2:]); id != protocolId {
		return nil, errors.Wrapf(modbus.ErrMbapHeader, "protocol id %d", id)
	}
	if length := int(binutil.ParseUint16(adu[4:])); length != len(adu)-6 {
		return nil, errors.Wrapf(modbus.ErrMbapHeader, "length field %d, %d bytes follow", length, len(adu)-6)
	}
	if transactionId := binutil.ParseUint16(adu); transactionId != request.TransactionId {
		return nil, errors.Wrapf(modbus.ErrTransaction, "expected %d, got %d", request.TransactionId, transactionId)
	}
	if unitId := adu[6]; unitId != request.UnitId && unitId != gatewayUnitId {
		return nil, errors.Wrapf(modbus.ErrUnitMismatch, "expected %d, got %d", request.UnitId, unitId)
	}
	return verifyPdu(request, adu[6], adu[7], binutil.Dup(adu[8:]))
}

// Complete reads the mbap length field, so any function code is supported.
func (m *ModbusTcp) Complete(_ *modbus.Request) transport.FrameComplete {
	return func(received []byte) bool {
		if len(received) < 6 {
			return false
		}
		return len(received) >= 6+int(binutil.ParseUint16(received[4:]))
	}
}
