package runtime

import "fmt"

// Request is a modbus request before framing.
type Request struct {
	// TransactionId is only framed by modbus tcp.
	TransactionId uint16
	UnitId        uint8
	FunctionCode  FunctionCode
	Payload       []byte
}

func (r *Request) String() string {
	return fmt.Sprintf("unit=%d function=%s payload=% X", r.UnitId, r.FunctionCode, r.Payload)
}

// Response is a successful, validated response. Exception responses surface
// as *ExceptionError instead.
type Response struct {
	TransactionId uint16
	UnitId        uint8
	FunctionCode  FunctionCode
	Payload       []byte
}
