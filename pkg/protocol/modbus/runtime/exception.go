package runtime

import "fmt"

// ExceptionCode is the first payload byte of an exception response.
type ExceptionCode uint8

const (
	IllegalFunction     ExceptionCode = 0x01
	IllegalDataAddress  ExceptionCode = 0x02
	IllegalDataValue    ExceptionCode = 0x03
	ServerDeviceFailure ExceptionCode = 0x04
	Acknowledge         ExceptionCode = 0x05
	ServerDeviceBusy    ExceptionCode = 0x06
)

var ExceptionCodeToString = map[ExceptionCode]string{
	IllegalFunction:     "illegal function",
	IllegalDataAddress:  "illegal data address",
	IllegalDataValue:    "illegal data value",
	ServerDeviceFailure: "server device failure",
	Acknowledge:         "acknowledge",
	ServerDeviceBusy:    "server device busy",
}

// Known reports whether the code is one of the six standard exceptions.
func (c ExceptionCode) Known() bool {
	_, ok := ExceptionCodeToString[c]
	return ok
}

func (c ExceptionCode) String() string {
	if s, ok := ExceptionCodeToString[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown exception (0x%02X)", uint8(c))
}
