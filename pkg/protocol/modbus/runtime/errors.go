package runtime

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the codec or client returns matches exactly one of
// these through errors.Is.
var (
	ErrFrameFormat = errors.New("malformed modbus frame")
	ErrProtocol    = errors.New("modbus protocol violation")
	ErrValidation  = errors.New("invalid modbus request")
)

var (
	ErrShortFrame       = &Error{Kind: ErrFrameFormat, Msg: "modbus frame too short"}
	ErrCrcMismatch      = &Error{Kind: ErrFrameFormat, Msg: "modbus rtu crc16 mismatch"}
	ErrLrcMismatch      = &Error{Kind: ErrFrameFormat, Msg: "modbus ascii lrc mismatch"}
	ErrAsciiFraming     = &Error{Kind: ErrFrameFormat, Msg: "modbus ascii frame must start with ':' and end with CR LF"}
	ErrAsciiHex         = &Error{Kind: ErrFrameFormat, Msg: "modbus ascii frame holds invalid hex"}
	ErrMbapHeader       = &Error{Kind: ErrFrameFormat, Msg: "modbus tcp header invalid"}
	ErrPayloadTooLong   = &Error{Kind: ErrValidation, Msg: "modbus payload longer than 252 bytes"}
	ErrInvalidQuantity  = &Error{Kind: ErrValidation, Msg: "modbus quantity out of range"}
	ErrAddressOverflow  = &Error{Kind: ErrValidation, Msg: "modbus address range exceeds 65535"}
	ErrUnitMismatch     = &Error{Kind: ErrProtocol, Msg: "modbus response unit id mismatch"}
	ErrFunctionMismatch = &Error{Kind: ErrProtocol, Msg: "modbus response function code mismatch"}
	ErrTransaction      = &Error{Kind: ErrProtocol, Msg: "modbus tcp transaction id mismatch"}
	ErrDataLength       = &Error{Kind: ErrProtocol, Msg: "modbus response data length mismatch"}
	ErrQuantityEcho     = &Error{Kind: ErrProtocol, Msg: "modbus write response echoed a different quantity"}
	ErrUnsupportedMode  = &Error{Kind: ErrValidation, Msg: "unsupported modbus mode"}
)

// Error is a modbus failure of a given kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ExceptionError is an exception response: the device understood the request
// and refused it.
type ExceptionError struct {
	FunctionCode FunctionCode
	Code         ExceptionCode
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception on %s: %s", e.FunctionCode, e.Code)
}

func (e *ExceptionError) Is(target error) bool {
	return target == ErrProtocol
}
