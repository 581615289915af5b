package constant

import "errors"

var (
	ErrParity   = errors.New("unsupported parity")
	ErrStopBits = errors.New("unsupported stop bits")
)
