package instrument

import (
	"benchlink/pkg/transport"
	"bytes"
	"errors"
	"strings"
)

var (
	ErrEmptyCommand  = errors.New("instrument command must not be empty")
	ErrUnterminated  = errors.New("instrument reply is not terminated")
	ErrInstrumentErr = errors.New("instrument reported an error")
)

// Interpreter turns commands into wire bytes and replies back into text for one
// instrument vocabulary.
type Interpreter interface {
	Encode(command string) ([]byte, error)
	// Complete returns the end-of-reply predicate, nil for idle gap framing.
	Complete() transport.FrameComplete
	Decode(reply []byte) (string, error)
}

var _ Interpreter = (*LineInterpreter)(nil)

// LineInterpreter speaks line oriented ASCII command sets such as SCPI meters and
// barcode scanners.
type LineInterpreter struct {
	// Terminator is appended to commands and ends replies. Defaults to CR LF.
	Terminator string
	// ReplyTerminator overrides Terminator for replies when the instrument answers
	// with a different line ending.
	ReplyTerminator string
	// ErrorPrefixes mark replies that carry an instrument side error, e.g. "ERR".
	ErrorPrefixes []string
}

func NewLineInterpreter() *LineInterpreter {
	return &LineInterpreter{Terminator: "\r\n"}
}

func (l *LineInterpreter) terminator() string {
	if len(l.Terminator) == 0 {
		return "\r\n"
	}
	return l.Terminator
}

func (l *LineInterpreter) replyTerminator() string {
	if len(l.ReplyTerminator) > 0 {
		return l.ReplyTerminator
	}
	return l.terminator()
}

func (l *LineInterpreter) Encode(command string) ([]byte, error) {
	command = strings.TrimRight(command, "\r\n")
	if len(strings.TrimSpace(command)) == 0 {
		return nil, ErrEmptyCommand
	}
	return []byte(command + l.terminator()), nil
}

func (l *LineInterpreter) Complete() transport.FrameComplete {
	return transport.SuffixFrame([]byte(l.replyTerminator()))
}

func (l *LineInterpreter) Decode(reply []byte) (string, error) {
	t := []byte(l.replyTerminator())
	if !bytes.HasSuffix(reply, t) {
		return "", ErrUnterminated
	}
	line := strings.TrimSpace(string(bytes.TrimSuffix(reply, t)))
	for _, prefix := range l.ErrorPrefixes {
		if strings.HasPrefix(line, prefix) {
			return line, &ReplyError{Reply: line}
		}
	}
	return line, nil
}

// ReplyError carries the raw reply of an instrument side error.
type ReplyError struct {
	Reply string
}

func (e *ReplyError) Error() string {
	return "instrument replied " + e.Reply
}

func (e *ReplyError) Is(target error) bool {
	return target == ErrInstrumentErr
}
