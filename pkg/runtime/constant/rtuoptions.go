package constant

import (
	"encoding/json"
	"fmt"
)

type StopBits int

const (
	// OneStopBit sets 1 stop bit (default)
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits
	TwoStopBits
)

var StopBitsToString = map[StopBits]string{
	OneStopBit:           "1",
	OnePointFiveStopBits: "1.5",
	TwoStopBits:          "2",
}

var StringToStopBits = map[string]StopBits{
	"1":   OneStopBit,
	"1.5": OnePointFiveStopBits,
	"2":   TwoStopBits,
}

func (s StopBits) String() string {
	if str, ok := StopBitsToString[s]; ok {
		return str
	}
	return fmt.Sprintf("StopBits(%d)", int(s))
}

func (s StopBits) MarshalJSON() ([]byte, error) {
	str, ok := StopBitsToString[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStopBits, int(s))
	}
	return json.Marshal(str)
}

func (s *StopBits) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		// plain numbers such as 1 or 2 are accepted as well
		var n json.Number
		if err := json.Unmarshal(bytes, &n); err != nil {
			return err
		}
		str = n.String()
	}
	return s.Set(str)
}

// Set parses the string form, implementing pflag.Value.
func (s *StopBits) Set(str string) error {
	v, ok := StringToStopBits[str]
	if !ok {
		return fmt.Errorf("%w: %q", ErrStopBits, str)
	}
	*s = v
	return nil
}

func (s *StopBits) Type() string {
	return "stopBits"
}

type Parity int

const (
	// NoParity disable parity control (default)
	NoParity Parity = iota
	// OddParity enable odd-parity check
	OddParity
	// EvenParity enable even-parity check
	EvenParity
	// MarkParity enable mark-parity (always 1) check
	MarkParity
	// SpaceParity enable space-parity (always 0) check
	SpaceParity
)

var ParityToString = map[Parity]string{
	NoParity:    "noParity",
	OddParity:   "oddParity",
	EvenParity:  "evenParity",
	MarkParity:  "markParity",
	SpaceParity: "spaceParity",
}

var StringToParity = map[string]Parity{
	"noParity":    NoParity,
	"oddParity":   OddParity,
	"evenParity":  EvenParity,
	"markParity":  MarkParity,
	"spaceParity": SpaceParity,
}

func (p Parity) String() string {
	if str, ok := ParityToString[p]; ok {
		return str
	}
	return fmt.Sprintf("Parity(%d)", int(p))
}

func (p Parity) MarshalJSON() ([]byte, error) {
	str, ok := ParityToString[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrParity, int(p))
	}
	return json.Marshal(str)
}

func (p *Parity) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	return p.Set(str)
}

// Set parses the string form, implementing pflag.Value.
func (p *Parity) Set(str string) error {
	v, ok := StringToParity[str]
	if !ok {
		return fmt.Errorf("%w: %q", ErrParity, str)
	}
	*p = v
	return nil
}

func (p *Parity) Type() string {
	return "parity"
}
