package constant

import (
	"encoding/json"
	"fmt"
)

// MemoryLayout is the byte order of a multi register value as it arrives on the wire.
type MemoryLayout byte

const (
	ABCD MemoryLayout = iota // big-endian
	BADC                     // big-endian byte swap
	CDAB                     // little-endian byte swap
	DCBA                     // little-endian
)

var MemoryLayoutToString = map[MemoryLayout]string{
	ABCD: "ABCD",
	BADC: "BADC",
	CDAB: "CDAB",
	DCBA: "DCBA",
}

var StringToMemoryLayout = map[string]MemoryLayout{
	"ABCD": ABCD,
	"BADC": BADC,
	"CDAB": CDAB,
	"DCBA": DCBA,
}

func (ml MemoryLayout) String() string {
	return MemoryLayoutToString[ml]
}

// BigEndian reorders data, an even number of register bytes, into big-endian order.
func (ml MemoryLayout) BigEndian(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	switch ml {
	case BADC:
		for i := 0; i+1 < len(out); i += 2 {
			out[i], out[i+1] = out[i+1], out[i]
		}
	case CDAB:
		words := len(out) / 2
		for i := 0; i < words/2; i++ {
			j := words - 1 - i
			out[2*i], out[2*j] = out[2*j], out[2*i]
			out[2*i+1], out[2*j+1] = out[2*j+1], out[2*i+1]
		}
	case DCBA:
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (ml MemoryLayout) MarshalJSON() ([]byte, error) {
	if s, ok := MemoryLayoutToString[ml]; ok {
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown memory layout type %d", ml)
}

func (ml *MemoryLayout) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}

	v, ok := StringToMemoryLayout[s]
	if !ok {
		return fmt.Errorf("unknown memory layout type %s", s)
	}
	*ml = v
	return nil
}
