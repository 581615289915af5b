package constant

import (
	"benchlink/pkg/utils/binutil"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type DataType int8

const (
	UINT16 DataType = iota
	INT16
	UINT32
	INT32
	INT64
	FLOAT32
	FLOAT64
	BOOL
	STRING
)

var DataTypeToString = map[DataType]string{
	UINT16:  "uint16",
	INT16:   "int16",
	UINT32:  "uint32",
	INT32:   "int32",
	INT64:   "int64",
	FLOAT32: "float32",
	FLOAT64: "float64",
	BOOL:    "bool",
	STRING:  "string",
}

var StringToDataType = map[string]DataType{
	"uint16":  UINT16,
	"int16":   INT16,
	"uint32":  UINT32,
	"int32":   INT32,
	"int64":   INT64,
	"float32": FLOAT32,
	"float64": FLOAT64,
	"bool":    BOOL,
	"string":  STRING,
}

// DataTypeWord is the number of registers one value occupies.
var DataTypeWord = map[DataType]int{
	UINT16:  1,
	INT16:   1,
	UINT32:  2,
	INT32:   2,
	INT64:   4,
	FLOAT32: 2,
	FLOAT64: 4,
	BOOL:    1,
	STRING:  1,
}

func (dt DataType) String() string {
	return DataTypeToString[dt]
}

// Decode converts register bytes into a value of type dt. STRING consumes all of
// data as NUL padded ASCII; every other type reads DataTypeWord registers.
func (dt DataType) Decode(data []byte, layout MemoryLayout) (interface{}, error) {
	if dt == STRING {
		return strings.TrimRight(string(data), "\x00 "), nil
	}
	n := DataTypeWord[dt] * 2
	if n == 0 {
		return nil, fmt.Errorf("unknown data type %d", dt)
	}
	if len(data) < n {
		return nil, fmt.Errorf("%s needs %d bytes, got %d", dt, n, len(data))
	}
	b := layout.BigEndian(data[:n])
	switch dt {
	case UINT16:
		return binutil.ParseUint16(b), nil
	case INT16:
		return int16(binutil.ParseUint16(b)), nil
	case BOOL:
		return binutil.ParseUint16(b) != 0, nil
	case UINT32:
		return binary.BigEndian.Uint32(b), nil
	case INT32:
		return int32(binary.BigEndian.Uint32(b)), nil
	case INT64:
		return int64(binary.BigEndian.Uint64(b)), nil
	case FLOAT32:
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	default:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
}

func (dt DataType) MarshalJSON() ([]byte, error) {
	if s, ok := DataTypeToString[dt]; ok {
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown data type %d", dt)
}

func (dt *DataType) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}

	v, ok := StringToDataType[s]
	if !ok {
		return fmt.Errorf("unknown data type %s", s)
	}
	*dt = v
	return nil
}
