package poller

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/runtime"
	"benchlink/pkg/runtime/constant"
	"benchlink/pkg/utils/binutil"
	"context"
	"fmt"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"time"
)

// Point is one named block of coils, discrete inputs or registers.
type Point struct {
	Name string `json:"name"`
	// Function is readCoils, readDiscreteInputs, readHoldingRegisters or readInputRegisters.
	Function string `json:"function"`
	Address  uint16 `json:"address"`
	// Count is the number of values; more than one publishes an array. For string
	// points it is the number of registers holding the text.
	Count        int                   `json:"count,omitempty"`
	DataType     constant.DataType     `json:"dataType,omitempty"`
	MemoryLayout constant.MemoryLayout `json:"memoryLayout,omitempty"`
	// Rate scales numeric register values; 0 and 1 leave them untouched.
	Rate float64 `json:"rate,omitempty"`
}

type Options struct {
	Interval time.Duration `json:"interval"`
	Points   []Point       `json:"points,omitempty"`
}

func NewDefaultOptions() Options {
	return Options{Interval: time.Second}
}

func (o *Options) Validate(fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	if len(o.Points) > 0 && o.Interval <= 0 {
		errs = append(errs, field.Invalid(fldPath.Child("interval"), o.Interval, "must be positive"))
	}
	names := sets.NewString()
	for i := range o.Points {
		p := &o.Points[i]
		pointPath := fldPath.Child("points").Index(i)
		if names.Has(p.Name) {
			errs = append(errs, field.Duplicate(pointPath.Child("name"), p.Name))
		}
		names.Insert(p.Name)
		errs = append(errs, p.Validate(pointPath)...)
	}
	return errs
}

func (p *Point) Validate(fldPath *field.Path) field.ErrorList {
	errs := runtime.ValidateName(p.Name, fldPath.Child("name"))

	fc, ok := modbus.StringToFunctionCode[p.Function]
	max := 0
	switch {
	case ok && (fc == modbus.ReadCoils || fc == modbus.ReadDiscreteInputs):
		max = modbus.MaxReadBits
	case ok && (fc == modbus.ReadHoldingRegisters || fc == modbus.ReadInputRegisters):
		max = modbus.MaxReadRegisters
		if _, ok := constant.DataTypeToString[p.DataType]; !ok {
			errs = append(errs, field.Invalid(fldPath.Child("dataType"), p.DataType, "unknown data type"))
			return errs
		}
		if _, ok := constant.MemoryLayoutToString[p.MemoryLayout]; !ok {
			errs = append(errs, field.Invalid(fldPath.Child("memoryLayout"), p.MemoryLayout, "unknown memory layout"))
		}
	default:
		return append(errs, field.NotSupported(fldPath.Child("function"), p.Function,
			[]string{"readCoils", "readDiscreteInputs", "readHoldingRegisters", "readInputRegisters"}))
	}

	if p.Count < 0 {
		errs = append(errs, field.Invalid(fldPath.Child("count"), p.Count, "must not be negative"))
	} else if q := p.quantity(fc); q > max {
		errs = append(errs, field.Invalid(fldPath.Child("count"), p.Count, fmt.Sprintf("reads %d items, at most %d per request", q, max)))
	} else if int(p.Address)+q > 1<<16 {
		errs = append(errs, field.Invalid(fldPath.Child("address"), p.Address, fmt.Sprintf("%d items overrun the address space", q)))
	}
	return errs
}

func (p *Point) count() int {
	if p.Count <= 0 {
		return 1
	}
	return p.Count
}

// quantity is the number of coils or registers the point reads.
func (p *Point) quantity(fc modbus.FunctionCode) int {
	if fc == modbus.ReadCoils || fc == modbus.ReadDiscreteInputs || p.DataType == constant.STRING {
		return p.count()
	}
	return p.count() * constant.DataTypeWord[p.DataType]
}

func (p *Point) read(ctx context.Context, r Reader) (interface{}, error) {
	fc := modbus.StringToFunctionCode[p.Function]
	quantity := uint16(p.quantity(fc))

	var bits []bool
	var registers []uint16
	var err error
	switch fc {
	case modbus.ReadCoils:
		bits, err = r.ReadCoils(ctx, p.Address, quantity)
	case modbus.ReadDiscreteInputs:
		bits, err = r.ReadDiscreteInputs(ctx, p.Address, quantity)
	case modbus.ReadHoldingRegisters:
		registers, err = r.ReadHoldingRegisters(ctx, p.Address, quantity)
	case modbus.ReadInputRegisters:
		registers, err = r.ReadInputRegisters(ctx, p.Address, quantity)
	default:
		return nil, fmt.Errorf("point %s: unsupported function %q", p.Name, p.Function)
	}
	if err != nil {
		return nil, err
	}

	if bits != nil {
		if p.count() == 1 {
			return bits[0], nil
		}
		return bits, nil
	}

	data := binutil.Uint16sToBytes(registers)
	if p.DataType == constant.STRING {
		return p.DataType.Decode(data, p.MemoryLayout)
	}
	width := constant.DataTypeWord[p.DataType] * 2
	values := make([]interface{}, p.count())
	for i := range values {
		v, err := p.DataType.Decode(data[i*width:], p.MemoryLayout)
		if err != nil {
			return nil, err
		}
		values[i] = scale(v, p.Rate)
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}

func scale(v interface{}, rate float64) interface{} {
	if rate == 0 || rate == 1 {
		return v
	}
	var f float64
	switch n := v.(type) {
	case uint16:
		f = float64(n)
	case int16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return v
	}
	return f * rate
}
