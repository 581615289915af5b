package action

import (
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"context"
	"fmt"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
	"math"
)

var (
	ErrUnknownFunction = errors.New("unknown action function")
	ErrInvalidAction   = errors.New("invalid action")
)

// Client is the part of the modbus client actions run against.
type Client interface {
	ReadCoils(ctx context.Context, address, quantity uint16) ([]bool, error)
	ReadDiscreteInputs(ctx context.Context, address, quantity uint16) ([]bool, error)
	ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error)
	ReadInputRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error)
	WriteSingleCoil(ctx context.Context, address uint16, value bool) error
	WriteSingleRegister(ctx context.Context, address, value uint16) error
	WriteMultipleCoils(ctx context.Context, address uint16, values []bool) error
	WriteMultipleRegisters(ctx context.Context, address uint16, values []uint16) error
}

// Action is one decoded request against a modbus unit.
type Action struct {
	Function string `mapstructure:"function" json:"function"`
	Address  int    `mapstructure:"address" json:"address"`
	// Count is used by reads.
	Count int `mapstructure:"count" json:"count,omitempty"`
	// Value is used by single writes: a bool for coils, a number for registers.
	Value interface{} `mapstructure:"value" json:"value,omitempty"`
	// Values is used by multiple writes.
	Values []interface{} `mapstructure:"values" json:"values,omitempty"`

	functionCode modbus.FunctionCode
	bits         []bool
	registers    []uint16
}

// Result is the outcome of one action. Values holds read data.
type Result struct {
	Function string      `json:"function"`
	Address  int         `json:"address"`
	Values   interface{} `json:"values,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Decode turns a loosely typed map, as received over MQTT or HTTP, into a
// validated action.
func Decode(obj map[string]interface{}) (*Action, error) {
	a := &Action{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           a,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(obj); err != nil {
		return nil, errors.Wrap(ErrInvalidAction, err.Error())
	}
	if err := a.complete(); err != nil {
		return nil, err
	}
	return a, nil
}

// DecodeAll decodes every object and aggregates the failures.
func DecodeAll(objs []map[string]interface{}) ([]*Action, error) {
	actions := make([]*Action, 0, len(objs))
	var errs []error
	for i, obj := range objs {
		a, err := Decode(obj)
		if err != nil {
			errs = append(errs, errors.WithMessagef(err, "action[%d]", i))
			continue
		}
		actions = append(actions, a)
	}
	return actions, utilerrors.NewAggregate(errs)
}

func (a *Action) complete() error {
	fc, ok := modbus.StringToFunctionCode[a.Function]
	if !ok {
		return errors.Wrapf(ErrUnknownFunction, "%q", a.Function)
	}
	a.functionCode = fc
	if a.Address < 0 || a.Address > math.MaxUint16 {
		return errors.Wrapf(ErrInvalidAction, "address %d out of range", a.Address)
	}

	switch fc {
	case modbus.ReadCoils, modbus.ReadDiscreteInputs, modbus.ReadHoldingRegisters, modbus.ReadInputRegisters:
		if a.Count < 1 || a.Count > math.MaxUint16 {
			return errors.Wrapf(ErrInvalidAction, "%s needs a count, got %d", a.Function, a.Count)
		}
	case modbus.WriteSingleCoil:
		b, err := toBool(a.Value)
		if err != nil {
			return errors.Wrapf(ErrInvalidAction, "%s value: %v", a.Function, err)
		}
		a.bits = []bool{b}
	case modbus.WriteSingleRegister:
		r, err := toUint16(a.Value)
		if err != nil {
			return errors.Wrapf(ErrInvalidAction, "%s value: %v", a.Function, err)
		}
		a.registers = []uint16{r}
	case modbus.WriteMultipleCoils:
		if len(a.Values) == 0 {
			return errors.Wrapf(ErrInvalidAction, "%s needs values", a.Function)
		}
		a.bits = make([]bool, len(a.Values))
		for i, v := range a.Values {
			b, err := toBool(v)
			if err != nil {
				return errors.Wrapf(ErrInvalidAction, "%s values[%d]: %v", a.Function, i, err)
			}
			a.bits[i] = b
		}
	case modbus.WriteMultipleRegisters:
		if len(a.Values) == 0 {
			return errors.Wrapf(ErrInvalidAction, "%s needs values", a.Function)
		}
		a.registers = make([]uint16, len(a.Values))
		for i, v := range a.Values {
			r, err := toUint16(v)
			if err != nil {
				return errors.Wrapf(ErrInvalidAction, "%s values[%d]: %v", a.Function, i, err)
			}
			a.registers[i] = r
		}
	}
	return nil
}

func (a *Action) FunctionCode() modbus.FunctionCode {
	return a.functionCode
}

// Execute runs the action and returns the read data, nil for writes.
func (a *Action) Execute(ctx context.Context, c Client) (interface{}, error) {
	address := uint16(a.Address)
	count := uint16(a.Count)
	switch a.functionCode {
	case modbus.ReadCoils:
		return c.ReadCoils(ctx, address, count)
	case modbus.ReadDiscreteInputs:
		return c.ReadDiscreteInputs(ctx, address, count)
	case modbus.ReadHoldingRegisters:
		return c.ReadHoldingRegisters(ctx, address, count)
	case modbus.ReadInputRegisters:
		return c.ReadInputRegisters(ctx, address, count)
	case modbus.WriteSingleCoil:
		return nil, c.WriteSingleCoil(ctx, address, a.bits[0])
	case modbus.WriteSingleRegister:
		return nil, c.WriteSingleRegister(ctx, address, a.registers[0])
	case modbus.WriteMultipleCoils:
		return nil, c.WriteMultipleCoils(ctx, address, a.bits)
	case modbus.WriteMultipleRegisters:
		return nil, c.WriteMultipleRegisters(ctx, address, a.registers)
	}
	return nil, errors.Wrapf(ErrUnknownFunction, "%q", a.Function)
}

// ExecuteAll runs the actions in order. A failed action does not stop the rest.
func ExecuteAll(ctx context.Context, c Client, actions []*Action) []Result {
	results := make([]Result, 0, len(actions))
	for _, a := range actions {
		r := Result{Function: a.Function, Address: a.Address}
		values, err := a.Execute(ctx, c)
		if err != nil {
			klog.V(2).InfoS("Failed to execute action", "function", a.Function, "address", a.Address, "err", err)
			r.Error = err.Error()
		} else {
			r.Values = values
		}
		results = append(results, r)
	}
	return results
}

func toBool(v interface{}) (bool, error) {
	var b bool
	if err := mapstructure.WeakDecode(v, &b); err != nil || v == nil {
		return false, fmt.Errorf("%v is not a boolean", v)
	}
	return b, nil
}

func toUint16(v interface{}) (uint16, error) {
	var i int64
	if err := mapstructure.WeakDecode(v, &i); err != nil || v == nil {
		return 0, fmt.Errorf("%v is not an integer", v)
	}
	if i < 0 || i > math.MaxUint16 {
		return 0, fmt.Errorf("%d out of register range", i)
	}
	return uint16(i), nil
}
