package chain

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FitArgs adapts args to the Go types the abi packer expects for inputs.
// Slices passed for fixed-size array parameters (uint256[20], string[20]) are
// copied into arrays of the exact length; everything else passes through.
func FitArgs(inputs abi.Arguments, args []interface{}) ([]interface{}, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(args))
	}
	out := make([]interface{}, len(args))
	for i, in := range inputs {
		v, err := fitArg(in.Type, args[i])
		if err != nil {
			name := in.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, in.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func fitArg(t abi.Type, arg interface{}) (interface{}, error) {
	if t.T == abi.UintTy {
		if err := checkUnsigned(arg); err != nil {
			return nil, err
		}
		return arg, nil
	}
	if t.T != abi.ArrayTy || arg == nil {
		return arg, nil
	}
	rv := reflect.ValueOf(arg)
	if rv.Kind() != reflect.Slice {
		return arg, nil
	}
	if rv.Len() != t.Size {
		return nil, fmt.Errorf("need exactly %d elements, got %d", t.Size, rv.Len())
	}

	target := t.GetType()
	arr := reflect.New(target).Elem()
	elemType := target.Elem()
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i)
		if el.Kind() == reflect.Interface {
			el = el.Elem()
		}
		if !el.IsValid() {
			return nil, fmt.Errorf("element %d is nil", i)
		}
		if !el.Type().AssignableTo(elemType) {
			return nil, fmt.Errorf("element %d: cannot use %s as %s", i, el.Type(), elemType)
		}
		if t.Elem.T == abi.UintTy {
			if err := checkUnsigned(el.Interface()); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
		arr.Index(i).Set(el)
	}
	return arr.Interface(), nil
}

// checkUnsigned rejects negative big integers, which the packer would
// otherwise encode as two's complement.
func checkUnsigned(arg interface{}) error {
	if v, ok := arg.(*big.Int); ok && v != nil && v.Sign() < 0 {
		return fmt.Errorf("negative value %s for unsigned integer", v)
	}
	return nil
}
