package deployment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common/hexutil"
	"github.com/crytic/solship/utils"
	"github.com/crytic/solship/utils/reflectionutils"
)

// ParseConstructorArguments parses constructor arguments from JSON text. The text is either an array holding one value
// per constructor input, or a single value for a constructor with one input. Empty text means no arguments. Numbers
// are kept as json.Number so large integers are not rounded.
func ParseConstructorArguments(text string) ([]any, error) {
	if strings.TrimSpace(text) == "" {
		return []any{}, nil
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("could not parse constructor arguments: %v", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("could not parse constructor arguments: unexpected data after the first value")
	}

	if values, ok := value.([]any); ok {
		return values, nil
	}
	return []any{value}, nil
}

// DecodeConstructorArguments converts JSON-decoded values into the Go values the ABI encoder expects for the
// contract's constructor inputs.
func DecodeConstructorArguments(contractAbi *abi.ABI, values []any) ([]any, error) {
	return DecodeJSONArgumentsFromSlice(contractAbi.Constructor.Inputs, values)
}

// DecodeJSONArgumentsFromSlice decodes one JSON value per argument definition, in order.
func DecodeJSONArgumentsFromSlice(inputs abi.Arguments, values []any) ([]any, error) {
	if len(inputs) != len(values) {
		return nil, fmt.Errorf("expected %d constructor argument(s), but %d were provided", len(inputs), len(values))
	}

	decoded := make([]any, len(inputs))
	for i, input := range inputs {
		value, err := decodeJSONArgument(&input.Type, values[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("invalid value for constructor argument '%s' (%s): %v", name, input.Type.String(), err)
		}
		decoded[i] = value
	}
	return decoded, nil
}

// decodeJSONArgument decodes a single JSON value into the Go representation of the provided ABI type.
func decodeJSONArgument(inputType *abi.Type, value any) (any, error) {
	switch inputType.T {
	case abi.AddressTy:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected an address string, got %T", value)
		}
		address, err := utils.HexStringToAddress(str)
		if err != nil {
			return nil, err
		}
		return *address, nil
	case abi.UintTy, abi.IntTy:
		integer, err := parseJSONInteger(value)
		if err != nil {
			return nil, err
		}
		return convertInteger(inputType, integer)
	case abi.BoolTy:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if v == "true" || v == "false" {
				return v == "true", nil
			}
		}
		return nil, fmt.Errorf("expected a boolean, got %v", value)
	case abi.StringTy:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		return str, nil
	case abi.BytesTy:
		return decodeHexBytes(value)
	case abi.FixedBytesTy:
		b, err := decodeHexBytes(value)
		if err != nil {
			return nil, err
		}
		if len(b) != inputType.Size {
			return nil, fmt.Errorf("expected %d byte(s), got %d", inputType.Size, len(b))
		}
		return reflectionutils.SliceToArray(reflect.ValueOf(b)), nil
	case abi.SliceTy, abi.ArrayTy:
		elements, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list, got %T", value)
		}
		if inputType.T == abi.ArrayTy && len(elements) != inputType.Size {
			return nil, fmt.Errorf("expected %d element(s), got %d", inputType.Size, len(elements))
		}

		decodedElements := make([]any, len(elements))
		for i, element := range elements {
			decodedElement, err := decodeJSONArgument(inputType.Elem, element)
			if err != nil {
				return nil, fmt.Errorf("element %d: %v", i, err)
			}
			decodedElements[i] = decodedElement
		}

		var reflected reflect.Value
		if inputType.T == abi.SliceTy {
			reflected = reflect.MakeSlice(inputType.GetType(), len(elements), len(elements))
		} else {
			reflected = reflect.New(inputType.GetType()).Elem()
		}
		if err := reflectionutils.SetReflectedArrayValues(reflected, decodedElements); err != nil {
			return nil, err
		}
		return reflected.Interface(), nil
	case abi.TupleTy:
		return decodeJSONTuple(inputType, value)
	}
	return nil, fmt.Errorf("type '%s' is not supported", inputType.String())
}

// decodeJSONTuple decodes a tuple given either as an object keyed by component name, or as a positional list.
func decodeJSONTuple(inputType *abi.Type, value any) (any, error) {
	var components []any
	switch v := value.(type) {
	case []any:
		components = v
	case map[string]any:
		components = make([]any, len(inputType.TupleRawNames))
		for i, name := range inputType.TupleRawNames {
			component, ok := v[name]
			if !ok {
				return nil, fmt.Errorf("missing tuple component '%s'", name)
			}
			components[i] = component
		}
		if len(v) != len(components) {
			return nil, fmt.Errorf("expected %d tuple component(s), got %d", len(components), len(v))
		}
	default:
		return nil, fmt.Errorf("expected an object or list for a tuple, got %T", value)
	}
	if len(components) != len(inputType.TupleElems) {
		return nil, fmt.Errorf("expected %d tuple component(s), got %d", len(inputType.TupleElems), len(components))
	}

	decodedComponents := make([]any, len(components))
	for i, component := range components {
		decodedComponent, err := decodeJSONArgument(inputType.TupleElems[i], component)
		if err != nil {
			return nil, fmt.Errorf("tuple component %d: %v", i, err)
		}
		decodedComponents[i] = decodedComponent
	}

	tuple := reflect.New(inputType.GetType()).Elem()
	if err := reflectionutils.SetStructFieldValues(tuple, decodedComponents); err != nil {
		return nil, err
	}
	return tuple.Interface(), nil
}

// parseJSONInteger parses an integer given as a JSON number, a decimal string, or a 0x-prefixed hex string.
func parseJSONInteger(value any) (*big.Int, error) {
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	case float64:
		integer, accuracy := big.NewFloat(v).Int(nil)
		if accuracy != big.Exact {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
		return integer, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case *big.Int:
		return new(big.Int).Set(v), nil
	default:
		return nil, fmt.Errorf("expected an integer, got %T", value)
	}

	// Hex strings are parsed by base prefix, everything else as decimal so leading zeros are not read as octal
	base := 10
	lower := strings.ToLower(strings.TrimPrefix(text, "-"))
	if strings.HasPrefix(lower, "0x") {
		base = 0
	}
	integer, ok := new(big.Int).SetString(text, base)
	if !ok {
		return nil, fmt.Errorf("expected an integer, got '%s'", text)
	}
	return integer, nil
}

// convertInteger checks the integer fits the ABI integer type and converts it to the Go type the ABI encoder expects
// for it: a sized Go integer for 8, 16, 32 and 64 bit types, otherwise a *big.Int.
func convertInteger(inputType *abi.Type, integer *big.Int) (any, error) {
	signed := inputType.T == abi.IntTy
	bits := inputType.Size
	if !utils.IntegerFitsBitLength(integer, signed, bits) {
		return nil, fmt.Errorf("%s is out of range for %s", integer.String(), inputType.String())
	}

	switch {
	case signed && bits == 8:
		return int8(integer.Int64()), nil
	case signed && bits == 16:
		return int16(integer.Int64()), nil
	case signed && bits == 32:
		return int32(integer.Int64()), nil
	case signed && bits == 64:
		return integer.Int64(), nil
	case !signed && bits == 8:
		return uint8(integer.Uint64()), nil
	case !signed && bits == 16:
		return uint16(integer.Uint64()), nil
	case !signed && bits == 32:
		return uint32(integer.Uint64()), nil
	case !signed && bits == 64:
		return integer.Uint64(), nil
	}
	return integer, nil
}

// decodeHexBytes decodes a hex string, with or without a 0x prefix.
func decodeHexBytes(value any) ([]byte, error) {
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected a hex string, got %T", value)
	}
	if !strings.HasPrefix(str, "0x") && !strings.HasPrefix(str, "0X") {
		str = "0x" + str
	}
	b, err := hexutil.Decode(str)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}
