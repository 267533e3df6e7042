package reflectionutils

import (
	"fmt"
	"reflect"
)

// SliceToArray converts a reflected slice into an array of the same size.
// Returns the array.
func SliceToArray(reflectedSlice reflect.Value) any {
	arrayType := reflect.ArrayOf(reflectedSlice.Len(), reflectedSlice.Type().Elem())
	resultingArray := reflect.New(arrayType).Elem()
	for i := 0; i < reflectedSlice.Len(); i++ {
		resultingArray.Index(i).Set(reflect.ValueOf(reflectedSlice.Index(i).Interface()))
	}
	return resultingArray.Interface()
}

// SetReflectedArrayValues takes an array or slice of the same length as the values provided, and sets each element
// to the corresponding element of the values provided.
// Returns an error if one occurred during value setting.
func SetReflectedArrayValues(reflectedArray reflect.Value, values []any) error {
	switch reflectedArray.Kind() {
	case reflect.Slice, reflect.Array:
		// Validate the length of our array is equal to the length of values provided.
		if reflectedArray.Len() != len(values) {
			return fmt.Errorf("failed to set reflected array values, a slice/array of length %v was provided, while %v values were provided", reflectedArray.Len(), len(values))
		}

		// Set each element in the array to the corresponding element of the values provided.
		for i := 0; i < len(values); i++ {
			if err := SetField(reflectedArray.Index(i), values[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("failed to set reflected array values, type '%v' is not an array or slice", reflectedArray.Type())
}

// SetStructFieldValues sets each field of a reflected struct to the corresponding element of the values provided.
// Returns an error if the struct has a different number of fields than values provided.
func SetStructFieldValues(reflectedStruct reflect.Value, values []any) error {
	if reflectedStruct.Kind() != reflect.Struct {
		return fmt.Errorf("failed to set reflected struct values, type '%v' is not a struct", reflectedStruct.Type())
	}
	if reflectedStruct.NumField() != len(values) {
		return fmt.Errorf("failed to set reflected struct values, a struct with %v fields was provided, while %v values were provided", reflectedStruct.NumField(), len(values))
	}
	for i := 0; i < len(values); i++ {
		if err := SetField(reflectedStruct.Field(i), values[i]); err != nil {
			return err
		}
	}
	return nil
}
