package reflectionutils

import (
	"fmt"
	"reflect"
	"unsafe"
)

// SetField sets a given field's value, even if it is unexported. The value must be assignable to the field's type.
func SetField(field reflect.Value, value any) error {
	reflectedValue := reflect.ValueOf(value)
	if !reflectedValue.IsValid() || !reflectedValue.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("cannot assign a value of type '%T' to a field of type '%v'", value, field.Type())
	}

	// If this is an unexported field, we can create a new value that shares the same data pointer, and set that to
	// write to the data.
	if !field.CanSet() && field.CanAddr() {
		// Create a pointer to the field's data.
		dataPointer := unsafe.Pointer(field.UnsafeAddr())

		// Create a new value of the same type which shares the data pointer
		newValue := reflect.NewAt(field.Type(), dataPointer).Elem()

		// Now set the data for the new value to the provided value. This sets the data in the same memory location.
		newValue.Set(reflectedValue)
		return nil
	}

	// Otherwise we try to simply set the data.
	field.Set(reflectedValue)
	return nil
}
