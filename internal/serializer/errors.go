package serializer

import (
	"fmt"
	"reflect"
)

// UnsupportedTypeError is returned when a value has neither a registered
// converter nor a default JSON encoding.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("no JSON conversion for type %s", e.Type)
}
