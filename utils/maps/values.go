package maps

import (
	"reflect"
)

type structRef struct {
	reflect.Value
}

type ptrRef struct {
	reflect.Value
}

func structRefOf(v reflect.Value) structRef {
	return structRef{v}
}

func ptrRefOf(v reflect.Value) ptrRef {
	return ptrRef{v}
}

// pointer returns an interface holding a pointer to the struct, copying the
// value first when it is not addressable.
func (ref structRef) pointer() interface{} {
	if !ref.CanAddr() {
		val := ref.Value.Interface()
		return reflect.ValueOf(&val).Interface()
	}
	return ref.Addr().Interface()
}

// allocate points the wrapped pointer at a fresh zero value.
func (ref ptrRef) allocate() {
	ref.Set(reflect.New(ref.Type().Elem()))
}

func (ref ptrRef) pointed() reflect.Value {
	return ref.Elem()
}
