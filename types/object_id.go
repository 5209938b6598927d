package types

import (
	"reflect"
	"strconv"
)

// ObjectID is a unique identifier of a live object (pad, router, sink),
// derived from its address. It is used only for logging and diagnostics.
type ObjectID uint64

type GetObjectIDer interface {
	GetObjectID() ObjectID
}

type Pointer[T any] interface {
	*T
}

func GetObjectID[P Pointer[T], T any](obj P) ObjectID {
	if obj == nil {
		return ObjectID(0)
	}
	v := reflect.ValueOf(obj)
	if v.IsNil() {
		return ObjectID(0)
	}
	ptr := uintptr(v.UnsafePointer())
	if uintptr(uint64(ptr)) != ptr {
		panic("pointer value does not fit into uint64")
	}
	return ObjectID(uint64(ptr))
}

func (id ObjectID) String() string {
	return "0x" + strconv.FormatUint(uint64(id), 16)
}
