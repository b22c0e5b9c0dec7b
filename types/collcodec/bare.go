// Package collcodec provides collections value codecs for plain Go structs.
package collcodec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"git.sr.ht/~sircmpwn/go-bare"

	"cosmossdk.io/collections/codec"
)

// BareValue encodes struct values with the BARE binary format for storage and
// with encoding/json for genesis-style exports.
func BareValue[T any]() codec.ValueCodec[T] {
	return bareValue[T]{}
}

type bareValue[T any] struct{}

func (bareValue[T]) Encode(value T) ([]byte, error) {
	return bare.Marshal(&value)
}

func (bareValue[T]) Decode(b []byte) (T, error) {
	var value T
	if err := bare.Unmarshal(b, &value); err != nil {
		return value, fmt.Errorf("bare decode %s: %w", typeName[T](), err)
	}
	return value, nil
}

func (bareValue[T]) EncodeJSON(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (bareValue[T]) DecodeJSON(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}

func (bareValue[T]) Stringify(value T) string {
	return fmt.Sprintf("%+v", value)
}

func (bareValue[T]) ValueType() string {
	return "bare/" + typeName[T]()
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
