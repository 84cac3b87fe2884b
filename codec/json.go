package codec

import "encoding/json"

// JSON returns a codec that encodes an arbitrary type using Go's standard
// JSON encoding.
//
// JSON does not satisfy the order-preservation law for numeric types, so it
// is only suitable for keys whose byte ordering is irrelevant to the caller.
func JSON[T any]() Codec[T] {
	return New(
		ModeJSON,
		func(v T) ([]byte, error) {
			return json.Marshal(v)
		},
		func(data []byte) (T, error) {
			var v T
			return v, json.Unmarshal(data, &v)
		},
	)
}
