package codec

import (
	"fmt"

	"github.com/mus-format/mus-go"
)

// MUS returns a codec that encodes values using a MUS format serializer,
// typically one generated by musgen-go.
//
// MUS serializers belong to [ModeBinary]. Note that MUS encodes integers as
// little-endian varints, so a MUS-serialized type is generally not suitable
// as a key where the order-preservation law matters; use the fixed-width
// codecs for such keys.
func MUS[T any](s mus.Serializer[T]) Codec[T] {
	return New(
		ModeBinary,
		func(v T) ([]byte, error) {
			data := make([]byte, s.Size(v))
			s.Marshal(v, data)
			return data, nil
		},
		func(data []byte) (T, error) {
			v, n, err := s.Unmarshal(data)
			if err != nil {
				return v, err
			}
			if n != len(data) {
				var zero T
				return zero, fmt.Errorf("cannot decode value: %d trailing bytes", len(data)-n)
			}
			return v, nil
		},
	)
}
