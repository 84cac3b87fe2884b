package codec

import (
	"google.golang.org/protobuf/proto"
)

// Proto returns a codec that encodes Protocol Buffers messages.
func Proto[
	T interface {
		proto.Message
		*S
	},
	S any,
]() Codec[T] {
	return New(
		ModeProto,
		func(v T) ([]byte, error) {
			return proto.Marshal(v)
		},
		func(data []byte) (T, error) {
			var v T = new(S)
			return v, proto.Unmarshal(data, v)
		},
	)
}
