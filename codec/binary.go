package codec

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The fixed-width codecs use big-endian byte order so that unsigned integer
// keys compare correctly under the store's lexicographic byte ordering.

var (
	// Uint64 encodes the built-in uint64 type as 8 big-endian bytes.
	Uint64 = New(
		ModeBinary,
		func(v uint64) ([]byte, error) {
			data := make([]byte, 8)
			binary.BigEndian.PutUint64(data, v)
			return data, nil
		},
		func(data []byte) (uint64, error) {
			if len(data) != 8 {
				return 0, fmt.Errorf("cannot decode uint64: expected 8 bytes, got %d", len(data))
			}
			return binary.BigEndian.Uint64(data), nil
		},
	)

	// Uint32 encodes the built-in uint32 type as 4 big-endian bytes.
	Uint32 = New(
		ModeBinary,
		func(v uint32) ([]byte, error) {
			data := make([]byte, 4)
			binary.BigEndian.PutUint32(data, v)
			return data, nil
		},
		func(data []byte) (uint32, error) {
			if len(data) != 4 {
				return 0, fmt.Errorf("cannot decode uint32: expected 4 bytes, got %d", len(data))
			}
			return binary.BigEndian.Uint32(data), nil
		},
	)

	// Uint16 encodes the built-in uint16 type as 2 big-endian bytes.
	Uint16 = New(
		ModeBinary,
		func(v uint16) ([]byte, error) {
			data := make([]byte, 2)
			binary.BigEndian.PutUint16(data, v)
			return data, nil
		},
		func(data []byte) (uint16, error) {
			if len(data) != 2 {
				return 0, fmt.Errorf("cannot decode uint16: expected 2 bytes, got %d", len(data))
			}
			return binary.BigEndian.Uint16(data), nil
		},
	)

	// Bool encodes the built-in bool type as a single byte.
	Bool = New(
		ModeBinary,
		func(v bool) ([]byte, error) {
			if v {
				return []byte{1}, nil
			}
			return []byte{0}, nil
		},
		func(data []byte) (bool, error) {
			if len(data) != 1 || data[0] > 1 {
				return false, fmt.Errorf("cannot decode bool: expected a single 0x00 or 0x01 byte")
			}
			return data[0] == 1, nil
		},
	)

	// Time encodes a [time.Time] as 8 big-endian bytes of its microsecond
	// Unix timestamp. The sign bit is flipped so that times before the Unix
	// epoch still sort below times after it.
	Time = New(
		ModeBinary,
		func(v time.Time) ([]byte, error) {
			data := make([]byte, 8)
			binary.BigEndian.PutUint64(data, uint64(v.UnixMicro())^(1<<63))
			return data, nil
		},
		func(data []byte) (time.Time, error) {
			if len(data) != 8 {
				return time.Time{}, fmt.Errorf("cannot decode time: expected 8 bytes, got %d", len(data))
			}
			us := int64(binary.BigEndian.Uint64(data) ^ (1 << 63))
			return time.UnixMicro(us).UTC(), nil
		},
	)

	// UUID encodes a [uuid.UUID] as its 16 raw bytes.
	UUID = New(
		ModeBinary,
		func(v uuid.UUID) ([]byte, error) {
			data := v // copy
			return data[:], nil
		},
		uuid.FromBytes,
	)
)

// String returns a codec that converts between ~string types and their raw
// bytes, which already sort lexicographically.
func String[T ~string]() Codec[T] {
	return New(
		ModeBinary,
		func(v T) ([]byte, error) {
			return []byte(v), nil
		},
		func(data []byte) (T, error) {
			return T(data), nil
		},
	)
}

// Bytes returns the "identity" codec for ~[]byte types; it does not perform
// any conversion.
func Bytes[T ~[]byte]() Codec[T] {
	return New(
		ModeBinary,
		func(v T) ([]byte, error) {
			return []byte(v), nil
		},
		func(data []byte) (T, error) {
			return T(data), nil
		},
	)
}
