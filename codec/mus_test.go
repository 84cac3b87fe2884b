package codec_test

import (
	"encoding/binary"
	"errors"
	"testing"

	. "github.com/dogmatiq/treekit/codec"
)

// fixedUint32 is a hand-written MUS serializer, standing in for the
// generated serializers this codec is normally used with.
type fixedUint32 struct{}

func (fixedUint32) Marshal(v uint32, bs []byte) int {
	binary.BigEndian.PutUint32(bs, v)
	return 4
}

func (fixedUint32) Unmarshal(bs []byte) (uint32, int, error) {
	if len(bs) < 4 {
		return 0, 0, errors.New("too few bytes")
	}
	return binary.BigEndian.Uint32(bs), 4, nil
}

func (fixedUint32) Size(uint32) int {
	return 4
}

func (fixedUint32) Skip(bs []byte) (int, error) {
	if len(bs) < 4 {
		return 0, errors.New("too few bytes")
	}
	return 4, nil
}

func TestMUS(t *testing.T) {
	c := MUS[uint32](fixedUint32{})

	if c.Mode() != ModeBinary {
		t.Fatalf("unexpected mode: got %s, want %s", c.Mode(), ModeBinary)
	}

	data, err := c.Encode(0xdeadbeef)
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	if got != 0xdeadbeef {
		t.Fatalf("unexpected value: got %x", got)
	}

	t.Run("it rejects trailing bytes", func(t *testing.T) {
		if _, err := c.Decode(append(data, 0)); err == nil {
			t.Fatal("expected an error")
		}
	})
}
