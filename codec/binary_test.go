package codec_test

import (
	"bytes"
	"testing"
	"time"

	. "github.com/dogmatiq/treekit/codec"
	"github.com/google/uuid"
	"pgregory.net/rapid"
)

// expectOrderPreserved confirms that the byte order of two encoded values
// agrees with the given native ordering of the values themselves.
func expectOrderPreserved[T any](
	t *rapid.T,
	c Codec[T],
	a, b T,
	cmp int,
) {
	t.Helper()

	da, err := c.Encode(a)
	if err != nil {
		t.Fatal(err)
	}

	db, err := c.Encode(b)
	if err != nil {
		t.Fatal(err)
	}

	if got := bytes.Compare(da, db); got != cmp {
		t.Fatalf(
			"byte order does not agree with native order: %v vs %v, want %d, got %d",
			a, b, cmp, got,
		)
	}
}

func compare[T uint16 | uint32 | uint64 | int64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func TestUint64(t *testing.T) {
	t.Run("it round-trips", rapid.MakeCheck(func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")

		data, err := Uint64.Encode(v)
		if err != nil {
			t.Fatal(err)
		}

		got, err := Uint64.Decode(data)
		if err != nil {
			t.Fatal(err)
		}

		if got != v {
			t.Fatalf("unexpected value: got %d, want %d", got, v)
		}
	}))

	t.Run("it preserves order", rapid.MakeCheck(func(t *rapid.T) {
		a := rapid.Uint64().Draw(t, "a")
		b := rapid.Uint64().Draw(t, "b")
		expectOrderPreserved(t, Uint64, a, b, compare(a, b))
	}))

	t.Run("it rejects input of the wrong length", func(t *testing.T) {
		if _, err := Uint64.Decode([]byte{0, 0, 0}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestUint32(t *testing.T) {
	t.Run("it round-trips and preserves order", rapid.MakeCheck(func(t *rapid.T) {
		a := rapid.Uint32().Draw(t, "a")
		b := rapid.Uint32().Draw(t, "b")

		data, err := Uint32.Encode(a)
		if err != nil {
			t.Fatal(err)
		}

		got, err := Uint32.Decode(data)
		if err != nil {
			t.Fatal(err)
		}

		if got != a {
			t.Fatalf("unexpected value: got %d, want %d", got, a)
		}

		expectOrderPreserved(t, Uint32, a, b, compare(a, b))
	}))
}

func TestUint16(t *testing.T) {
	t.Run("it round-trips and preserves order", rapid.MakeCheck(func(t *rapid.T) {
		a := rapid.Uint16().Draw(t, "a")
		b := rapid.Uint16().Draw(t, "b")

		data, err := Uint16.Encode(a)
		if err != nil {
			t.Fatal(err)
		}

		got, err := Uint16.Decode(data)
		if err != nil {
			t.Fatal(err)
		}

		if got != a {
			t.Fatalf("unexpected value: got %d, want %d", got, a)
		}

		expectOrderPreserved(t, Uint16, a, b, compare(a, b))
	}))
}

func TestBool(t *testing.T) {
	for _, v := range []bool{false, true} {
		data, err := Bool.Encode(v)
		if err != nil {
			t.Fatal(err)
		}

		got, err := Bool.Decode(data)
		if err != nil {
			t.Fatal(err)
		}

		if got != v {
			t.Fatalf("unexpected value: got %t, want %t", got, v)
		}
	}

	t.Run("it rejects invalid input", func(t *testing.T) {
		for _, data := range [][]byte{nil, {2}, {0, 0}} {
			if _, err := Bool.Decode(data); err == nil {
				t.Fatalf("expected an error decoding %v", data)
			}
		}
	})
}

func TestTime(t *testing.T) {
	gen := rapid.Custom(func(t *rapid.T) time.Time {
		us := rapid.Int64Range(-(1<<62), 1<<62).Draw(t, "us")
		return time.UnixMicro(us)
	})

	t.Run("it round-trips with microsecond precision", rapid.MakeCheck(func(t *rapid.T) {
		v := gen.Draw(t, "v")

		data, err := Time.Encode(v)
		if err != nil {
			t.Fatal(err)
		}

		got, err := Time.Decode(data)
		if err != nil {
			t.Fatal(err)
		}

		if !got.Equal(v) {
			t.Fatalf("unexpected value: got %s, want %s", got, v)
		}
	}))

	t.Run("it preserves order", rapid.MakeCheck(func(t *rapid.T) {
		a := gen.Draw(t, "a")
		b := gen.Draw(t, "b")
		expectOrderPreserved(t, Time, a, b, compare(a.UnixMicro(), b.UnixMicro()))
	}))

	t.Run("it orders times before the epoch below times after it", func(t *testing.T) {
		before, err := Time.Encode(time.UnixMicro(-1))
		if err != nil {
			t.Fatal(err)
		}

		after, err := Time.Encode(time.UnixMicro(0))
		if err != nil {
			t.Fatal(err)
		}

		if bytes.Compare(before, after) >= 0 {
			t.Fatal("expected pre-epoch time to sort below the epoch")
		}
	})
}

func TestUUID(t *testing.T) {
	v := uuid.New()

	data, err := UUID.Encode(v)
	if err != nil {
		t.Fatal(err)
	}

	got, err := UUID.Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	if got != v {
		t.Fatalf("unexpected value: got %s, want %s", got, v)
	}
}

func TestString(t *testing.T) {
	c := String[string]()

	t.Run("it round-trips and preserves order", rapid.MakeCheck(func(t *rapid.T) {
		a := rapid.String().Draw(t, "a")
		b := rapid.String().Draw(t, "b")

		data, err := c.Encode(a)
		if err != nil {
			t.Fatal(err)
		}

		got, err := c.Decode(data)
		if err != nil {
			t.Fatal(err)
		}

		if got != a {
			t.Fatalf("unexpected value: got %q, want %q", got, a)
		}

		cmp := 0
		if a < b {
			cmp = -1
		} else if a > b {
			cmp = 1
		}
		expectOrderPreserved(t, c, a, b, cmp)
	}))
}
