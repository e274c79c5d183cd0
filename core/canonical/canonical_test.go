package canonical_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ubirch/go-certify/core/canonical"
	"github.com/ubirch/go-certify/core/failure"
	"github.com/ubirch/go-certify/core/value"
	"github.com/ubirch/go-certify/testing/helpers"
)

func TestEncode(t *testing.T) {
	t.Run("known bytes", func(t *testing.T) {
		v := helpers.Must(value.ParseJSON([]byte(`{"temp": 21.5, "unit": "C"}`)))
		b, err := canonical.Encode(v)
		require.NoError(t, err)
		require.Equal(t, "82a474656d70cb4035800000000000a4756e6974a143", hex.EncodeToString(b))
	})

	t.Run("compact integers", func(t *testing.T) {
		v := helpers.Must(value.ParseJSON([]byte(`{"a": 1, "b": -1, "c": 200, "d": -200, "e": 70000}`)))
		b, err := canonical.Encode(v)
		require.NoError(t, err)
		require.Equal(t, "85"+
			"a16101"+
			"a162ff"+
			"a163ccc8"+
			"a164d1ff38"+ // -200 as int16
			"a165ce00011170", hex.EncodeToString(b))
	})

	t.Run("integers above int64 use uint64", func(t *testing.T) {
		v := helpers.Must(value.ParseJSON([]byte(`{"n": 18446744073709551615, "m": 9223372036854775808}`)))
		b, err := canonical.Encode(v)
		require.NoError(t, err)
		require.Equal(t, "82"+
			"a16ecfffffffffffffffff"+
			"a16dcf8000000000000000", hex.EncodeToString(b))
	})

	t.Run("insertion order changes bytes", func(t *testing.T) {
		a := helpers.Must(canonical.Encode(helpers.Must(value.ParseJSON([]byte(`{"x": 1, "y": 2}`)))))
		b := helpers.Must(canonical.Encode(helpers.Must(value.ParseJSON([]byte(`{"y": 2, "x": 1}`)))))
		require.NotEqual(t, a, b)
	})

	t.Run("deterministic", func(t *testing.T) {
		v := helpers.Must(value.ParseJSON([]byte(`{"k": [1, 2.5, "three", null, true, {"n": {}}]}`)))
		require.Equal(t, helpers.Must(canonical.Encode(v)), helpers.Must(canonical.Encode(v)))
	})

	t.Run("rejects non-map root", func(t *testing.T) {
		for _, in := range []string{`[1, 2]`, `"s"`, `3`, `null`, `true`} {
			_, err := canonical.Encode(helpers.Must(value.ParseJSON([]byte(in))))
			require.ErrorIs(t, err, failure.ErrInput, in)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"temp": 21.5, "unit": "C"}`,
		`{"z": 1, "a": {"nested": [1, -1, 9007199254740993, -9223372036854775808, 0.1, 1e300]}, "m": null}`,
		`{"max": 18446744073709551615, "min": -9223372036854775808, "edge": 9223372036854775807}`,
		`{"bools": [true, false], "empty": [], "obj": {}, "unicode": "grüße ✓"}`,
		`{"long": "` + strings.Repeat("x", 70000) + `"}`,
	}
	for _, in := range inputs {
		v := helpers.Must(value.ParseJSON([]byte(in)))
		b, err := canonical.Encode(v)
		require.NoError(t, err)

		out, err := canonical.Decode(b)
		require.NoError(t, err)
		require.True(t, v.Equal(out), "round trip of %.60s", in)
	}
}

func TestDecode(t *testing.T) {
	t.Run("non-map root", func(t *testing.T) {
		_, err := canonical.Decode([]byte{0x92, 0x01, 0x02})
		require.ErrorIs(t, err, failure.ErrEncoding)
	})

	t.Run("truncated", func(t *testing.T) {
		b := helpers.Must(canonical.Encode(helpers.Must(value.ParseJSON([]byte(`{"temp": 21.5}`)))))
		_, err := canonical.Decode(b[:len(b)-2])
		require.ErrorIs(t, err, failure.ErrEncoding)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		b := helpers.Must(canonical.Encode(helpers.Must(value.ParseJSON([]byte(`{"a": 1}`)))))
		_, err := canonical.Decode(append(b, 0x00))
		require.ErrorIs(t, err, failure.ErrEncoding)
	})

	t.Run("binary values unsupported", func(t *testing.T) {
		_, err := canonical.Decode([]byte{0x81, 0xa1, 'a', 0xc4, 0x01, 0xff})
		require.ErrorIs(t, err, failure.ErrEncoding)
	})

	t.Run("uint64 beyond int64", func(t *testing.T) {
		b, _ := hex.DecodeString("81a16ecfffffffffffffffff")
		v, err := canonical.Decode(b)
		require.NoError(t, err)
		m, _ := v.AsMap()
		n, _ := m.Get("n")
		num, _ := n.AsNumber()
		u, ok := num.Uint64()
		require.True(t, ok)
		require.Equal(t, uint64(18446744073709551615), u)
		require.Equal(t, b, helpers.Must(canonical.Encode(v)))
	})

	t.Run("small uint64 encoding decodes as integer", func(t *testing.T) {
		b, _ := hex.DecodeString("81a16ecf0000000000000005")
		v, err := canonical.Decode(b)
		require.NoError(t, err)
		require.True(t, v.Equal(value.MapValue(value.NewMap(value.Entry{Key: "n", Value: value.IntValue(5)}))))
	})

	t.Run("map keys must be strings", func(t *testing.T) {
		for _, in := range []string{
			"81c001",     // nil key
			"81c4016101", // bin key
			"810101",     // integer key
		} {
			b, _ := hex.DecodeString(in)
			_, err := canonical.Decode(b)
			require.ErrorIs(t, err, failure.ErrEncoding, in)
			require.ErrorContains(t, err, "map key is not a string", in)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := canonical.Decode(nil)
		require.ErrorIs(t, err, failure.ErrEncoding)
	})

	t.Run("float32 decodes as float", func(t *testing.T) {
		v, err := canonical.Decode([]byte{0x81, 0xa1, 'f', 0xca, 0x3f, 0xc0, 0x00, 0x00})
		require.NoError(t, err)
		m, _ := v.AsMap()
		f, _ := m.Get("f")
		require.True(t, f.Equal(value.FloatValue(1.5)))
	})
}
