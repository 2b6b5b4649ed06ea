package codec

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLineRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		key   []byte
		value []byte
	}{
		{"simple", []byte("hello"), []byte("world")},
		{"empty value", []byte("k"), []byte("")},
		{"binary with delimiters", []byte("k,\"\n"), []byte("v,\"\nmore\x00bytes")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := EncodeLogLine(tc.key, tc.value)
			key, value, ok := DecodeLogLine(bytes.TrimSuffix(line, []byte("\n")))
			require.True(t, ok)
			require.Equal(t, tc.key, key)
			require.Equal(t, tc.value, value)
		})
	}
}

func TestDecodeLogLineRejectsCorruptedCRC(t *testing.T) {
	line := EncodeLogLine([]byte("k"), []byte("v"))
	line = bytes.TrimSuffix(line, []byte("\n"))
	corrupted := append([]byte(nil), line...)
	corrupted[0] ^= 0xFF // flip every bit of the first byte of the base64-encoded CRC field

	_, _, ok := DecodeLogLine(corrupted)
	require.False(t, ok)
}

func TestDecodeLogLineRejectsShortRecord(t *testing.T) {
	_, _, ok := DecodeLogLine([]byte("not,enough"))
	require.False(t, ok)
}

func TestSegmentLineRoundTrip(t *testing.T) {
	line := EncodeSegmentLine([]byte("key0001"), []byte("value"))
	key, value, ok := DecodeSegmentLine(bytes.TrimSuffix(line, []byte("\n")))
	require.True(t, ok)
	require.Equal(t, []byte("key0001"), key)
	require.Equal(t, []byte("value"), value)
}

func TestReadLineStopsAtPartialTrailingLine(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeLogLine([]byte("a"), []byte("1")))
	buf.Write(EncodeLogLine([]byte("b"), []byte("2")))
	buf.WriteString("partial-no-newline")

	r := bufio.NewReader(&buf)

	line, complete, err := ReadLine(r)
	require.NoError(t, err)
	require.True(t, complete)
	k, v, ok := DecodeLogLine(bytes.TrimSuffix(line, []byte("\n")))
	require.True(t, ok)
	require.Equal(t, []byte("a"), k)
	require.Equal(t, []byte("1"), v)

	line, complete, err = ReadLine(r)
	require.NoError(t, err)
	require.True(t, complete)
	k, v, ok = DecodeLogLine(bytes.TrimSuffix(line, []byte("\n")))
	require.True(t, ok)
	require.Equal(t, []byte("b"), k)
	require.Equal(t, []byte("2"), v)

	_, complete, err = ReadLine(r)
	require.NoError(t, err)
	require.False(t, complete, "a partial trailing line must not be treated as complete")

	_, complete, err = ReadLine(r)
	require.NoError(t, err)
	require.False(t, complete, "clean EOF must also report incomplete")
}
