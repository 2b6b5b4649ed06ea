// Package codec implements spec.md §4.1's record framing: each (key, value)
// pair is written as one comma-separated line, base64-encoding every field
// before handing it to encoding/csv. Base64's alphabet excludes ',', '"' and
// '\n', which resolves two things at once (see SPEC_FULL.md §4.1):
//
//   - arbitrary binary keys/values round-trip losslessly through a text-mode
//     CSV writer, satisfying the "tolerate all byte values" requirement;
//   - every logical record is guaranteed to occupy exactly one physical
//     line, so a record's on-disk length is always len(line)+1 and there is
//     no off-by-one ambiguity between "offset before" and "offset after" a
//     record when building the segment's sparse index or truncating a log
//     on recovery.
package codec

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/csv"
	"io"
)

// EncodeLogLine produces the 3-field framed line for a write-ahead log
// record: base64(crc32_le(key||value)), base64(key), base64(value).
func EncodeLogLine(key, value []byte) []byte {
	sum := crc32AIXM(concat(key, value))
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], sum)
	return encodeLine(crcBytes[:], key, value)
}

// DecodeLogLine parses a framed log line and validates its CRC. ok is false
// for any decoding fault — short record, bad base64, CRC mismatch — per
// spec.md §4.1's "not a valid record" contract; callers must treat that as
// end-of-valid-log rather than a hard error.
func DecodeLogLine(line []byte) (key, value []byte, ok bool) {
	fields, err := decodeLine(line, 3)
	if err != nil {
		return nil, nil, false
	}
	crcBytes, key, value := fields[0], fields[1], fields[2]
	if len(crcBytes) != 4 {
		return nil, nil, false
	}
	want := binary.LittleEndian.Uint32(crcBytes)
	got := crc32AIXM(concat(key, value))
	if want != got {
		return nil, nil, false
	}
	return key, value, true
}

// EncodeSegmentLine produces the 2-field framed line for a segment record:
// base64(key), base64(value). Segment files carry no per-record checksum —
// spec.md's Non-goals explicitly exclude segment-file checksums, since a
// renamed segment is trusted once in place.
func EncodeSegmentLine(key, value []byte) []byte {
	return encodeLine(key, value)
}

// DecodeSegmentLine parses a framed segment line. ok is false for any
// decoding fault, matching DecodeLogLine's contract.
func DecodeSegmentLine(line []byte) (key, value []byte, ok bool) {
	fields, err := decodeLine(line, 2)
	if err != nil {
		return nil, nil, false
	}
	return fields[0], fields[1], true
}

func encodeLine(fields ...[]byte) []byte {
	record := make([]string, len(fields))
	for i, f := range fields {
		record[i] = base64.StdEncoding.EncodeToString(f)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// A write to an in-memory bytes.Buffer cannot fail; panicking here would
	// indicate a csv package invariant was broken, not a caller error.
	if err := w.Write(record); err != nil {
		panic("codec: csv write to in-memory buffer failed: " + err.Error())
	}
	w.Flush()
	return buf.Bytes()
}

func decodeLine(line []byte, fieldCount int) ([][]byte, error) {
	r := csv.NewReader(bytes.NewReader(line))
	r.FieldsPerRecord = fieldCount

	record, err := r.Read()
	if err != nil {
		return nil, err
	}

	fields := make([][]byte, fieldCount)
	for i, s := range record {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		fields[i] = decoded
	}
	return fields, nil
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// ReadLine reads one framed line from r, including its trailing '\n'.
//
// complete is true only when a full, newline-terminated line was read: that
// is the only case in which the returned line should be handed to
// DecodeLogLine/DecodeSegmentLine. A clean end of input (no more bytes at
// all) returns complete=false, err=nil. A dangling partial line at EOF (data
// present but no trailing newline — e.g. a write that was interrupted
// mid-record) also returns complete=false, err=nil: the caller's recovery
// logic treats both cases identically, as "nothing more to recover here".
// Only a genuine I/O error distinct from EOF is returned via err.
func ReadLine(r *bufio.Reader) (line []byte, complete bool, err error) {
	data, rerr := r.ReadBytes('\n')
	switch {
	case rerr == nil:
		return data, true, nil
	case rerr == io.EOF:
		return data, false, nil
	default:
		return nil, false, rerr
	}
}
