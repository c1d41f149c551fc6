// Package wire implements the upstream's server_message_data wire format: a
// base64url (unpadded) encoding of a two-field length-delimited binary
// message. This is the one part of the upstream's schema-typed codec that
// is fully specified at the byte level, so it is hand-rolled directly on
// protowire's varint/length-delimited primitives rather than pulled in as
// a full schema runtime.
package wire

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldUUID      protowire.Number = 1
	fieldTimestamp protowire.Number = 3

	fieldSeconds protowire.Number = 1
	fieldNanos   protowire.Number = 2
)

// Data is the decoded representation of a server_message_data value.
// Presence is tracked explicitly: either field may be absent from the wire
// form, and absence must round-trip as absence, not as a zero value.
type Data struct {
	UUID         string
	HasUUID      bool
	Seconds      int64
	Nanos        int64
	HasTimestamp bool
}

// Encode serializes d to its unpadded base64url wire string.
func Encode(d Data) string {
	var b []byte
	if d.HasUUID {
		b = protowire.AppendTag(b, fieldUUID, protowire.BytesType)
		b = protowire.AppendString(b, d.UUID)
	}
	if d.HasTimestamp {
		var ts []byte
		ts = protowire.AppendTag(ts, fieldSeconds, protowire.VarintType)
		ts = protowire.AppendVarint(ts, uint64(d.Seconds))
		ts = protowire.AppendTag(ts, fieldNanos, protowire.VarintType)
		ts = protowire.AppendVarint(ts, uint64(d.Nanos))

		b = protowire.AppendTag(b, fieldTimestamp, protowire.BytesType)
		b = protowire.AppendBytes(b, ts)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode parses an unpadded (or padded) base64url wire string. Unknown
// fields are skipped, never an error.
func Decode(s string) (Data, error) {
	raw, err := decodeBase64URL(s)
	if err != nil {
		return Data{}, fmt.Errorf("wire: invalid base64url: %w", err)
	}

	var d Data
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return Data{}, fmt.Errorf("wire: invalid tag: %w", protowire.ParseError(n))
		}
		raw = raw[n:]

		switch {
		case num == fieldUUID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(raw)
			if n < 0 {
				return Data{}, fmt.Errorf("wire: invalid uuid field: %w", protowire.ParseError(n))
			}
			d.UUID = v
			d.HasUUID = true
			raw = raw[n:]

		case num == fieldTimestamp && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return Data{}, fmt.Errorf("wire: invalid timestamp field: %w", protowire.ParseError(n))
			}
			sec, nanos, err := decodeTimestamp(v)
			if err != nil {
				return Data{}, err
			}
			d.Seconds = sec
			d.Nanos = nanos
			d.HasTimestamp = true
			raw = raw[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, raw)
			if n < 0 {
				return Data{}, fmt.Errorf("wire: invalid field %d: %w", num, protowire.ParseError(n))
			}
			raw = raw[n:]
		}
	}
	return d, nil
}

func decodeTimestamp(raw []byte) (seconds, nanos int64, err error) {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return 0, 0, fmt.Errorf("wire: invalid timestamp tag: %w", protowire.ParseError(n))
		}
		raw = raw[n:]

		switch {
		case num == fieldSeconds && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, 0, fmt.Errorf("wire: invalid seconds field: %w", protowire.ParseError(n))
			}
			seconds = int64(v)
			raw = raw[n:]
		case num == fieldNanos && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, 0, fmt.Errorf("wire: invalid nanos field: %w", protowire.ParseError(n))
			}
			nanos = int64(v)
			raw = raw[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, raw)
			if n < 0 {
				return 0, 0, fmt.Errorf("wire: invalid timestamp field %d: %w", num, protowire.ParseError(n))
			}
			raw = raw[n:]
		}
	}
	return seconds, nanos, nil
}

// decodeBase64URL accepts both the unpadded form the upstream emits and a
// padded form, for tolerance.
func decodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
