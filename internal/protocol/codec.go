package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	fieldSeparator = ";"
	kvSeparator    = "="
	protoKey       = "proto"
)

// Field is a single key/value pair
type Field struct {
	Key   string
	Value string
}

// F is shorthand for building a Field
func F(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Message is a decoded wire message with fields in wire order
type Message struct {
	Proto  Proto
	Fields []Field
}

// Get returns the first value stored under key
func (m Message) Get(key string) (string, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Decode parses "proto=<int>;k=v;k=v". Empty fields are skipped and a
// trailing NUL terminator is tolerated.
func Decode(raw []byte) (Message, error) {
	raw = bytes.TrimRight(raw, "\x00")
	parts := strings.Split(string(raw), fieldSeparator)

	var fields []Field
	for _, part := range parts {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, kvSeparator)
		if !ok {
			return Message{}, fmt.Errorf("%w: %w: %q", ErrDecode, ErrMalformedField, part)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}

	if len(fields) == 0 || fields[0].Key != protoKey {
		return Message{}, fmt.Errorf("%w: %w", ErrDecode, ErrNoProtocol)
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[0].Value))
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w: proto=%q", ErrDecode, ErrNoProtocol, fields[0].Value)
	}

	msg := Message{Proto: Proto(id)}
	if len(fields) > 1 {
		msg.Fields = fields[1:]
	}
	return msg, nil
}

// Encode renders proto and fields. The proto prefix always ends in a
// separator, so a message without fields encodes as "proto=N;".
func Encode(proto Proto, fields ...Field) []byte {
	var b strings.Builder
	b.WriteString(protoKey)
	b.WriteString(kvSeparator)
	b.WriteString(strconv.Itoa(int(proto)))
	b.WriteString(fieldSeparator)
	for i, f := range fields {
		if i > 0 {
			b.WriteString(fieldSeparator)
		}
		b.WriteString(f.Key)
		b.WriteString(kvSeparator)
		b.WriteString(f.Value)
	}
	return []byte(b.String())
}

// Bytes encodes the message
func (m Message) Bytes() []byte {
	return Encode(m.Proto, m.Fields...)
}

// IndexedFields numbers values from zero: 0=a;1=b;...
func IndexedFields(values []string) []Field {
	fields := make([]Field, len(values))
	for i, v := range values {
		fields[i] = Field{Key: strconv.Itoa(i), Value: v}
	}
	return fields
}

// IndexedInts is IndexedFields for integer lists
func IndexedInts(values []int) []Field {
	fields := make([]Field, len(values))
	for i, v := range values {
		fields[i] = Field{Key: strconv.Itoa(i), Value: strconv.Itoa(v)}
	}
	return fields
}

// Values returns the field values in wire order
func (m Message) Values() []string {
	values := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		values[i] = f.Value
	}
	return values
}
