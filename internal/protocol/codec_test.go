package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		proto    Proto
		expected []Field
	}{
		{
			name:  "proto only",
			raw:   "proto=2;",
			proto: ProtoReadyUp,
		},
		{
			name:     "fields in order",
			raw:      "proto=1;roomid=R1;name=Ann;key=_",
			proto:    ProtoNewUser,
			expected: []Field{F("roomid", "R1"), F("name", "Ann"), F("key", "_")},
		},
		{
			name:     "trailing separator and nul",
			raw:      "proto=5;powerup=3;attacking=Bob;\x00",
			proto:    ProtoUsePowerup,
			expected: []Field{F("powerup", "3"), F("attacking", "Bob")},
		},
		{
			name:     "value containing equals",
			raw:      "proto=0;roomid=R1;key=a=b",
			proto:    ProtoCreateRoom,
			expected: []Field{F("roomid", "R1"), F("key", "a=b")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.proto, msg.Proto)
			assert.Equal(t, tt.expected, msg.Fields)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected error
	}{
		{name: "empty", raw: "", expected: ErrNoProtocol},
		{name: "no proto first", raw: "roomid=R1;proto=0", expected: ErrNoProtocol},
		{name: "non numeric proto", raw: "proto=abc;", expected: ErrNoProtocol},
		{name: "field without separator", raw: "proto=0;roomid", expected: ErrMalformedField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrDecode)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "proto=3;", string(Encode(ProtoStartGame)))
	assert.Equal(t, "proto=7;name=Ann-1", string(Encode(ProtoNameChange, F("name", "Ann-1"))))
	assert.Equal(t, "proto=4;0=Ann;1=Bob", string(Encode(ProtoGetUserList, IndexedFields([]string{"Ann", "Bob"})...)))
	assert.Equal(t, "proto=8;0=0;1=4", string(Encode(ProtoGetLevelList, IndexedInts([]int{0, 4})...)))
}

func TestRoundTrip(t *testing.T) {
	original := Message{
		Proto:  ProtoUsePowerup,
		Fields: []Field{F("powerup", "2"), F("user", "Ann")},
	}

	decoded, err := Decode(original.Bytes())
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestProtoString(t *testing.T) {
	assert.Equal(t, "USE_POWEWRUP", ProtoUsePowerup.String())
	assert.Equal(t, "PROTO(99)", Proto(99).String())

	p, ok := ParseProto("GRANT_WINNER")
	assert.True(t, ok)
	assert.Equal(t, ProtoGrantWinner, p)
}
