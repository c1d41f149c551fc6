package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripFullRecord(t *testing.T) {
	in := Data{UUID: "abc-123", HasUUID: true, Seconds: 1700000000, Nanos: 123, HasTimestamp: true}
	encoded := Encode(in)
	out, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRoundTripAbsentFieldsPreserved(t *testing.T) {
	in := Data{UUID: "only-uuid", HasUUID: true}
	encoded := Encode(in)
	out, err := Decode(encoded)
	require.NoError(t, err)
	assert.True(t, out.HasUUID)
	assert.False(t, out.HasTimestamp)
	assert.Equal(t, "only-uuid", out.UUID)
}

func TestRoundTripEmptyRecord(t *testing.T) {
	in := Data{}
	encoded := Encode(in)
	out, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, Data{}, out)
}

func TestEncodeProducesUnpaddedBase64URL(t *testing.T) {
	encoded := Encode(Data{UUID: "x", HasUUID: true})
	assert.NotContains(t, encoded, "=")
}
