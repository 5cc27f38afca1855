package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdcp-tx/pkg/types"
)

func TestEncodeDataHeader_SRB12Bit(t *testing.T) {
	buf, err := EncodeDataHeader(types.DataPDUHeader{Kind: types.BearerSRB, Size: types.SN12Bits, SN: 0x0AB})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0xAB}, buf)
}

func TestEncodeDataHeader_DRB12Bit(t *testing.T) {
	buf, err := EncodeDataHeader(types.DataPDUHeader{Kind: types.BearerDRB, Size: types.SN12Bits, SN: 0})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0x00}, buf)
}

func TestEncodeDataHeader_DRB18Bit(t *testing.T) {
	buf, err := EncodeDataHeader(types.DataPDUHeader{Kind: types.BearerDRB, Size: types.SN18Bits, SN: 0x3FFFF})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x83, 0xFF, 0xFF}, buf)
}

func TestEncodeDataHeader_RejectsSRB18Bit(t *testing.T) {
	_, err := EncodeDataHeader(types.DataPDUHeader{Kind: types.BearerSRB, Size: types.SN18Bits, SN: 1})
	assert.Error(t, err)
}

func TestHeaderRoundTrip(t *testing.T) {
	cases := []types.DataPDUHeader{
		{Kind: types.BearerSRB, Size: types.SN12Bits, SN: 0},
		{Kind: types.BearerSRB, Size: types.SN12Bits, SN: 0xFFF},
		{Kind: types.BearerDRB, Size: types.SN12Bits, SN: 0x0AB},
		{Kind: types.BearerDRB, Size: types.SN18Bits, SN: 0},
		{Kind: types.BearerDRB, Size: types.SN18Bits, SN: 0x3FFFF},
		{Kind: types.BearerDRB, Size: types.SN18Bits, SN: 0x1A2B3},
	}
	for _, tc := range cases {
		buf, err := EncodeDataHeader(tc)
		require.NoError(t, err)
		decoded, err := DecodeDataHeader(buf, tc.Size)
		require.NoError(t, err)
		assert.Equal(t, tc, decoded)
	}
}

func TestDecodeDataHeader_TooShort(t *testing.T) {
	_, err := DecodeDataHeader([]byte{0x80}, types.SN12Bits)
	assert.Error(t, err)
}
