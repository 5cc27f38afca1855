// Package pdu encodes and decodes the two PDCP PDU headers the TX
// entity deals with: the data-PDU header (TS 38.323 §6.2.2.1/.2) and
// the status-report control-PDU header (§6.2.3.1). Ciphering and
// integrity protection operate on the bytes this package produces;
// neither type here is itself ciphered.
package pdu

import (
	"fmt"

	"pdcp-tx/pkg/types"
)

// EncodeDataHeader serialises a PDCP data-PDU header. Byte 0 bit 7
// carries D/C (1 for DRB, 0 for SRB); the remaining bits hold the top
// nibble (12-bit SN) or top 2 bits (18-bit SN) of the sequence number.
func EncodeDataHeader(hdr types.DataPDUHeader) ([]byte, error) {
	if hdr.Kind == types.BearerSRB && hdr.Size == types.SN18Bits {
		return nil, fmt.Errorf("invalid 18-bit SRB header")
	}

	buf := make([]byte, hdr.Size.HeaderLen())
	if hdr.Kind == types.BearerDRB {
		buf[0] = 0x80
	}

	switch hdr.Size {
	case types.SN12Bits:
		buf[0] |= byte((hdr.SN & 0x00000f00) >> 8)
		buf[1] = byte(hdr.SN & 0x000000ff)
	case types.SN18Bits:
		buf[0] |= byte((hdr.SN & 0x00030000) >> 16)
		buf[1] = byte((hdr.SN & 0x0000ff00) >> 8)
		buf[2] = byte(hdr.SN & 0x000000ff)
	default:
		return nil, fmt.Errorf("invalid sn_size: %d", hdr.Size)
	}
	return buf, nil
}

// DecodeDataHeader parses a data-PDU header of the given SN size back
// into its (kind, sn) components. It is the inverse of
// EncodeDataHeader and exists chiefly so the round-trip property in
// spec.md §8 can be tested directly.
func DecodeDataHeader(buf []byte, size types.SNSize) (types.DataPDUHeader, error) {
	if !size.Valid() {
		return types.DataPDUHeader{}, fmt.Errorf("invalid sn_size: %d", size)
	}
	if len(buf) < size.HeaderLen() {
		return types.DataPDUHeader{}, fmt.Errorf("header too short: got %d bytes, want %d", len(buf), size.HeaderLen())
	}

	kind := types.BearerSRB
	if buf[0]&0x80 != 0 {
		kind = types.BearerDRB
	}
	if kind == types.BearerSRB && size == types.SN18Bits {
		return types.DataPDUHeader{}, fmt.Errorf("invalid 18-bit SRB header")
	}

	var sn uint32
	switch size {
	case types.SN12Bits:
		sn = uint32(buf[0]&0x0f)<<8 | uint32(buf[1])
	case types.SN18Bits:
		sn = uint32(buf[0]&0x03)<<16 | uint32(buf[1])<<8 | uint32(buf[2])
	}

	return types.DataPDUHeader{Kind: kind, Size: size, SN: sn}, nil
}
