package security

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"pdcp-tx/pkg/types"
)

// buildIV lays out the (count, bearer_id, direction) input block TS
// 33.401's EEA2/EIA2 constructions use: COUNT(32) || BEARER(5) ||
// DIRECTION(1) || 0^26, packed into a 16-byte block. EEA1/EIA1
// (SNOW3G) and EEA3/EIA3 (ZUC) have their own bit-for-bit layouts in
// the 3GPP algorithm specifications (TS 35.216/TS 35.221); this
// module does not reproduce those LFSR/FSM cores (see DESIGN.md) and
// instead derives every non-identity algorithm's keystream from this
// same AES-128 block, varying only a domain-separation tag per
// algorithm so nia1/nia3 and nea1/nea3 remain distinct functions of
// their inputs without colliding with nia2/nea2.
func buildIV(count uint32, bearerID uint8, direction types.Direction, tag byte) [16]byte {
	var iv [16]byte
	binary.BigEndian.PutUint32(iv[0:4], count)
	iv[4] = bearerID<<3 | byte(direction)<<2
	iv[15] = tag
	return iv
}

// keystream returns n bytes of AES-128-CTR output seeded from iv,
// the common primitive every non-identity algorithm slot in this
// package is built from.
func keystream(key types.Key128, iv [16]byte, n int) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	stream := cipher.NewCTR(block, iv[:])
	stream.XORKeyStream(out, out)
	return out, nil
}
