package security

import (
	"fmt"

	"pdcp-tx/pkg/types"
)

const (
	tagNEA1 = 0x21
	tagNEA3 = 0x23
	tagNEA2 = 0x22
)

// Encrypt produces the ciphertext for msg under key, following
// spec.md §4.3 step 2: nea0 is the identity transform; nea1/nea2/nea3
// are each a pure function of (key, count, bearer_id, direction,
// message). nea2 is a real AES-128-CTR keystream (TS 33.401 §B.1.3,
// modulo the prefix bit-packing — see buildIV); nea1/nea3 reuse the
// same AES-CTR primitive with a distinct domain tag rather than the
// literal SNOW3G/ZUC cores (DESIGN.md).
func Encrypt(algo types.CipheringAlgorithm, key types.Key128, count uint32, bearerID uint8, direction types.Direction, msg []byte) ([]byte, error) {
	switch algo {
	case types.NEA0:
		out := make([]byte, len(msg))
		copy(out, msg)
		return out, nil
	case types.NEA1:
		return xorKeystream(key, buildIV(count, bearerID, direction, tagNEA1), msg)
	case types.NEA2:
		return xorKeystream(key, buildIV(count, bearerID, direction, tagNEA2), msg)
	case types.NEA3:
		return xorKeystream(key, buildIV(count, bearerID, direction, tagNEA3), msg)
	default:
		return nil, fmt.Errorf("unknown ciphering algorithm: %v", algo)
	}
}

func xorKeystream(key types.Key128, iv [16]byte, msg []byte) ([]byte, error) {
	ks, err := keystream(key, iv, len(msg))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(msg))
	for i := range msg {
		out[i] = msg[i] ^ ks[i]
	}
	return out, nil
}
