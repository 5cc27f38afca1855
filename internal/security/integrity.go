package security

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"pdcp-tx/pkg/types"
)

// tag bytes distinguish nia1/nia3 keystream derivation from the nea*
// ciphering slots and from each other; see keystream.go.
const (
	tagNIA1 = 0x11
	tagNIA3 = 0x13
)

// GenerateMAC computes the 4-byte MAC-I for msg under key, following
// spec.md §4.3 step 1: nia0 is the identity transform (all-zero
// MAC-I); nia1/nia2/nia3 are each a pure function of (key, count,
// bearer_id, direction, message).
func GenerateMAC(algo types.IntegrityAlgorithm, key types.Key128, count uint32, bearerID uint8, direction types.Direction, msg []byte) ([4]byte, error) {
	switch algo {
	case types.NIA0:
		return [4]byte{}, nil
	case types.NIA1:
		return foldMAC(key, buildIV(count, bearerID, direction, tagNIA1), msg)
	case types.NIA2:
		return aesCMAC32(key, buildIV(count, bearerID, direction, 0), msg)
	case types.NIA3:
		return foldMAC(key, buildIV(count, bearerID, direction, tagNIA3), msg)
	default:
		return [4]byte{}, fmt.Errorf("unknown integrity algorithm: %v", algo)
	}
}

// foldMAC XORs msg against a keystream of equal length, AES-encrypts
// the resulting 16-byte CBC-MAC-style fold and returns the first 4
// bytes. Used by the nia1/nia3 slots; see keystream.go for why this
// package does not carry the literal SNOW3G/ZUC cores.
func foldMAC(key types.Key128, iv [16]byte, msg []byte) ([4]byte, error) {
	ks, err := keystream(key, iv, len(msg))
	if err != nil {
		return [4]byte{}, err
	}

	var block [aes.BlockSize]byte
	for i, b := range msg {
		block[i%aes.BlockSize] ^= b ^ ks[i]
	}

	cph, err := aes.NewCipher(key[:])
	if err != nil {
		return [4]byte{}, err
	}
	var out [aes.BlockSize]byte
	cph.Encrypt(out[:], block[:])

	var mac [4]byte
	copy(mac[:], out[:4])
	return mac, nil
}

// aesCMAC32 implements standard NIST SP 800-38B AES-128-CMAC over the
// (count‖bearer‖direction) prefix concatenated with msg, truncated to
// 32 bits — the EIA2 construction TS 33.401 §B.2.3 specifies (modulo
// the exact bit-packing of the prefix, see buildIV).
func aesCMAC32(key types.Key128, iv [16]byte, msg []byte) ([4]byte, error) {
	mac, err := cmac(key, append(iv[:], msg...))
	if err != nil {
		return [4]byte{}, err
	}
	var out [4]byte
	copy(out[:], mac[:4])
	return out, nil
}

// cmac computes the full 16-byte AES-128-CMAC of msg per NIST SP 800-38B.
func cmac(key types.Key128, msg []byte) ([aes.BlockSize]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return [aes.BlockSize]byte{}, err
	}

	k1, k2 := cmacSubkeys(block)

	n := len(msg)
	var lastBlock [aes.BlockSize]byte
	complete := n > 0 && n%aes.BlockSize == 0

	numBlocks := n / aes.BlockSize
	if !complete {
		numBlocks++
	}
	if numBlocks == 0 {
		numBlocks = 1
	}

	var mac [aes.BlockSize]byte
	enc := make([]byte, aes.BlockSize)
	for i := 0; i < numBlocks-1; i++ {
		chunk := msg[i*aes.BlockSize : (i+1)*aes.BlockSize]
		xorBlock(mac[:], chunk)
		block.Encrypt(enc, mac[:])
		copy(mac[:], enc)
	}

	start := (numBlocks - 1) * aes.BlockSize
	tail := msg[start:]
	if complete {
		copy(lastBlock[:], tail)
		xorBlock(lastBlock[:], k1[:])
	} else {
		copy(lastBlock[:], tail)
		lastBlock[len(tail)] = 0x80
		xorBlock(lastBlock[:], k2[:])
	}

	xorBlock(mac[:], lastBlock[:])
	block.Encrypt(enc, mac[:])
	copy(mac[:], enc)

	return mac, nil
}

func cmacSubkeys(block cipher.Block) (k1, k2 [aes.BlockSize]byte) {
	var zero, l [aes.BlockSize]byte
	block.Encrypt(l[:], zero[:])

	k1 = leftShiftOneBitXorRb(l)
	k2 = leftShiftOneBitXorRb(k1)
	return k1, k2
}

const rb = 0x87 // R128 per SP 800-38B for a 128-bit block cipher

func leftShiftOneBitXorRb(in [aes.BlockSize]byte) [aes.BlockSize]byte {
	var out [aes.BlockSize]byte
	msbSet := in[0]&0x80 != 0
	var carry byte
	for i := aes.BlockSize - 1; i >= 0; i-- {
		out[i] = in[i]<<1 | carry
		carry = in[i] >> 7
	}
	if msbSet {
		out[aes.BlockSize-1] ^= rb
	}
	return out
}

func xorBlock(dst []byte, src []byte) {
	for i := range dst {
		if i < len(src) {
			dst[i] ^= src[i]
		}
	}
}
