package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdcp-tx/pkg/types"
)

func TestProtect_IdentityAlgosNoMAC(t *testing.T) {
	p := New(types.SecurityConfig{IntegAlgo: types.NIA0, CipherAlgo: types.NEA0}, types.BearerDRB, types.DirectionDownlink, 0, nil)
	header := []byte{0x80, 0x00}
	sdu := []byte{0xAA, 0xBB}

	out, err := p.Protect(header, sdu, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0x00, 0xAA, 0xBB}, out)
}

func TestProtect_DRBIntegrityEnabledIdentityCipher(t *testing.T) {
	p := New(types.SecurityConfig{IntegAlgo: types.NIA0, CipherAlgo: types.NEA0, IntegrityEnabled: true}, types.BearerDRB, types.DirectionDownlink, 0, nil)
	header := []byte{0x80, 0x05}
	sdu := []byte{0xDE, 0xAD}

	out, err := p.Protect(header, sdu, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0x05, 0xDE, 0xAD, 0x00, 0x00, 0x00, 0x00}, out)
}

func TestProtect_DRBWithoutIntegrityOmitsMAC(t *testing.T) {
	p := New(types.SecurityConfig{IntegAlgo: types.NIA2, CipherAlgo: types.NEA0}, types.BearerDRB, types.DirectionDownlink, 0, nil)
	header := []byte{0x80, 0x00}
	sdu := []byte{0x01, 0x02, 0x03}

	out, err := p.Protect(header, sdu, 0)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, header...), sdu...), out)
}

func TestProtect_SRBAlwaysIncludesMAC(t *testing.T) {
	var key types.Key128
	for i := range key {
		key[i] = byte(i)
	}
	p := New(types.SecurityConfig{IntegAlgo: types.NIA2, CipherAlgo: types.NEA0, KRRCInt: key}, types.BearerSRB, types.DirectionUplink, 0, nil)
	header := []byte{0x0A, 0xBB}
	sdu := []byte{0x01, 0x02, 0x03}

	out, err := p.Protect(header, sdu, 1)
	require.NoError(t, err)
	require.Len(t, out, len(header)+len(sdu)+4)
	assert.Equal(t, header, out[:len(header)])
}

func TestEncrypt_NEA2IsSymmetric(t *testing.T) {
	var key types.Key128
	for i := range key {
		key[i] = byte(16 - i)
	}
	plaintext := []byte("hello pdcp world")

	ciphertext, err := Encrypt(types.NEA2, key, 42, 3, types.DirectionDownlink, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	recovered, err := Encrypt(types.NEA2, key, 42, 3, types.DirectionDownlink, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestEncrypt_NEA0IsIdentity(t *testing.T) {
	plaintext := []byte{0x01, 0x02, 0x03}
	out, err := Encrypt(types.NEA0, types.Key128{}, 0, 0, types.DirectionUplink, plaintext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestGenerateMAC_NIA0IsZero(t *testing.T) {
	mac, err := GenerateMAC(types.NIA0, types.Key128{}, 0, 0, types.DirectionUplink, []byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, [4]byte{}, mac)
}

func TestGenerateMAC_NIA2IsDeterministicAndKeyed(t *testing.T) {
	var keyA, keyB types.Key128
	for i := range keyA {
		keyA[i] = byte(i)
		keyB[i] = byte(i + 1)
	}
	msg := []byte("a PDCP test message spanning more than one AES block boundary")

	macA1, err := GenerateMAC(types.NIA2, keyA, 7, 1, types.DirectionDownlink, msg)
	require.NoError(t, err)
	macA2, err := GenerateMAC(types.NIA2, keyA, 7, 1, types.DirectionDownlink, msg)
	require.NoError(t, err)
	macB, err := GenerateMAC(types.NIA2, keyB, 7, 1, types.DirectionDownlink, msg)
	require.NoError(t, err)

	assert.Equal(t, macA1, macA2)
	assert.NotEqual(t, macA1, macB)
}
