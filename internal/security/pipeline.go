// Package security dispatches the per-bearer integrity and ciphering
// transforms and composes the protected PDU, following TS 38.323
// §5.8/5.9 (spec.md §4.3). It is parameterised over the four
// integrity and four ciphering algorithms and the two key domains
// (RRC vs user-plane) spec.md §3 defines.
package security

import (
	log "github.com/sirupsen/logrus"

	"pdcp-tx/pkg/types"
)

// Pipeline holds the security configuration and bearer identity a
// PDCP TX entity was constructed with; it never changes for the
// entity's lifetime (spec.md §5).
type Pipeline struct {
	Cfg       types.SecurityConfig
	Kind      types.BearerKind
	Direction types.Direction
	BearerID  uint8

	Logger *log.Entry
}

// New builds a Pipeline. logger may be nil, in which case a
// discarding logger is used.
func New(cfg types.SecurityConfig, kind types.BearerKind, direction types.Direction, bearerID uint8, logger *log.Entry) *Pipeline {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Pipeline{Cfg: cfg, Kind: kind, Direction: direction, BearerID: bearerID, Logger: logger}
}

// Protect composes header ‖ transform(header, sdu, count) per
// spec.md §4.3:
//  1. integrity: MAC-I over header‖sdu when integrity is enabled.
//  2. ciphering: plaintext = sdu ‖ mac_i? (MAC-I appended for SRB, or
//     for DRB with integrity enabled); ciphertext = encrypt(plaintext)
//     when ciphering is enabled.
//  3. assemble: header ‖ ciphertext.
//
// The header itself is never ciphered.
func (p *Pipeline) Protect(header, sdu []byte, count uint32) ([]byte, error) {
	var mac [4]byte
	if p.Cfg.IntegrityEnabled {
		var err error
		key := p.Cfg.IntegrityKey(p.Kind)
		buf := make([]byte, 0, len(header)+len(sdu))
		buf = append(buf, header...)
		buf = append(buf, sdu...)
		mac, err = GenerateMAC(p.Cfg.IntegAlgo, key, count, p.BearerID, p.Direction, buf)
		if err != nil {
			return nil, err
		}
		p.Logger.WithFields(log.Fields{"count": count, "bearer_id": p.BearerID}).Debug("integrity generated")
	}

	includeMAC := p.Kind == types.BearerSRB || (p.Kind == types.BearerDRB && p.Cfg.IntegrityEnabled)

	plaintext := make([]byte, 0, len(sdu)+4)
	plaintext = append(plaintext, sdu...)
	if includeMAC {
		plaintext = append(plaintext, mac[:]...)
	}

	var ciphertext []byte
	if p.Cfg.CipheringEnabled {
		var err error
		key := p.Cfg.CipheringKey(p.Kind)
		ciphertext, err = Encrypt(p.Cfg.CipherAlgo, key, count, p.BearerID, p.Direction, plaintext)
		if err != nil {
			return nil, err
		}
	} else {
		ciphertext = plaintext
	}

	out := make([]byte, 0, len(header)+len(ciphertext))
	out = append(out, header...)
	out = append(out, ciphertext...)
	return out, nil
}
