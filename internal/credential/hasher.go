package credential

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/frahmantamala/dashboard-access/internal"
	"golang.org/x/crypto/bcrypt"
)

// equalizerPlaintext feeds the dummy hash used to pad unknown-email logins.
const equalizerPlaintext = "timing-equalizer"

// fallbackDummyHash is equalizerPlaintext at bcrypt.DefaultCost, used when generation fails.
const fallbackDummyHash = "$2b$10$SV3yYE8cx5E5KeYlLiGlsOmxkWsztWXSXdVl.kiolV/zgbyXe.uyG"

type Hasher struct {
	cost        int
	allowLegacy bool

	generate  func(password []byte, cost int) ([]byte, error)
	dummyOnce sync.Once
	dummyHash []byte
}

func NewHasher(cost int, allowLegacyPlaintext bool) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost, allowLegacy: allowLegacyPlaintext, generate: bcrypt.GenerateFromPassword}
}

func (h *Hasher) Cost() int {
	return h.cost
}

func (h *Hasher) AllowsLegacyPlaintext() bool {
	return h.allowLegacy
}

// Hash returns a salted bcrypt hash. Empty or over-long input is rejected with InvalidInput.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", internal.ErrInvalidInput.WithMessage("password is required")
	}
	hash, err := h.generate([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", internal.ErrInvalidInput.WithMessage("password must not exceed 72 bytes")
		}
		return "", internal.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}

// Verify checks plaintext against a hashed credential. Malformed hashes and legacy plaintext yield false.
func (h *Hasher) Verify(plaintext, stored string) bool {
	if plaintext == "" || stored == "" {
		return false
	}
	switch DetectEncoding(stored) {
	case EncodingBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
	case EncodingArgon2id:
		return verifyArgon2id(plaintext, stored)
	default:
		return false
	}
}

// Check is Verify plus the legacy plaintext migration path and the upgrade decision.
func (h *Hasher) Check(plaintext, stored string) Result {
	enc := DetectEncoding(stored)
	res := Result{Encoding: enc}
	if plaintext == "" || stored == "" {
		return res
	}

	switch enc {
	case EncodingBcrypt:
		res.Match = h.Verify(plaintext, stored)
		if res.Match {
			if cost, err := bcrypt.Cost([]byte(stored)); err == nil && cost < h.cost {
				res.NeedsUpgrade = true
			}
		}
	case EncodingArgon2id:
		res.Match = h.Verify(plaintext, stored)
	case EncodingLegacyPlaintext:
		if !h.allowLegacy {
			// keep the latency profile of a real compare
			h.Equalize(plaintext)
			return res
		}
		res.Match = subtle.ConstantTimeCompare([]byte(plaintext), []byte(stored)) == 1
		res.NeedsUpgrade = res.Match
	}
	return res
}

// Equalize spends one bcrypt comparison at the configured cost so that a lookup miss
// costs the same as a password mismatch.
func (h *Hasher) Equalize(plaintext string) {
	h.dummyOnce.Do(h.initDummy)
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))
}

func (h *Hasher) initDummy() {
	hash, err := h.generate([]byte(equalizerPlaintext), h.cost)
	if err != nil {
		hash = []byte(fallbackDummyHash)
	}
	h.dummyHash = hash
}
