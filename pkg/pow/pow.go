// Package pow implements the faucet proof-of-work puzzle: find a nonce such
// that the lowercase hex SHA-256 of decimal(nonce)+seed, with the first
// DigestOffset hex characters skipped, begins with Difficulty '0' characters.
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultDigestOffset is the number of leading hex characters of the
	// digest ignored by the faucet when checking a solution.
	DefaultDigestOffset = 2

	digestHexLen = sha256.Size * 2
)

var (
	// ErrTimeout is returned when the search deadline passes before a nonce is found.
	ErrTimeout = errors.New("proof of work timed out")
	// ErrSearchExhausted is returned when every nonce below MaxAttempts was tried.
	ErrSearchExhausted = errors.New("proof of work search space exhausted")
	// ErrInvalidChallenge is returned for challenges that can never be solved.
	ErrInvalidChallenge = errors.New("invalid proof of work challenge")
)

// Challenge is issued by the faucet for a single funding session.
type Challenge struct {
	Seed       string `json:"seed"`
	Difficulty int    `json:"difficulty"`
}

// Solution answers exactly one Challenge.
type Solution struct {
	Seed  string
	Nonce uint64
}

// Validate reports whether the challenge can be solved with the given offset.
func (c Challenge) Validate(offset int) error {
	if c.Seed == "" {
		return fmt.Errorf("%w: empty seed", ErrInvalidChallenge)
	}
	if c.Difficulty < 0 {
		return fmt.Errorf("%w: negative difficulty %d", ErrInvalidChallenge, c.Difficulty)
	}
	if offset < 0 || offset+c.Difficulty > digestHexLen {
		return fmt.Errorf("%w: difficulty %d with digest offset %d exceeds %d hex characters",
			ErrInvalidChallenge, c.Difficulty, offset, digestHexLen)
	}
	return nil
}

// Digest returns the lowercase hex SHA-256 of decimal(nonce)+seed.
func Digest(nonce uint64, seed string) string {
	sum := sha256.Sum256([]byte(strconv.FormatUint(nonce, 10) + seed))
	return hex.EncodeToString(sum[:])
}

// Satisfies is the string form of the predicate. The solver uses the
// allocation free nibble check in matches; both must agree.
func Satisfies(nonce uint64, seed string, difficulty, offset int) bool {
	digest := Digest(nonce, seed)
	if offset > len(digest) {
		return false
	}
	return strings.HasPrefix(digest[offset:], strings.Repeat("0", difficulty))
}

// Verify checks a submitted solution against its challenge.
func Verify(ch Challenge, sol Solution, offset int) error {
	if err := ch.Validate(offset); err != nil {
		return err
	}
	if sol.Seed != ch.Seed {
		return errors.New("solution seed does not match challenge")
	}
	if !Satisfies(sol.Nonce, ch.Seed, ch.Difficulty, offset) {
		return errors.New("pow invalid")
	}
	return nil
}

// matches checks hex characters [offset, offset+difficulty) of sum for zero
// nibbles without encoding the digest.
func matches(sum *[sha256.Size]byte, difficulty, offset int) bool {
	for i := offset; i < offset+difficulty; i++ {
		b := sum[i>>1]
		if i&1 == 0 {
			b >>= 4
		}
		if b&0x0f != 0 {
			return false
		}
	}
	return true
}
