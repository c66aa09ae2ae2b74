package helpers

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	lowerAlphabet = "abcdefghijklmnopqrstuvwxyz"
	alphaNumeric  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Randomizer draws reset tokens and verification codes from src.
// A nil src means crypto/rand; tests inject a seeded reader.
type Randomizer struct {
	src io.Reader
}

func NewRandomizer(src io.Reader) *Randomizer {
	if src == nil {
		src = rand.Reader
	}
	return &Randomizer{src: src}
}

// Numeric returns n decimal digits; the first one is never zero.
func (r *Randomizer) Numeric(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("randomizer: invalid length %d", n)
	}
	var b strings.Builder
	b.Grow(n)
	first, err := r.intn(9)
	if err != nil {
		return "", err
	}
	b.WriteByte(byte('1' + first))
	for i := 1; i < n; i++ {
		d, err := r.intn(10)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d))
	}
	return b.String(), nil
}

// Number is Numeric parsed as an int. n must fit an int64.
func (r *Randomizer) Number(n int) (int, error) {
	if n > 18 {
		return 0, fmt.Errorf("randomizer: %d digits overflow", n)
	}
	s, err := r.Numeric(n)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (r *Randomizer) Alphabetic(n int) (string, error) {
	return r.fromCharset(n, lowerAlphabet)
}

func (r *Randomizer) AlphaNumeric(n int) (string, error) {
	return r.fromCharset(n, alphaNumeric)
}

func (r *Randomizer) fromCharset(n int, charset string) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("randomizer: invalid length %d", n)
	}
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := r.intn(len(charset))
		if err != nil {
			return "", err
		}
		b.WriteByte(charset[idx])
	}
	return b.String(), nil
}

// intn returns a uniform value in [0, n) for n <= 256 using rejection sampling.
func (r *Randomizer) intn(n int) (int, error) {
	limit := 256 - 256%n
	var buf [1]byte
	for {
		if _, err := io.ReadFull(r.src, buf[:]); err != nil {
			return 0, fmt.Errorf("randomizer: read source: %w", err)
		}
		if int(buf[0]) < limit {
			return int(buf[0]) % n, nil
		}
	}
}
