// Package joincode hands out the short codes players type to find a game.
package joincode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	Alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length      = 6
	MaxAttempts = 10
)

var ErrAllocationExhausted = errors.New("join code allocation exhausted")

type Allocator struct {
	random io.Reader
}

// NewAllocator samples from random, or crypto/rand when random is nil.
func NewAllocator(random io.Reader) *Allocator {
	if random == nil {
		random = rand.Reader
	}
	return &Allocator{random: random}
}

// Allocate returns a code absent from active. Codes of ended games are not in
// active and may come back.
func (a *Allocator) Allocate(active map[string]struct{}) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		code, err := a.generate()
		if err != nil {
			return "", err
		}
		if _, taken := active[code]; !taken {
			return code, nil
		}
	}
	return "", ErrAllocationExhausted
}

// generate draws each symbol uniformly by rejecting bytes past the largest
// multiple of the alphabet size.
func (a *Allocator) generate() (string, error) {
	const limit = 256 - 256%len(Alphabet)
	code := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(code) < Length {
		if _, err := io.ReadFull(a.random, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == Length {
				break
			}
		}
	}
	return string(code), nil
}

// Valid reports whether code has the shape of an allocated code.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
