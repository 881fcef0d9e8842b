package crypto

import (
	"crypto/rand"
	"errors"
	"math"
)

const (
	defaultAlphabet string = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	defaultSize     int    = 22 // 132 bits
	maxAlphabetSize int    = 255
	minAlphabetSize int    = 8
)

var (
	ErrAlphabetTooLong  = errors.New("alphabet must contain no more than 255 characters")
	ErrAlphabetTooShort = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetNotASCII = errors.New("alphabet must contain only ASCII characters")
)

// IDGenerator produces URL-safe random identifiers (nanoid algorithm) for
// stores that do not mint their own primary keys.
type IDGenerator struct {
	alphabet string
	mask     int
	size     int
}

func getMask(alphabetLen int) int {
	for i := 1; i <= 8; i++ {
		mask := (2 << uint(i)) - 1
		if mask > alphabetLen-1 {
			return mask
		}
	}
	return maxAlphabetSize
}

// NewIDGenerator validates alphabet; an empty alphabet selects the default.
func NewIDGenerator(alphabet string, size int) (*IDGenerator, error) {
	if alphabet == "" {
		alphabet = defaultAlphabet
	}
	if size <= 0 {
		size = defaultSize
	}

	// Generate indexes by byte, so every character must be one byte.
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] > 127 {
			return nil, ErrAlphabetNotASCII
		}
	}

	if len(alphabet) > maxAlphabetSize {
		return nil, ErrAlphabetTooLong
	}
	if len(alphabet) < minAlphabetSize {
		return nil, ErrAlphabetTooShort
	}

	return &IDGenerator{
		alphabet: alphabet,
		mask:     getMask(len(alphabet)),
		size:     size,
	}, nil
}

// DefaultIDGenerator uses the URL-safe alphabet and 22 characters.
func DefaultIDGenerator() *IDGenerator {
	return &IDGenerator{
		alphabet: defaultAlphabet,
		mask:     getMask(len(defaultAlphabet)),
		size:     defaultSize,
	}
}

func (g *IDGenerator) Generate() (string, error) {
	alphabetLen := len(g.alphabet)
	step := int(math.Ceil(1.6 * float64(g.mask*g.size) / float64(alphabetLen)))

	id := make([]byte, g.size)
	buffer := make([]byte, step)

	for position := 0; position < g.size; {
		if _, err := rand.Read(buffer); err != nil {
			return "", err
		}

		// Masked bytes outside the alphabet are discarded to keep the
		// distribution uniform.
		for i := 0; i < step && position < g.size; i++ {
			index := buffer[i] & byte(g.mask)
			if int(index) < alphabetLen {
				id[position] = g.alphabet[index]
				position++
			}
		}
	}

	return string(id), nil
}
