package crypto

import (
	"strings"
	"sync"
	"testing"
)

func TestNewIDGenerator(t *testing.T) {
	tests := []struct {
		name         string
		alphabet     string
		wantErr      error
		wantAlphabet string
	}{
		{name: "empty uses default", alphabet: "", wantAlphabet: defaultAlphabet},
		{name: "custom alphabet", alphabet: "ABCDEFGH", wantAlphabet: "ABCDEFGH"},
		{name: "alphabet too long", alphabet: strings.Repeat("a", 256), wantErr: ErrAlphabetTooLong},
		{name: "alphabet too short", alphabet: "abc", wantErr: ErrAlphabetTooShort},
		{name: "non ascii", alphabet: "abcdefgé", wantErr: ErrAlphabetNotASCII},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gen, err := NewIDGenerator(test.alphabet, 0)
			if err != test.wantErr {
				t.Fatalf("NewIDGenerator() error = %v, want %v", err, test.wantErr)
			}
			if test.wantErr == nil && gen.alphabet != test.wantAlphabet {
				t.Errorf("alphabet = %q, want %q", gen.alphabet, test.wantAlphabet)
			}
		})
	}
}

func TestGetMask(t *testing.T) {
	tests := []struct {
		alphabetLen int
		wantMask    int
	}{
		{alphabetLen: 8, wantMask: 15},
		{alphabetLen: 16, wantMask: 31},
		{alphabetLen: 64, wantMask: 127},
		{alphabetLen: 255, wantMask: 255},
	}

	for _, test := range tests {
		if got := getMask(test.alphabetLen); got != test.wantMask {
			t.Errorf("getMask(%d) = %d, want %d", test.alphabetLen, got, test.wantMask)
		}
	}
}

// Requirement: generated IDs use only the alphabet, have the configured size and do not repeat.
func TestIDGenerator_Generate(t *testing.T) {
	gen, err := NewIDGenerator("0123456789abcdef", 12)
	if err != nil {
		t.Fatalf("NewIDGenerator() error = %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(id) != 12 {
			t.Fatalf("len(id) = %d, want 12", len(id))
		}
		if strings.Trim(id, "0123456789abcdef") != "" {
			t.Fatalf("id %q contains characters outside the alphabet", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestDefaultIDGenerator_Concurrent(t *testing.T) {
	gen := DefaultIDGenerator()

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		seen = make(map[string]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := gen.Generate()
			if err != nil {
				t.Errorf("Generate() error = %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				t.Errorf("duplicate id %q", id)
			}
			seen[id] = true
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("got %d unique ids, want 50", len(seen))
	}
}
