// Package names holds the Arabic/Latin spelling table used to retry doctor
// searches under another script. Entries are data: they load from a JSON file,
// an S3 object or the embedded default, never from code.
package names

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"
)

//go:embed names.json
var defaultTable []byte

// Entry pairs one Arabic spelling with its common Latin spellings.
type Entry struct {
	Arabic string   `json:"arabic"`
	Latin  []string `json:"latin"`
}

type document struct {
	Entries []Entry `json:"entries"`
}

// Table answers "how else is this name written". Safe for concurrent reads.
type Table struct {
	byArabic map[string][]string
	byLatin  map[string][]string
	size     int
}

// NewTable indexes entries in both directions. Blank spellings are ignored.
func NewTable(entries []Entry) *Table {
	t := &Table{
		byArabic: map[string][]string{},
		byLatin:  map[string][]string{},
	}
	for _, e := range entries {
		arabic := strings.TrimSpace(e.Arabic)
		var latin []string
		for _, l := range e.Latin {
			if l = strings.TrimSpace(l); l != "" {
				latin = append(latin, l)
			}
		}
		if arabic == "" || len(latin) == 0 {
			continue
		}
		t.size++
		t.byArabic[arabic] = appendUnique(t.byArabic[arabic], latin...)
		for i, l := range latin {
			key := strings.ToLower(l)
			t.byLatin[key] = appendUnique(t.byLatin[key], arabic)
			for j, other := range latin {
				if i != j {
					t.byLatin[key] = appendUnique(t.byLatin[key], other)
				}
			}
		}
	}
	return t
}

// Parse reads the JSON table format: {"entries":[{"arabic":"...","latin":["..."]}]}.
func Parse(r io.Reader) (*Table, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("names: decode table: %w", err)
	}
	return NewTable(doc.Entries), nil
}

// Default returns the embedded table.
func Default() *Table {
	t, err := Parse(strings.NewReader(string(defaultTable)))
	if err != nil {
		panic(fmt.Sprintf("names: embedded table is invalid: %v", err))
	}
	return t
}

// Alternates returns the other spellings of token, Arabic first for Latin
// input. Unknown tokens return nil.
func (t *Table) Alternates(token string) []string {
	if t == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if IsArabic(token) {
		return t.byArabic[token]
	}
	return t.byLatin[strings.ToLower(token)]
}

// Len is the number of entries indexed.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// IsArabic reports whether the first letter of s is in the Arabic script.
func IsArabic(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.Is(unicode.Arabic, r)
		}
	}
	return false
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if strings.EqualFold(existing, v) {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
