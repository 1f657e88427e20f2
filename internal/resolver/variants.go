package resolver

import (
	"strings"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/names"
)

// Variant sources, in the order they are tried.
const (
	SourceOriginal          = "original"
	SourceOtherLanguage     = "other_language"
	SourceFirstToken        = "first_token"
	SourceFirstTokenOther   = "first_token_other_language"
	SourceTransliteration   = "transliteration"
	SourceTransliteratedKey = "transliteration_first_token"
)

// Variant is one search attempt.
type Variant struct {
	Term   string         `json:"term"`
	Lang   directory.Lang `json:"lang"`
	Source string         `json:"source"`
}

var honorifics = map[string]struct{}{
	"dr": {}, "dr.": {}, "doctor": {}, "prof": {}, "prof.": {},
	"د": {}, "د.": {}, "دكتور": {}, "الدكتور": {}, "دكتورة": {}, "الدكتورة": {},
}

// BuildVariants lists the search attempts for term, deduplicated and in
// priority order: the term in both languages, its first name in both
// languages, then known spellings of the first name from table.
func BuildVariants(term string, lang directory.Lang, table *names.Table) []Variant {
	term = strings.Join(strings.Fields(term), " ")
	if term == "" {
		return nil
	}
	if lang == "" {
		lang = directory.LangArabic
	}

	var out []Variant
	seen := map[string]struct{}{}
	add := func(t string, l directory.Lang, source string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		key := strings.ToLower(t) + "|" + string(l)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, Variant{Term: t, Lang: l, Source: source})
	}

	add(term, lang, SourceOriginal)
	add(term, lang.Other(), SourceOtherLanguage)

	tokens := nameTokens(term)
	if len(tokens) == 0 {
		return out
	}
	first := tokens[0]
	add(first, lang, SourceFirstToken)
	add(first, lang.Other(), SourceFirstTokenOther)

	rest := strings.Join(tokens[1:], " ")
	for _, alt := range table.Alternates(first) {
		altLang := scriptLang(alt)
		if rest != "" {
			add(alt+" "+rest, altLang, SourceTransliteration)
		}
		add(alt, altLang, SourceTransliteratedKey)
	}
	return out
}

// nameTokens splits term and drops leading titles such as "Dr." or "د.".
func nameTokens(term string) []string {
	tokens := strings.Fields(term)
	for len(tokens) > 0 {
		if _, ok := honorifics[strings.ToLower(tokens[0])]; !ok {
			break
		}
		tokens = tokens[1:]
	}
	return tokens
}

func scriptLang(s string) directory.Lang {
	if names.IsArabic(s) {
		return directory.LangArabic
	}
	return directory.LangEnglish
}
