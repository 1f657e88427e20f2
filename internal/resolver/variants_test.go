package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/names"
)

func TestBuildVariants_Order(t *testing.T) {
	got := BuildVariants("  محمد   سالم ", directory.LangArabic, names.Default())

	want := []Variant{
		{Term: "محمد سالم", Lang: directory.LangArabic, Source: SourceOriginal},
		{Term: "محمد سالم", Lang: directory.LangEnglish, Source: SourceOtherLanguage},
		{Term: "محمد", Lang: directory.LangArabic, Source: SourceFirstToken},
		{Term: "محمد", Lang: directory.LangEnglish, Source: SourceFirstTokenOther},
		{Term: "Mohammed سالم", Lang: directory.LangEnglish, Source: SourceTransliteration},
		{Term: "Mohammed", Lang: directory.LangEnglish, Source: SourceTransliteratedKey},
	}
	if assert.GreaterOrEqual(t, len(got), len(want)) {
		assert.Equal(t, want, got[:len(want)])
	}
}

func TestBuildVariants_SingleTokenDeduplicates(t *testing.T) {
	got := BuildVariants("Zzyzx", directory.LangEnglish, names.Default())
	assert.Equal(t, []Variant{
		{Term: "Zzyzx", Lang: directory.LangEnglish, Source: SourceOriginal},
		{Term: "Zzyzx", Lang: directory.LangArabic, Source: SourceOtherLanguage},
	}, got)
}

func TestBuildVariants_StripsTitleFromFirstToken(t *testing.T) {
	got := BuildVariants("Dr. Ali Hassan", directory.LangEnglish, names.Default())

	var sawFirst, sawArabic bool
	for _, v := range got {
		if v.Source == SourceFirstToken {
			sawFirst = true
			assert.Equal(t, "Ali", v.Term)
		}
		if v.Term == "علي Hassan" {
			sawArabic = true
			assert.Equal(t, directory.LangArabic, v.Lang)
		}
	}
	assert.True(t, sawFirst)
	assert.True(t, sawArabic)
}

func TestBuildVariants_EmptyAndNilTable(t *testing.T) {
	assert.Nil(t, BuildVariants(" ", directory.LangArabic, names.Default()))
	got := BuildVariants("Ahmed Ali", directory.LangEnglish, nil)
	assert.Len(t, got, 4)
}

func TestFilterDays_InclusiveCalendarWindow(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*3600)
	now := time.Date(2026, 10, 17, 23, 45, 0, 0, riyadh)
	day := func(offset int) directory.Day {
		d := time.Date(2026, 10, 17, 0, 0, 0, 0, riyadh).AddDate(0, 0, offset)
		return directory.Day{Date: d, Label: directory.FormatUpstreamDate(d)}
	}

	got := FilterDays([]directory.Day{day(-1), day(0), day(7), day(14), day(15), {}}, now, 14)

	labels := make([]string, 0, len(got))
	for _, d := range got {
		labels = append(labels, d.Label)
	}
	assert.Equal(t, []string{"17/10/2026", "24/10/2026", "31/10/2026"}, labels)
}

func TestFilterDays_ZeroWindowIsTodayOnly(t *testing.T) {
	now := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	days := []directory.Day{{Date: now}, {Date: now.AddDate(0, 0, 1)}}
	assert.Len(t, FilterDays(days, now, 0), 1)
}
