// Package resolver turns a free-text doctor name into a bookable doctor: it
// searches the hospital directory with progressively looser variants, lets the
// caller pick among several matches, and discovers which clinic id answers
// availability for the chosen doctor.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/names"
	"github.com/wolfman30/hospital-booking-mcp/internal/slotcache"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

var resolverTracer = otel.Tracer("hospital.internal.resolver")

// Outcome is the terminal state of a resolution.
type Outcome string

const (
	OutcomeResolved       Outcome = "resolved"
	OutcomeDisambiguation Outcome = "disambiguation"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeNoSlots        Outcome = "no_slots"
)

// Directory is the part of the hospital API the resolver needs.
type Directory interface {
	Search(ctx context.Context, term string, lang directory.Lang) ([]directory.DoctorCandidate, error)
	DoctorDays(ctx context.Context, q directory.AvailabilityQuery) (directory.Availability, error)
	NextAvailableSlot(ctx context.Context, q directory.AvailabilityQuery) (directory.Availability, error)
}

// Observer receives resolver metrics. metrics.ToolMetrics satisfies it.
type Observer interface {
	ObserveClinicProbe(source string, succeeded bool)
	ObserveCacheLookup(hit bool)
	ObserveSearchVariants(outcome string, tried int)
}

// Config tunes clinic discovery.
type Config struct {
	DefaultLang directory.Lang

	// FallbackEnabled appends FallbackClinicIDs to every probe plan.
	FallbackEnabled   bool
	FallbackClinicIDs []string

	PrimaryTimeout   time.Duration
	SpecialtyTimeout time.Duration
	FallbackTimeout  time.Duration

	// WindowDays bounds day availability to today..today+WindowDays.
	WindowDays int
}

// DefaultConfig mirrors the production settings.
func DefaultConfig() Config {
	return Config{
		DefaultLang:       directory.LangArabic,
		FallbackEnabled:   true,
		FallbackClinicIDs: []string{"1", "2", "3"},
		PrimaryTimeout:    12 * time.Second,
		SpecialtyTimeout:  8 * time.Second,
		FallbackTimeout:   7 * time.Second,
		WindowDays:        DefaultWindowDays,
	}
}

// Resolver is safe for concurrent use; it holds no per-request state.
type Resolver struct {
	dir      Directory
	names    *names.Table
	cache    slotcache.Cache
	cfg      Config
	logger   *logging.Logger
	observer Observer
	now      func() time.Time
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithNames sets the transliteration table. The embedded default is used
// otherwise.
func WithNames(t *names.Table) Option {
	return func(r *Resolver) {
		if t != nil {
			r.names = t
		}
	}
}

// WithCache sets the availability cache.
func WithCache(c slotcache.Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithClock overrides time.Now, used for the day window and cache stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// New builds a Resolver over dir.
func New(dir Directory, cfg Config, opts ...Option) *Resolver {
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = directory.LangArabic
	}
	def := DefaultConfig()
	if cfg.PrimaryTimeout <= 0 {
		cfg.PrimaryTimeout = def.PrimaryTimeout
	}
	if cfg.SpecialtyTimeout <= 0 {
		cfg.SpecialtyTimeout = def.SpecialtyTimeout
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = def.FallbackTimeout
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = def.WindowDays
	}
	r := &Resolver{
		dir:    dir,
		names:  names.Default(),
		cache:  slotcache.Nop{},
		cfg:    cfg,
		logger: logging.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("resolver")
	return r
}

// SearchQuery echoes what the caller asked for.
type SearchQuery struct {
	Term     string `json:"term"`
	Language string `json:"language"`
}

// Attempt records one search variant and what it returned.
type Attempt struct {
	Term        string         `json:"term"`
	Lang        directory.Lang `json:"lang"`
	Source      string         `json:"source"`
	ResultCount int            `json:"result_count"`
	Error       string         `json:"error,omitempty"`
}

// Resolution is the result of Resolve. Exactly one of Candidates (for
// disambiguation), Doctor+Discovery (resolved or no_slots) or Suggestions
// (not_found) is populated.
type Resolution struct {
	Outcome        Outcome                     `json:"outcome"`
	Query          SearchQuery                 `json:"query"`
	MatchedVariant *Variant                    `json:"matched_variant,omitempty"`
	Attempts       []Attempt                   `json:"attempts"`
	Candidates     []directory.DoctorCandidate `json:"candidates,omitempty"`
	Doctor         *directory.DoctorCandidate  `json:"doctor,omitempty"`
	Discovery      *Discovery                  `json:"discovery,omitempty"`
	Suggestions    []string                    `json:"suggestions,omitempty"`
}

// Err maps the outcome onto the package sentinels.
func (r *Resolution) Err() error {
	if r == nil {
		return ErrNotFound
	}
	switch r.Outcome {
	case OutcomeNotFound:
		return ErrNotFound
	case OutcomeNoSlots:
		return ErrNoSlotsFound
	}
	return nil
}

// Resolve searches for term. langHint accepts "arabic"/"english" or the
// upstream codes; blank uses the configured default. A single match is taken
// straight through clinic discovery; several matches stop for the caller to
// choose. Search failures on individual variants are recorded in Attempts and
// the next variant is tried.
func (r *Resolver) Resolve(ctx context.Context, term, langHint string) (*Resolution, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyTerm
	}
	lang := directory.ParseLang(langHint, r.cfg.DefaultLang)

	ctx, span := resolverTracer.Start(ctx, "resolver.resolve")
	defer span.End()

	res := &Resolution{
		Query:    SearchQuery{Term: term, Language: lang.Name()},
		Attempts: []Attempt{},
	}

	var found []directory.DoctorCandidate
	for _, v := range BuildVariants(term, lang, r.names) {
		if ctx.Err() != nil {
			break
		}
		cands, err := r.dir.Search(ctx, v.Term, v.Lang)
		attempt := Attempt{Term: v.Term, Lang: v.Lang, Source: v.Source, ResultCount: len(cands)}
		if err != nil {
			attempt.Error = err.Error()
			attempt.ResultCount = 0
			r.logger.Warn("doctor search variant failed", "term", v.Term, "lang", string(v.Lang), "source", v.Source, "error", err)
		}
		res.Attempts = append(res.Attempts, attempt)
		if err == nil && len(cands) > 0 {
			matched := v
			res.MatchedVariant = &matched
			found = cands
			break
		}
	}
	span.SetAttributes(
		attribute.Int("resolver.variants_tried", len(res.Attempts)),
		attribute.Int("resolver.candidates", len(found)),
	)

	switch {
	case len(found) == 0:
		res.Outcome = OutcomeNotFound
		res.Suggestions = suggestions(lang)
	case len(found) > 1:
		res.Outcome = OutcomeDisambiguation
		res.Candidates = found
	default:
		doctor := found[0]
		res.Doctor = &doctor
		disc, err := r.Discover(ctx, doctor, DiscoverOptions{})
		res.Discovery = disc
		switch {
		case err == nil:
			res.Outcome = OutcomeResolved
		case errors.Is(err, ErrNoSlotsFound):
			res.Outcome = OutcomeNoSlots
		default:
			return nil, err
		}
	}
	if r.observer != nil {
		r.observer.ObserveSearchVariants(string(res.Outcome), len(res.Attempts))
	}
	r.logger.Info("doctor resolution finished",
		"outcome", string(res.Outcome),
		"variants_tried", len(res.Attempts),
		"candidates", len(found),
	)
	return res, nil
}

// Select returns candidates[index-1]. index is 1-based.
func Select(candidates []directory.DoctorCandidate, index int) (directory.DoctorCandidate, error) {
	if index < 1 || index > len(candidates) {
		return directory.DoctorCandidate{}, &InvalidSelectionError{Index: index, Min: 1, Max: len(candidates)}
	}
	return candidates[index-1], nil
}

// SelectAndDiscover picks a candidate and runs clinic discovery for it.
func (r *Resolver) SelectAndDiscover(ctx context.Context, candidates []directory.DoctorCandidate, index int, opts DiscoverOptions) (*Resolution, error) {
	doctor, err := Select(candidates, index)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Doctor: &doctor, Attempts: []Attempt{}}
	disc, err := r.Discover(ctx, doctor, opts)
	res.Discovery = disc
	switch {
	case err == nil:
		res.Outcome = OutcomeResolved
	case errors.Is(err, ErrNoSlotsFound):
		res.Outcome = OutcomeNoSlots
	default:
		return nil, err
	}
	return res, nil
}

func suggestions(lang directory.Lang) []string {
	if lang == directory.LangEnglish {
		return []string{
			"Check the spelling of the doctor's name",
			"Try the first name only",
			"Try writing the name in Arabic",
			"Search by specialty instead",
		}
	}
	return []string{
		"تأكد من كتابة اسم الطبيب بشكل صحيح",
		"جرّب البحث بالاسم الأول فقط",
		"جرّب كتابة الاسم بالإنجليزية",
		"ابحث عن طريق التخصص",
	}
}
