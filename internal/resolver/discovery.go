package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/slotcache"
)

// Candidate sources, in probe order.
const (
	ProbeExplicit  = "explicit"
	ProbeSearch    = "search"
	ProbeSpecialty = "specialty"
	ProbeFallback  = "fallback"
)

// DiscoverOptions narrows one discovery.
type DiscoverOptions struct {
	// ClinicID is a clinic the caller already knows; it is probed first.
	ClinicID string
	// FallbackClinicIDs replaces the configured fallback list when non-nil.
	FallbackClinicIDs []string
	// Slots asks for slot granularity instead of days.
	Slots bool
	// FromDate is the first date of interest, today when zero.
	FromDate time.Time
	// Channel is passed through as mobileapp_whatsapp.
	Channel string
}

// Probe is one clinic id attempt.
type Probe struct {
	ClinicID   string `json:"clinic_id"`
	Source     string `json:"source"`
	Succeeded  bool   `json:"succeeded"`
	Shape      string `json:"shape,omitempty"`
	Count      int    `json:"count"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Discovery is where a doctor's availability was found. Days are already
// limited to the configured window.
type Discovery struct {
	ClinicID  string                     `json:"clinic_id,omitempty"`
	Source    string                     `json:"source,omitempty"`
	Kind      directory.AvailabilityKind `json:"kind,omitempty"`
	Shape     string                     `json:"shape,omitempty"`
	Days      []directory.Day            `json:"days,omitempty"`
	Slots     []directory.Slot           `json:"slots,omitempty"`
	FromCache bool                       `json:"from_cache"`
	Probes    []Probe                    `json:"probes"`
}

type clinicCandidate struct {
	id      string
	source  string
	timeout time.Duration
}

// Discover probes clinic ids for doctor in order (caller's clinic, the clinic
// from search, the specialty id, then fallbacks) and keeps the first one whose
// response has a recognized shape. Probes run one at a time, each under its
// own deadline; failures are recorded and the next candidate is tried. When
// all fail the returned error matches ErrNoSlotsFound and the Discovery still
// carries the probe log.
func (r *Resolver) Discover(ctx context.Context, doctor directory.DoctorCandidate, opts DiscoverOptions) (*Discovery, error) {
	if doctor.DoctorID == "" {
		return nil, errors.New("discover: doctor id is required")
	}
	ctx, span := resolverTracer.Start(ctx, "resolver.discover")
	defer span.End()
	span.SetAttributes(
		attribute.String("doctor.id", doctor.DoctorID.String()),
		attribute.String("hospital.id", doctor.HospitalID.String()),
	)

	kind := directory.KindDays
	if opts.Slots {
		kind = directory.KindSlots
	}
	candidates := r.clinicCandidates(doctor, opts)
	key := slotcache.Key{
		HospitalID: doctor.HospitalID.String(),
		DoctorID:   doctor.DoctorID.String(),
		ClinicID:   firstNonEmpty(opts.ClinicID, doctor.ClinicID.String()),
		Kind:       kind,
	}

	if entry, ok := r.cache.Get(ctx, key); ok {
		r.observeCache(true)
		span.SetAttributes(attribute.Bool("resolver.cache_hit", true))
		disc := r.fromAvailability(entry.ClinicID, "cache", entry.Availability)
		disc.FromCache = true
		disc.Probes = []Probe{}
		return disc, nil
	}
	r.observeCache(false)

	fromDate := opts.FromDate
	if fromDate.IsZero() {
		fromDate = r.now()
	}

	probes := make([]Probe, 0, len(candidates))
	for _, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		avail, probe := r.probe(ctx, doctor, cand, kind, opts, fromDate)
		probes = append(probes, probe)
		if r.observer != nil {
			r.observer.ObserveClinicProbe(cand.source, probe.Succeeded)
		}
		if !probe.Succeeded {
			continue
		}
		r.cache.Set(ctx, key, slotcache.Entry{ClinicID: cand.id, Availability: avail})
		disc := r.fromAvailability(cand.id, cand.source, avail)
		disc.Probes = probes
		span.SetAttributes(
			attribute.String("resolver.clinic_id", cand.id),
			attribute.Int("resolver.probes", len(probes)),
		)
		r.logger.Info("clinic discovered",
			"doctor_id", doctor.DoctorID.String(),
			"clinic_id", cand.id,
			"source", cand.source,
			"probes", len(probes),
		)
		return disc, nil
	}

	span.SetAttributes(attribute.Int("resolver.probes", len(probes)))
	r.logger.Warn("no clinic answered availability",
		"doctor_id", doctor.DoctorID.String(),
		"hospital_id", doctor.HospitalID.String(),
		"probes", len(probes),
	)
	disc := &Discovery{Kind: kind, Probes: probes}
	if err := ctx.Err(); err != nil {
		return disc, fmt.Errorf("%w: %w", ErrNoSlotsFound, err)
	}
	return disc, fmt.Errorf("%w after %d clinic probes", ErrNoSlotsFound, len(probes))
}

func (r *Resolver) probe(ctx context.Context, doctor directory.DoctorCandidate, cand clinicCandidate, kind directory.AvailabilityKind, opts DiscoverOptions, fromDate time.Time) (directory.Availability, Probe) {
	probeCtx, cancel := context.WithTimeout(ctx, cand.timeout)
	defer cancel()

	q := directory.AvailabilityQuery{
		BranchID: doctor.HospitalID,
		DoctorID: doctor.DoctorID,
		ClinicID: directory.ID(cand.id),
		FromDate: fromDate,
		Channel:  opts.Channel,
	}
	start := time.Now()
	var (
		avail directory.Availability
		err   error
	)
	if opts.Slots {
		avail, err = r.dir.NextAvailableSlot(probeCtx, q)
	} else {
		avail, err = r.dir.DoctorDays(probeCtx, q)
	}
	probe := Probe{
		ClinicID:   cand.id,
		Source:     cand.source,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		probe.Error = err.Error()
		probe.TimedOut = errors.Is(err, directory.ErrTimeout)
		r.logger.Debug("clinic probe failed", "clinic_id", cand.id, "source", cand.source, "error", err)
		return directory.Availability{}, probe
	}
	probe.Shape = avail.Shape
	// A clinic that answers the other granularity (a flat slot list to a
	// days request) has not answered the question asked.
	if avail.Kind != kind {
		err = fmt.Errorf("%w: %s response to a %s request", directory.ErrUpstreamShape, avail.Kind, kind)
		probe.Error = err.Error()
		r.logger.Debug("clinic probe failed", "clinic_id", cand.id, "source", cand.source, "error", err)
		return directory.Availability{}, probe
	}
	probe.Succeeded = true
	probe.Count = len(avail.Slots) + len(avail.Days)
	return avail, probe
}

// clinicCandidates builds the deduplicated probe plan.
func (r *Resolver) clinicCandidates(doctor directory.DoctorCandidate, opts DiscoverOptions) []clinicCandidate {
	var out []clinicCandidate
	seen := map[string]struct{}{}
	add := func(id, source string, timeout time.Duration) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, clinicCandidate{id: id, source: source, timeout: timeout})
	}

	add(opts.ClinicID, ProbeExplicit, r.cfg.PrimaryTimeout)
	add(doctor.ClinicID.String(), ProbeSearch, r.cfg.PrimaryTimeout)
	add(doctor.SpecialtyID.String(), ProbeSpecialty, r.cfg.SpecialtyTimeout)

	fallbacks := r.cfg.FallbackClinicIDs
	enabled := r.cfg.FallbackEnabled
	if opts.FallbackClinicIDs != nil {
		fallbacks = opts.FallbackClinicIDs
		enabled = true
	}
	if enabled {
		for _, id := range fallbacks {
			add(id, ProbeFallback, r.cfg.FallbackTimeout)
		}
	}
	return out
}

func (r *Resolver) fromAvailability(clinicID, source string, avail directory.Availability) *Discovery {
	disc := &Discovery{
		ClinicID: clinicID,
		Source:   source,
		Kind:     avail.Kind,
		Shape:    avail.Shape,
		Slots:    avail.Slots,
	}
	if len(avail.Days) > 0 {
		disc.Days = FilterDays(avail.Days, r.now(), r.cfg.WindowDays)
	}
	return disc
}

func (r *Resolver) observeCache(hit bool) {
	if r.observer != nil {
		r.observer.ObserveCacheLookup(hit)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
