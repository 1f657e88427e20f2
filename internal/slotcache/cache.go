// Package slotcache keeps discovered doctor availability for a short TTL so
// repeated selections of the same doctor skip clinic probing. Entries expire on
// TTL only; nothing invalidates them explicitly.
package slotcache

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
)

// DefaultTTL bounds how stale cached availability may be.
const DefaultTTL = 2 * time.Minute

// Key identifies a doctor at a hospital as first requested. Kind separates
// day-granularity entries from slot-granularity ones and is omitted from the
// string form when empty.
type Key struct {
	HospitalID string
	DoctorID   string
	ClinicID   string
	Kind       directory.AvailabilityKind
}

func (k Key) String() string {
	if k.Kind == "" {
		return fmt.Sprintf("%s:%s:%s", k.HospitalID, k.DoctorID, k.ClinicID)
	}
	return fmt.Sprintf("%s:%s:%s:%s", k.HospitalID, k.DoctorID, k.ClinicID, k.Kind)
}

// Entry is one successful discovery.
type Entry struct {
	ClinicID     string                 `json:"clinic_id"`
	Availability directory.Availability `json:"availability"`
	StoredAt     time.Time              `json:"stored_at"`
}

// Cache stores entries. Writes are idempotent and last-write-wins.
type Cache interface {
	Get(ctx context.Context, key Key) (Entry, bool)
	Set(ctx context.Context, key Key, entry Entry)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, Key) (Entry, bool) { return Entry{}, false }
func (Nop) Set(context.Context, Key, Entry)        {}
