// Package directory is the client for the hospital's REST API: doctor search,
// clinic availability, patient registration status, OTP and appointments.
package directory

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Lang is the upstream language code.
type Lang string

const (
	LangArabic  Lang = "A"
	LangEnglish Lang = "E"
)

// ParseLang accepts the codes and names callers use ("A", "ar", "arabic", ...).
// Unknown values fall back to def.
func ParseLang(hint string, def Lang) Lang {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "a", "ar", "ara", "arabic":
		return LangArabic
	case "e", "en", "eng", "english":
		return LangEnglish
	}
	if def == "" {
		return LangArabic
	}
	return def
}

// Other returns the opposite language.
func (l Lang) Other() Lang {
	if l == LangEnglish {
		return LangArabic
	}
	return LangEnglish
}

// Name returns the long form used in tool payloads.
func (l Lang) Name() string {
	if l == LangEnglish {
		return "english"
	}
	return "arabic"
}

// ID is an upstream identifier. The API returns ids as either JSON strings or
// numbers depending on the endpoint.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// DoctorCandidate is one row of the search endpoint. ClinicID may be empty and
// then has to be discovered.
type DoctorCandidate struct {
	DoctorID      ID     `json:"doctor_id"`
	DoctorName    string `json:"doctor_name"`
	SpecialtyID   ID     `json:"specialty_id"`
	SpecialtyName string `json:"specialty_name"`
	HospitalID    ID     `json:"hospital_id"`
	HospitalName  string `json:"hospital_name"`
	ClinicID      ID     `json:"clinic_id,omitempty"`
}

// Slot identifies a bookable unit. ScheduleSerial is what submission needs.
type Slot struct {
	ScheduleSerial string `json:"schedule_serial"`
	SlotID         string `json:"slot_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	ShiftID        string `json:"shift_id,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Day is a day with availability when the endpoint answers at day granularity.
type Day struct {
	Date  time.Time       `json:"date"`
	Label string          `json:"schedule_date"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// AvailabilityKind tells which granularity an upstream response carried.
type AvailabilityKind string

const (
	KindSlots AvailabilityKind = "slots"
	KindDays  AvailabilityKind = "days"
)

// Availability is the normalized form of every slot/day response shape.
type Availability struct {
	Kind  AvailabilityKind `json:"kind"`
	Shape string           `json:"shape"`
	Slots []Slot           `json:"slots,omitempty"`
	Days  []Day            `json:"days,omitempty"`
}

// Empty reports whether nothing bookable was returned.
func (a Availability) Empty() bool {
	return len(a.Slots) == 0 && len(a.Days) == 0
}

// AvailabilityQuery addresses the slot endpoints.
type AvailabilityQuery struct {
	BranchID ID
	DoctorID ID
	ClinicID ID
	DaysOnly bool
	// FromDate is sent as Web_FromDate (DD/MM/YYYY). Zero omits it.
	FromDate time.Time
	// Channel is the mobileapp_whatsapp flag, "2" when empty.
	Channel string
}

// PatientStatus is the registration check for a mobile number.
type PatientStatus struct {
	Registered bool            `json:"registered"`
	Raw        json.RawMessage `json:"raw"`
}

// OTPAck is the generate-OTP acknowledgement.
type OTPAck struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"raw"`
}

// Verification is the verify-OTP response. OTPCode is only populated by
// upstreams that echo the issued code back.
type Verification struct {
	Verified bool            `json:"verified"`
	Success  bool            `json:"success"`
	OTPCode  string          `json:"-"`
	Raw      json.RawMessage `json:"raw"`
}

// AppointmentRequest is the submit_appointment body. Registered patients send
// PatientID; new patients send PatientName and Gender.
type AppointmentRequest struct {
	ServiceType          string `json:"SERV_TYPE"`
	BufferStatus         string `json:"buffer_status"`
	Init                 string `json:"INIT"`
	ComputerName         string `json:"COMPUTER_NAME"`
	BranchID             string `json:"BRANCH_ID"`
	ClinicID             string `json:"CLINIC_ID,omitempty"`
	SpecialtyID          string `json:"SPECIALTY_ID,omitempty"`
	DoctorID             string `json:"DOC_ID"`
	ScheduleSerial       string `json:"SCHED_SERIAL"`
	ShiftID              string `json:"SHIFT_ID"`
	DateDone             string `json:"dateDone"`
	ExpectedEndDate      string `json:"EXPECTED_END_DATE"`
	PatientTel           string `json:"PAT_TEL"`
	TelephoneCountryCode string `json:"TELEPHONE_COUNTRY_CODE"`
	PatientID            string `json:"PATIENT_ID,omitempty"`
	PatientName          string `json:"PAT_NAME,omitempty"`
	Gender               string `json:"GENDER,omitempty"`
}

// applyDefaults fills the fixed fields the booking desk expects from chat
// channels and drops new-patient fields when a patient id is present.
func (r *AppointmentRequest) applyDefaults() {
	if r.BufferStatus == "" {
		r.BufferStatus = "1"
	}
	if r.Init == "" {
		r.Init = "1"
	}
	if r.ComputerName == "" {
		r.ComputerName = "whatsapp"
	}
	if r.PatientID != "" {
		r.PatientName = ""
		r.Gender = ""
	} else if r.PatientName == "" || r.Gender == "" {
		r.PatientName = ""
		r.Gender = ""
	}
}

// truthy mirrors how the upstream encodes flags: booleans, "true"/"1"/"Y"
// strings, or non-zero numbers.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "y", "yes":
			return true
		}
	case float64:
		return t != 0
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		return err == nil && f != 0
	}
	return false
}
