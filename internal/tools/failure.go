package tools

import (
	"encoding/json"
	"errors"

	"github.com/wolfman30/hospital-booking-mcp/internal/booking"
	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/resolver"
	"github.com/wolfman30/hospital-booking-mcp/internal/whatsapp"
)

// Failure kinds reported in the "error" field.
const (
	kindInvalidArgument    = "invalid_argument"
	kindTimeout            = "timeout"
	kindNetwork            = "network"
	kindUpstreamStatus     = "upstream_status"
	kindUpstreamShape      = "upstream_shape"
	kindNotFound           = "not_found"
	kindInvalidSelection   = "invalid_selection"
	kindNoSlots            = "no_slots"
	kindVerificationFailed = "verification_failed"
	kindNotConfigured      = "not_configured"
	kindInternal           = "internal"
)

// failure is the payload of every unsuccessful tool call.
type failure struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error"`
	Message     string          `json:"message"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Details     any             `json:"details,omitempty"`
	Upstream    json.RawMessage `json:"upstream,omitempty"`
}

func newFailure(kind, message string) *failure {
	return &failure{Success: false, Error: kind, Message: message}
}

type localized struct{ ar, en string }

func (l localized) in(lang directory.Lang) string {
	if lang == directory.LangEnglish {
		return l.en
	}
	return l.ar
}

var (
	textTimeout = localized{
		ar: "انتهت مهلة الاتصال بنظام المستشفى. يرجى المحاولة مرة أخرى.",
		en: "The hospital system did not respond in time. Please try again.",
	}
	textNetwork = localized{
		ar: "تعذر الاتصال بنظام المستشفى. يرجى المحاولة لاحقاً.",
		en: "The hospital system could not be reached. Please try again later.",
	}
	textUpstreamShape = localized{
		ar: "استجابة غير متوقعة من نظام المستشفى.",
		en: "The hospital system returned an unexpected response.",
	}
	textNoSlots = localized{
		ar: "لا توجد مواعيد متاحة لهذا الطبيب حالياً.",
		en: "No availability was found for this doctor right now.",
	}
	textNotConfigured = localized{
		ar: "خدمة الواتساب غير مفعلة.",
		en: "WhatsApp messaging is not configured.",
	}
	textInternal = localized{
		ar: "حدث خطأ غير متوقع.",
		en: "Something went wrong.",
	}
	retrySuggestions = map[directory.Lang][]string{
		directory.LangArabic:  {"أعد المحاولة بعد قليل", "تواصل مع مركز الاتصال إذا استمرت المشكلة"},
		directory.LangEnglish: {"Try again in a moment", "Contact the call center if the problem persists"},
	}
	noSlotSuggestions = map[directory.Lang][]string{
		directory.LangArabic:  {"اختر طبيباً آخر من نفس التخصص", "حاول مرة أخرى لاحقاً"},
		directory.LangEnglish: {"Choose another doctor in the same specialty", "Try again later"},
	}
)

// failureFor classifies err into a failure payload in the caller's language.
func (ts *Toolset) failureFor(err error, args arguments) *failure {
	lang := ts.lang(args, "lang", "language")

	var argErr *argError
	var statusErr *directory.StatusError
	var selErr *resolver.InvalidSelectionError
	switch {
	case errors.As(err, &argErr):
		return newFailure(kindInvalidArgument, argErr.Error())
	case errors.Is(err, directory.ErrMissingMobile):
		return newFailure(kindInvalidArgument, err.Error())
	case errors.As(err, &selErr):
		f := newFailure(kindInvalidSelection, selErr.Error())
		f.Details = map[string]int{"min": selErr.Min, "max": selErr.Max}
		return f
	case errors.Is(err, directory.ErrTimeout):
		f := newFailure(kindTimeout, textTimeout.in(lang))
		f.Suggestions = retrySuggestions[lang]
		f.Details = err.Error()
		return f
	case errors.As(err, &statusErr):
		f := newFailure(kindUpstreamStatus, textNetwork.in(lang))
		f.Details = map[string]any{"status": statusErr.StatusCode, "body": statusErr.Body}
		f.Suggestions = retrySuggestions[lang]
		return f
	case errors.Is(err, directory.ErrNetwork):
		f := newFailure(kindNetwork, textNetwork.in(lang))
		f.Suggestions = retrySuggestions[lang]
		f.Details = err.Error()
		return f
	case errors.Is(err, directory.ErrUpstreamShape):
		return newFailure(kindUpstreamShape, textUpstreamShape.in(lang))
	case errors.Is(err, resolver.ErrNoSlotsFound):
		f := newFailure(kindNoSlots, textNoSlots.in(lang))
		f.Suggestions = noSlotSuggestions[lang]
		return f
	case errors.Is(err, resolver.ErrEmptyTerm):
		return newFailure(kindInvalidArgument, err.Error())
	case errors.Is(err, booking.ErrVerificationFailed):
		return newFailure(kindVerificationFailed, err.Error())
	case errors.Is(err, whatsapp.ErrNotConfigured):
		return newFailure(kindNotConfigured, textNotConfigured.in(lang))
	}
	f := newFailure(kindInternal, textInternal.in(lang))
	f.Details = err.Error()
	return f
}
