// Package booking drives phone verification and patient identification ahead
// of an appointment submission. The flow keeps no state between calls: the
// caller resupplies every answer collected so far and Advance works out the
// next step from scratch each time.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

var bookingTracer = otel.Tracer("hospital.internal.booking")

// Step names what the caller should do next.
type Step string

const (
	StepAskConfirmMobile      Step = "ask_confirm_mobile"
	StepConfirmMobile         Step = "confirm_mobile"
	StepAskNewMobile          Step = "ask_new_mobile"
	StepAskMobile             Step = "ask_mobile"
	StepEnterOTP              Step = "enter_otp"
	StepAskThreeNames         Step = "ask_three_names"
	StepSelectPatientLinked   Step = "select_patient_from_linked"
	StepProceedWithNewPatient Step = "proceed_with_new_patient"
)

// Terminal reports whether the flow ends at s.
func (s Step) Terminal() bool {
	return s == StepSelectPatientLinked || s == StepProceedWithNewPatient
}

// RequiredNames is how many name parts a new patient must give.
const RequiredNames = 3

var (
	// ErrVerificationFailed is returned through Result.Err when an OTP is rejected.
	ErrVerificationFailed = errors.New("otp verification failed")

	// ErrUpstream marks a result that failed on a hospital API call and can be
	// retried with the same input.
	ErrUpstream = errors.New("patient service unavailable")
)

// VerifyMode selects how an OTP is checked.
type VerifyMode string

const (
	// VerifyServer trusts the verify endpoint's valid/verified/status flags.
	VerifyServer VerifyMode = "server"
	// VerifyCompare matches the caller's code against the otpCode the verify
	// endpoint echoes back. Kept for upstreams that never set the flags.
	VerifyCompare VerifyMode = "compare"
)

// ParseVerifyMode defaults to VerifyServer.
func ParseVerifyMode(s string) VerifyMode {
	if strings.EqualFold(strings.TrimSpace(s), string(VerifyCompare)) {
		return VerifyCompare
	}
	return VerifyServer
}

// Patients is the part of the hospital API the flow calls.
type Patients interface {
	CheckPatient(ctx context.Context, mobile string) (*directory.PatientStatus, error)
	GenerateOTP(ctx context.Context, mobile string) (*directory.OTPAck, error)
	VerifyOTP(ctx context.Context, mobile, code string) (*directory.Verification, error)
}

// Input is everything the caller has collected so far.
type Input struct {
	Channel string `json:"channel"`
	// Mobile is the number detected from the channel, or typed by the user on
	// other channels.
	Mobile string `json:"mobile,omitempty"`
	// Confirmed is nil until the user answers whether Mobile is theirs.
	Confirmed *bool    `json:"confirmed,omitempty"`
	NewMobile string   `json:"new_mobile,omitempty"`
	OTP       string   `json:"otp,omitempty"`
	Names     []string `json:"names,omitempty"`
	Lang      string   `json:"lang,omitempty"`
}

// Result is one step of the flow. Next is set while input is still needed;
// Step is set once a terminal step is reached.
type Result struct {
	Success    bool            `json:"success"`
	Next       Step            `json:"next,omitempty"`
	Step       Step            `json:"step,omitempty"`
	Message    string          `json:"message"`
	Mobile     string          `json:"mobile,omitempty"`
	Registered *bool           `json:"registered,omitempty"`
	Status     json.RawMessage `json:"status,omitempty"`
	Names      []string        `json:"names,omitempty"`
	OTPSent    bool            `json:"otp_sent,omitempty"`
	Retry      bool            `json:"retry,omitempty"`
	Error      string          `json:"error,omitempty"`

	err error
}

// Err is ErrVerificationFailed or an ErrUpstream-wrapped error for failed
// results, nil otherwise.
func (r *Result) Err() error { return r.err }

// Flow is safe for concurrent use.
type Flow struct {
	patients Patients
	mode     VerifyMode
	lang     directory.Lang
	logger   *logging.Logger
}

// Option customizes a Flow.
type Option func(*Flow)

func WithVerifyMode(m VerifyMode) Option {
	return func(f *Flow) {
		if m != "" {
			f.mode = m
		}
	}
}

// WithDefaultLang sets the message language used when Input.Lang is blank.
func WithDefaultLang(l directory.Lang) Option {
	return func(f *Flow) {
		if l != "" {
			f.lang = l
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFlow builds a Flow over the patient endpoints.
func NewFlow(patients Patients, opts ...Option) *Flow {
	f := &Flow{
		patients: patients,
		mode:     VerifyServer,
		lang:     directory.LangArabic,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.WithComponent("booking")
	if f.mode == VerifyCompare {
		f.logger.Warn("otp verification compares codes locally; server-side verification is recommended")
	}
	return f
}

// IsWhatsApp reports whether channel is one of the WhatsApp variants, where the
// number is detected from the conversation and only needs confirming.
func IsWhatsApp(channel string) bool {
	c := strings.ToLower(strings.TrimSpace(channel))
	return c == "wa" || strings.Contains(c, "whatsapp")
}

// Advance returns the next step for in. It never returns a Go error: failed
// upstream calls become a Result with Success false and Retry true, and the
// same input can simply be sent again.
func (f *Flow) Advance(ctx context.Context, in Input) *Result {
	ctx, span := bookingTracer.Start(ctx, "booking.advance")
	defer span.End()

	lang := directory.ParseLang(in.Lang, f.lang)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.NewMobile = strings.TrimSpace(in.NewMobile)
	in.OTP = strings.TrimSpace(in.OTP)
	span.SetAttributes(
		attribute.String("booking.channel", in.Channel),
		attribute.Bool("booking.whatsapp", IsWhatsApp(in.Channel)),
	)

	var res *Result
	if IsWhatsApp(in.Channel) {
		res = f.advanceWhatsApp(ctx, in, lang)
	} else {
		res = f.advanceDirect(ctx, in, lang)
	}

	span.SetAttributes(
		attribute.Bool("booking.success", res.Success),
		attribute.String("booking.step", string(firstStep(res.Step, res.Next))),
	)
	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
	}
	return res
}

func (f *Flow) advanceWhatsApp(ctx context.Context, in Input, lang directory.Lang) *Result {
	switch {
	case in.Mobile == "":
		return next(StepAskConfirmMobile, message(lang, msgAskConfirmMobile))
	case in.Confirmed == nil:
		r := next(StepConfirmMobile, message(lang, msgConfirmMobile, in.Mobile))
		r.Mobile = in.Mobile
		return r
	case *in.Confirmed:
		status, err := f.patients.CheckPatient(ctx, in.Mobile)
		if err != nil {
			return f.upstreamFailure(lang, in.Mobile, "check_patient", err)
		}
		r := terminal(StepSelectPatientLinked, message(lang, msgSelectPatient))
		r.Mobile = in.Mobile
		r.setStatus(status)
		return r
	case in.NewMobile == "":
		return next(StepAskNewMobile, message(lang, msgAskNewMobile))
	default:
		return f.verifyNumber(ctx, in.NewMobile, in, lang)
	}
}

func (f *Flow) advanceDirect(ctx context.Context, in Input, lang directory.Lang) *Result {
	if in.Mobile == "" {
		return next(StepAskMobile, message(lang, msgAskMobile))
	}
	return f.verifyNumber(ctx, in.Mobile, in, lang)
}

// verifyNumber handles a number nobody has vouched for: registered numbers
// prove ownership with an OTP, unregistered ones collect the patient's names.
func (f *Flow) verifyNumber(ctx context.Context, mobile string, in Input, lang directory.Lang) *Result {
	status, err := f.patients.CheckPatient(ctx, mobile)
	if err != nil {
		return f.upstreamFailure(lang, mobile, "check_patient", err)
	}

	if !status.Registered {
		parts := nameParts(in.Names)
		if len(parts) < RequiredNames {
			r := next(StepAskThreeNames, message(lang, msgAskThreeNames))
			r.Mobile = mobile
			r.setStatus(status)
			if len(parts) > 0 {
				r.Names = parts
			}
			return r
		}
		r := terminal(StepProceedWithNewPatient, message(lang, msgProceedNewPatient))
		r.Mobile = mobile
		r.Names = parts
		r.setStatus(status)
		return r
	}

	if in.OTP == "" {
		if _, err := f.patients.GenerateOTP(ctx, mobile); err != nil {
			return f.upstreamFailure(lang, mobile, "generate_otp", err)
		}
		r := next(StepEnterOTP, message(lang, msgEnterOTP, mobile))
		r.Mobile = mobile
		r.OTPSent = true
		return r
	}

	verified, _, err := f.VerifyCode(ctx, mobile, in.OTP)
	if err != nil {
		return f.upstreamFailure(lang, mobile, "verify_otp", err)
	}
	if !verified {
		f.logger.Info("otp rejected", "mobile_suffix", suffix(mobile))
		return &Result{
			Success: false,
			Next:    StepEnterOTP,
			Message: message(lang, msgOTPInvalid),
			Mobile:  mobile,
			Error:   ErrVerificationFailed.Error(),
			err:     ErrVerificationFailed,
		}
	}

	status, err = f.patients.CheckPatient(ctx, mobile)
	if err != nil {
		return f.upstreamFailure(lang, mobile, "check_patient", err)
	}
	r := terminal(StepSelectPatientLinked, message(lang, msgSelectPatient))
	r.Mobile = mobile
	r.setStatus(status)
	return r
}

// VerifyCode checks code for mobile using the configured VerifyMode and also
// returns the verify endpoint's response.
func (f *Flow) VerifyCode(ctx context.Context, mobile, code string) (bool, *directory.Verification, error) {
	v, err := f.patients.VerifyOTP(ctx, mobile, code)
	if err != nil {
		return false, nil, err
	}
	if f.mode == VerifyCompare {
		return v.Success && v.OTPCode != "" && v.OTPCode == strings.TrimSpace(code), v, nil
	}
	return v.Verified, v, nil
}

// Mode is the configured VerifyMode.
func (f *Flow) Mode() VerifyMode { return f.mode }

func (f *Flow) upstreamFailure(lang directory.Lang, mobile, call string, err error) *Result {
	f.logger.Warn("booking flow upstream call failed", "call", call, "mobile_suffix", suffix(mobile), "error", err)
	key := msgServiceUnavailable
	if errors.Is(err, directory.ErrTimeout) {
		key = msgServiceTimeout
	}
	return &Result{
		Success: false,
		Message: message(lang, key),
		Mobile:  mobile,
		Retry:   true,
		Error:   err.Error(),
		err:     fmt.Errorf("%s: %w: %w", call, ErrUpstream, err),
	}
}

func (r *Result) setStatus(status *directory.PatientStatus) {
	if status == nil {
		return
	}
	registered := status.Registered
	r.Registered = &registered
	r.Status = status.Raw
}

func next(step Step, msg string) *Result {
	return &Result{Success: true, Next: step, Message: msg}
}

func terminal(step Step, msg string) *Result {
	return &Result{Success: true, Step: step, Message: msg}
}

// nameParts splits every supplied name on whitespace so "Ahmed Ali Hassan"
// counts as three parts.
func nameParts(names []string) []string {
	var out []string
	for _, n := range names {
		out = append(out, strings.Fields(n)...)
	}
	return out
}

func suffix(mobile string) string {
	if len(mobile) <= 4 {
		return mobile
	}
	return mobile[len(mobile)-4:]
}

func firstStep(steps ...Step) Step {
	for _, s := range steps {
		if s != "" {
			return s
		}
	}
	return ""
}
