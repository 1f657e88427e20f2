package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

const (
	defaultTimeout = 50 * time.Second
	maxErrorBody   = 300
)

var directoryTracer = otel.Tracer("hospital.internal.directory")

// Observer receives per-request latency. metrics.ToolMetrics satisfies it.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, seconds float64)
}

// Config controls how the Client behaves.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	OTPSource  string
	HTTPClient *http.Client
	Logger     *logging.Logger
	Observer   Observer
}

// Client wraps the hospital REST endpoints used by the tools.
type Client struct {
	baseURL    string
	timeout    time.Duration
	otpSource  string
	httpClient *http.Client
	logger     *logging.Logger
	observer   Observer
}

// NewClient constructs a hospital API client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("directory: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("directory: invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Deadlines come from the per-request context so that a timeout can be
		// told apart from other transport failures.
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	otpSource := strings.TrimSpace(cfg.OTPSource)
	if otpSource == "" {
		otpSource = "WhatsApp"
	}
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		otpSource:  otpSource,
		httpClient: httpClient,
		logger:     logger.WithComponent("directory"),
		observer:   cfg.Observer,
	}, nil
}

// WithTimeout returns a shallow copy whose requests use d as their deadline.
func (c *Client) WithTimeout(d time.Duration) *Client {
	cp := *c
	if d > 0 {
		cp.timeout = d
	}
	return &cp
}

// Timeout is the per-request deadline.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Search runs the individual search endpoint and decodes doctor rows.
func (c *Client) Search(ctx context.Context, term string, lang Lang) ([]DoctorCandidate, error) {
	raw, err := c.SearchRaw(ctx, term, lang)
	if err != nil {
		return nil, err
	}
	candidates, err := decodeCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return candidates, nil
}

// SearchRaw returns the individual search response untouched.
func (c *Client) SearchRaw(ctx context.Context, term string, lang Lang) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("lang", string(lang))
	return c.doJSON(ctx, "search_individual", http.MethodGet, "/search/individual", q, nil)
}

// SearchAll searches hospitals, specialties and doctors at once.
func (c *Client) SearchAll(ctx context.Context, term string, lang Lang) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("lang", string(lang))
	return c.doJSON(ctx, "search_all", http.MethodGet, "/search/all", q, nil)
}

// Hospitals lists hospitals.
func (c *Client) Hospitals(ctx context.Context, lang Lang) (json.RawMessage, error) {
	return c.doJSON(ctx, "hospitals", http.MethodGet, "/hospitals", langQuery(lang), nil)
}

// Specialties lists specialties of a hospital.
func (c *Client) Specialties(ctx context.Context, hospitalID string, lang Lang) (json.RawMessage, error) {
	path := "/specialties/" + url.PathEscape(hospitalID)
	return c.doJSON(ctx, "specialties", http.MethodGet, path, langQuery(lang), nil)
}

// Doctors lists the doctors of a hospital specialty.
func (c *Client) Doctors(ctx context.Context, hospitalID, specialtyID string, lang Lang) (json.RawMessage, error) {
	path := fmt.Sprintf("/doctors/%s/%s", url.PathEscape(hospitalID), url.PathEscape(specialtyID))
	return c.doJSON(ctx, "doctors", http.MethodGet, path, langQuery(lang), nil)
}

// Branches lists hospital branches.
func (c *Client) Branches(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, "branches", http.MethodGet, "/branches", nil, nil)
}

// ChatbotInfo returns the chatbot profile.
func (c *Client) ChatbotInfo(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, "chatbot_info", http.MethodGet, "/chatbotinfo", nil, nil)
}

// ChatbotMenu returns the root chatbot menu.
func (c *Client) ChatbotMenu(ctx context.Context, lang Lang) (json.RawMessage, error) {
	return c.doJSON(ctx, "chatbot_menu", http.MethodGet, "/menu/0", langQuery(lang), nil)
}

// PackagesPrices returns the package price list.
func (c *Client) PackagesPrices(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, "packages_prices", http.MethodGet, "/packagesprices", nil, nil)
}

// AppointmentsCount returns the appointment count for a day given as MM-DD-YYYY.
func (c *Client) AppointmentsCount(ctx context.Context, date string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("today", date)
	return c.doJSON(ctx, "appointments_count", http.MethodGet, "/msgcount", q, nil)
}

// PendingAppointments lists a patient's pending appointments.
func (c *Client) PendingAppointments(ctx context.Context, mobile string) (json.RawMessage, error) {
	if strings.TrimSpace(mobile) == "" {
		return nil, ErrMissingMobile
	}
	body := map[string]string{"pat_mobile": strings.TrimSpace(mobile)}
	return c.doJSON(ctx, "pending_appointments", http.MethodPost, "/byphone", nil, body)
}

// ConfirmOrCancel answers an appointment reminder: confirm=true sends 1, else 0.
func (c *Client) ConfirmOrCancel(ctx context.Context, appointmentID string, confirm bool) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("id", appointmentID)
	if confirm {
		q.Set("response", "1")
	} else {
		q.Set("response", "0")
	}
	return c.doJSON(ctx, "confirm_cancel", http.MethodPost, "/confcanc", q, nil)
}

// DoctorDays fetches day-granularity availability and normalizes it.
func (c *Client) DoctorDays(ctx context.Context, q AvailabilityQuery) (Availability, error) {
	q.DaysOnly = true
	raw, err := c.doJSON(ctx, "doctor_available_days", http.MethodGet, "/get_doctor_available_days", q.values(), nil)
	if err != nil {
		return Availability{}, err
	}
	return NormalizeAvailability(raw)
}

// NextAvailableSlotRaw returns the next-available-slot response untouched.
func (c *Client) NextAvailableSlotRaw(ctx context.Context, q AvailabilityQuery) (json.RawMessage, error) {
	return c.doJSON(ctx, "next_available_slot", http.MethodGet, "/get_doc_next_availble_slot", q.values(), nil)
}

// NextAvailableSlot fetches slots (or days when DaysOnly) and normalizes them.
func (c *Client) NextAvailableSlot(ctx context.Context, q AvailabilityQuery) (Availability, error) {
	raw, err := c.NextAvailableSlotRaw(ctx, q)
	if err != nil {
		return Availability{}, err
	}
	return NormalizeAvailability(raw)
}

// SubmitAppointment books a slot.
func (c *Client) SubmitAppointment(ctx context.Context, req AppointmentRequest) (json.RawMessage, error) {
	req.applyDefaults()
	if req.DoctorID == "" || req.BranchID == "" || req.ScheduleSerial == "" {
		return nil, errors.New("submit appointment: branch, doctor and schedule serial are required")
	}
	return c.doJSON(ctx, "submit_appointment", http.MethodPost, "/submit_appointment", nil, req)
}

func (q AvailabilityQuery) values() url.Values {
	v := url.Values{}
	v.Set("BRANCH_ID", q.BranchID.String())
	v.Set("CLINIC_ID", q.ClinicID.String())
	v.Set("DOC_ID", q.DoctorID.String())
	if q.DaysOnly {
		v.Set("SCHEDULE_DAYS_ONLY", "1")
	} else {
		v.Set("SCHEDULE_DAYS_ONLY", "0")
	}
	if !q.FromDate.IsZero() {
		v.Set("Web_FromDate", FormatUpstreamDate(q.FromDate))
	}
	channel := q.Channel
	if channel == "" {
		channel = "2"
	}
	v.Set("mobileapp_whatsapp", channel)
	return v
}

func langQuery(lang Lang) url.Values {
	if lang == "" {
		return nil
	}
	q := url.Values{}
	q.Set("lang", string(lang))
	return q
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, query url.Values, body any) (json.RawMessage, error) {
	ctx, span := directoryTracer.Start(ctx, "directory."+endpoint)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("directory.path", path),
	)

	after := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < after {
			after = remaining.Round(time.Millisecond)
		}
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.send(reqCtx, endpoint, method, path, query, body)
	outcome := "ok"
	if err != nil {
		if reqCtx.Err() != nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			err = &TimeoutError{Endpoint: endpoint, After: after}
			outcome = "timeout"
		} else if !isStatusError(err) {
			err = fmt.Errorf("%s: %w: %w", endpoint, ErrNetwork, err)
			outcome = "error"
		} else {
			outcome = "status"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, outcome, time.Since(start).Seconds())
	}
	return raw, err
}

func (c *Client) send(ctx context.Context, endpoint, method, path string, query url.Values, body any) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		c.logger.Warn("hospital API non-2xx response", "status", resp.StatusCode, "endpoint", endpoint, "body", msg)
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: msg}
	}

	respBody = bytes.TrimSpace(respBody)
	if len(respBody) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("decode response: invalid JSON from %s", endpoint)
	}
	return json.RawMessage(respBody), nil
}

func isStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// decodeCandidates accepts a bare array or an object wrapping the rows.
func decodeCandidates(raw json.RawMessage) ([]DoctorCandidate, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var rows []DoctorCandidate
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode candidates: %w", err)
		}
		return keepDoctors(rows), nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	for _, key := range []string{"data", "doctors", "results", "individual", "Doctors", "DATA"} {
		inner, ok := wrapped[key]
		if !ok {
			continue
		}
		inner = bytes.TrimSpace(inner)
		if len(inner) == 0 || inner[0] != '[' {
			continue
		}
		var rows []DoctorCandidate
		if err := json.Unmarshal(inner, &rows); err != nil {
			return nil, fmt.Errorf("decode candidates: %w", err)
		}
		return keepDoctors(rows), nil
	}
	return nil, nil
}

// keepDoctors drops rows without a doctor id (specialty or hospital hits).
func keepDoctors(rows []DoctorCandidate) []DoctorCandidate {
	out := rows[:0]
	for _, row := range rows {
		if row.DoctorID != "" {
			out = append(out, row)
		}
	}
	return out
}
