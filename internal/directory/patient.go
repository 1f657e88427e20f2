package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// CheckPatient asks whether a mobile number is registered (linked to one or
// more patient files).
func (c *Client) CheckPatient(ctx context.Context, mobile string) (*PatientStatus, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, ErrMissingMobile
	}
	raw, err := c.doJSON(ctx, "check_patient_whatsapp", http.MethodPost, "/checkPatientWhatsApp", nil, map[string]string{"mobile": mobile})
	if err != nil {
		return nil, err
	}
	fields := flagFields(raw)
	return &PatientStatus{
		Registered: anyTruthy(fields, "registered", "isRegistered") || statusIs(fields, "registered"),
		Raw:        raw,
	}, nil
}

// GenerateOTP asks the hospital to send a one-time code to the number.
func (c *Client) GenerateOTP(ctx context.Context, mobile string) (*OTPAck, error) {
	clean := stripPlus(mobile)
	if clean == "" {
		return nil, ErrMissingMobile
	}
	q := url.Values{}
	q.Set("mobile", clean)
	q.Set("source", c.otpSource)
	raw, err := c.doJSON(ctx, "otp_generate", http.MethodPost, "/otp/generate", q, nil)
	if err != nil {
		return nil, err
	}
	fields := flagFields(raw)
	ack := &OTPAck{Success: anyTruthy(fields, "success"), Raw: raw}
	if msg, ok := fields["message"].(string); ok {
		ack.Message = msg
	}
	return ack, nil
}

// VerifyOTP submits the code the patient typed so the hospital validates it.
func (c *Client) VerifyOTP(ctx context.Context, mobile, code string) (*Verification, error) {
	clean := stripPlus(mobile)
	if clean == "" {
		return nil, ErrMissingMobile
	}
	q := url.Values{}
	q.Set("mobile", clean)
	q.Set("source", c.otpSource)
	if code = strings.TrimSpace(code); code != "" {
		q.Set("otp", code)
	}
	raw, err := c.doJSON(ctx, "otp_verify", http.MethodPost, "/otp/verify", q, nil)
	if err != nil {
		return nil, err
	}
	fields := flagFields(raw)
	v := &Verification{
		Verified: anyTruthy(fields, "valid", "verified") || statusIs(fields, "verified"),
		Success:  anyTruthy(fields, "success"),
		Raw:      raw,
	}
	switch code := fields["otpCode"].(type) {
	case string:
		v.OTPCode = strings.TrimSpace(code)
	case json.Number:
		v.OTPCode = code.String()
	}
	return v, nil
}

// flagFields merges top-level fields with a nested "data" object so flags are
// found wherever the upstream put them. Top-level wins.
func flagFields(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var top map[string]any
	if err := dec.Decode(&top); err != nil {
		return out
	}
	if data, ok := top["data"].(map[string]any); ok {
		for k, v := range data {
			out[k] = v
		}
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}

func anyTruthy(fields map[string]any, keys ...string) bool {
	for _, k := range keys {
		if truthy(fields[k]) {
			return true
		}
	}
	return false
}

func statusIs(fields map[string]any, want string) bool {
	s, ok := fields["status"].(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), want)
}

func stripPlus(mobile string) string {
	return strings.TrimPrefix(strings.TrimSpace(mobile), "+")
}

// String makes statuses readable in logs.
func (s PatientStatus) String() string {
	return fmt.Sprintf("registered=%t", s.Registered)
}
