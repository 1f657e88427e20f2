package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		GraphAPIBase:  server.URL,
		PhoneNumberID: "12345",
		AccessToken:   "test_token",
		Logger:        logging.Discard(),
	})
}

func TestSendTextMessage(t *testing.T) {
	var received SendRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/12345/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test_token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"96569020323","wa_id":"96569020323"}],"messages":[{"id":"wamid.1"}]}`))
	})

	resp, err := client.SendTextMessage(context.Background(), "+96569020323", "Hello")
	if err != nil {
		t.Fatal(err)
	}
	if resp.MessageID() != "wamid.1" {
		t.Errorf("message id = %s, want wamid.1", resp.MessageID())
	}
	if received.To != "96569020323" {
		t.Errorf("to = %s, want number without +", received.To)
	}
	if received.MessagingProduct != "whatsapp" || received.Type != "text" || received.RecipientType != "individual" {
		t.Errorf("unexpected envelope: %+v", received)
	}
	if received.Text.Body != "Hello" || received.Text.PreviewURL {
		t.Errorf("unexpected text: %+v", received.Text)
	}
	if !strings.Contains(string(resp.Raw), "wamid.1") {
		t.Errorf("raw response not kept: %s", resp.Raw)
	}
}

func TestSendTextMessage_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`))
	})

	resp, err := client.SendTextMessage(context.Background(), "965", "Hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if resp == nil || resp.Error == nil || resp.Error.Code != 100 {
		t.Fatalf("expected API error in response, got %+v", resp)
	}
}

func TestSendTextMessage_NotConfigured(t *testing.T) {
	client := NewClient(Config{Logger: logging.Discard()})
	if client.Configured() {
		t.Fatal("client without credentials reports configured")
	}
	_, err := client.SendTextMessage(context.Background(), "+965", "Hi")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendTextMessage_Validation(t *testing.T) {
	client := NewClient(Config{PhoneNumberID: "1", AccessToken: "t", Logger: logging.Discard()})
	if _, err := client.SendTextMessage(context.Background(), "+", "Hi"); err == nil {
		t.Error("expected error for empty recipient")
	}
	if _, err := client.SendTextMessage(context.Background(), "+965", "  "); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestFormatAppointmentConfirmation(t *testing.T) {
	details := AppointmentDetails{
		PatientName:     "أحمد محمد علي",
		DoctorName:      "د. سارة أحمد",
		Specialty:       "أمراض القلب",
		BranchName:      "فرع الكويت",
		AppointmentDate: "15/09/2025",
		AppointmentTime: "10:30",
		AppointmentID:   "12345",
	}

	ar := FormatAppointmentConfirmation(details, directory.LangArabic)
	if !strings.HasPrefix(ar, "🏥 تأكيد حجز الموعد - مستشفى السلام\n\n") {
		t.Errorf("unexpected arabic title: %q", ar)
	}
	for _, want := range []string{"👤 المريض: أحمد محمد علي", "🆔 رقم الموعد: 12345", "📞 للاستفسارات: فرع الكويت"} {
		if !strings.Contains(ar, want) {
			t.Errorf("arabic message missing %q", want)
		}
	}
	if strings.Contains(ar, "📍 العنوان") || strings.Contains(ar, "📝") {
		t.Error("blank optional fields should be omitted")
	}

	en := FormatAppointmentConfirmation(details, directory.LangEnglish)
	if !strings.Contains(en, "🕐 Time: 10:30") || !strings.HasSuffix(en, "Thank you for choosing Al Salam Hospital 🏥") {
		t.Errorf("unexpected english message: %q", en)
	}

	fallback := FormatAppointmentConfirmation(details, directory.Lang("X"))
	if fallback != ar {
		t.Error("unknown language should fall back to arabic")
	}
}
