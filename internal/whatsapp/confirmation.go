package whatsapp

import (
	"strings"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
)

// AppointmentDetails is what goes into a confirmation message.
type AppointmentDetails struct {
	PatientName     string `json:"patientName"`
	DoctorName      string `json:"doctorName"`
	Specialty       string `json:"specialty"`
	BranchName      string `json:"branchName"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	AppointmentID   string `json:"appointmentId,omitempty"`
	BranchAddress   string `json:"branchAddress,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type confirmationLabels struct {
	title, patient, doctor, specialty, branch, date, clock, id, address, notes string
	confirmed, arriveEarly, inquiries, thanks                                  string
}

var labels = map[directory.Lang]confirmationLabels{
	directory.LangArabic: {
		title:       "🏥 تأكيد حجز الموعد - مستشفى السلام",
		patient:     "👤 المريض: ",
		doctor:      "👨‍⚕️ الطبيب: ",
		specialty:   "🏥 التخصص: ",
		branch:      "📍 الفرع: ",
		date:        "📅 التاريخ: ",
		clock:       "🕐 الوقت: ",
		id:          "🆔 رقم الموعد: ",
		address:     "📍 العنوان: ",
		notes:       "📝 ملاحظات: ",
		confirmed:   "✅ تم تأكيد حجز موعدك بنجاح!",
		arriveEarly: "⏰ يرجى الحضور قبل الموعد بـ 15 دقيقة",
		inquiries:   "📞 للاستفسارات: ",
		thanks:      "شكراً لاختياركم مستشفى السلام 🏥",
	},
	directory.LangEnglish: {
		title:       "🏥 Appointment Confirmation - Al Salam Hospital",
		patient:     "👤 Patient: ",
		doctor:      "👨‍⚕️ Doctor: ",
		specialty:   "🏥 Specialty: ",
		branch:      "📍 Branch: ",
		date:        "📅 Date: ",
		clock:       "🕐 Time: ",
		id:          "🆔 Appointment ID: ",
		address:     "📍 Address: ",
		notes:       "📝 Notes: ",
		confirmed:   "✅ Your appointment has been confirmed successfully!",
		arriveEarly: "⏰ Please arrive 15 minutes before your appointment time",
		inquiries:   "📞 For inquiries: ",
		thanks:      "Thank you for choosing Al Salam Hospital 🏥",
	},
}

// FormatAppointmentConfirmation renders the confirmation text. Optional
// fields that are blank are left out entirely.
func FormatAppointmentConfirmation(d AppointmentDetails, lang directory.Lang) string {
	l, ok := labels[lang]
	if !ok {
		l = labels[directory.LangArabic]
	}

	var b strings.Builder
	b.WriteString(l.title)
	b.WriteString("\n\n")
	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(value)
		b.WriteString("\n")
	}
	line(l.patient, d.PatientName)
	line(l.doctor, d.DoctorName)
	line(l.specialty, d.Specialty)
	line(l.branch, d.BranchName)
	line(l.date, d.AppointmentDate)
	line(l.clock, d.AppointmentTime)
	if d.AppointmentID != "" {
		line(l.id, d.AppointmentID)
	}
	if d.BranchAddress != "" {
		line(l.address, d.BranchAddress)
	}
	if d.Notes != "" {
		b.WriteString("\n")
		line(l.notes, d.Notes)
	}
	b.WriteString("\n")
	line("", l.confirmed)
	line("", l.arriveEarly)
	line(l.inquiries, d.BranchName)
	b.WriteString("\n")
	b.WriteString(l.thanks)
	return b.String()
}
