package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/whatsapp"
)

func (ts *Toolset) appointmentTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("submit_appointment",
				mcp.WithDescription("Submit a new appointment booking"),
				mcp.WithString("servType", mcp.Required(), mcp.Description("Service type")),
				mcp.WithString("branchId", mcp.Required(), mcp.Description("Branch ID")),
				mcp.WithString("clinicId", mcp.Required(), mcp.Description("Clinic ID")),
				mcp.WithString("specialtyId", mcp.Description("Specialty ID")),
				mcp.WithString("docId", mcp.Required(), mcp.Description("Doctor ID")),
				mcp.WithString("schedSerial", mcp.Required(), mcp.Description("Schedule serial number")),
				mcp.WithString("shiftId", mcp.Required(), mcp.Description("Shift ID")),
				mcp.WithString("dateDone", mcp.Required(), mcp.Description("Appointment date and time (DD/MM/YYYY HH:mm:ss)")),
				mcp.WithString("expectedEndDate", mcp.Required(), mcp.Description("Expected end date and time (DD/MM/YYYY HH:mm:ss)")),
				mcp.WithString("patTel", mcp.Required(), mcp.Description("Patient telephone number")),
				mcp.WithString("telephoneCountryCode", mcp.Required(), mcp.Description("Telephone country code (e.g., +965)")),
				mcp.WithString("patientId", mcp.Description("Patient ID (for registered patients)")),
				mcp.WithString("patName", mcp.Description("Patient full name (for non-registered patients)")),
				mcp.WithString("gender", mcp.Description("Patient gender (M/F)")),
				mcp.WithString("bufferStatus", mcp.Description("Buffer status (default: 1)")),
				mcp.WithString("init", mcp.Description("Init value (default: 1)")),
				mcp.WithString("computerName", mcp.Description("Computer name (default: whatsapp)")),
			),
			handle: ts.submitAppointment,
		},
		{
			def: mcp.NewTool("format_appointment_date",
				mcp.WithDescription("Format appointment date and time for API submission"),
				mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD format")),
				mcp.WithString("time", mcp.Required(), mcp.Description("Time in HH:mm format")),
				mcp.WithNumber("duration", mcp.Description("Appointment duration in minutes (default: 30)")),
			),
			handle: ts.formatAppointmentDate,
		},
		{
			def: mcp.NewTool("send_whatsapp_message",
				mcp.WithDescription("Send WhatsApp message to patient"),
				mcp.WithString("phoneNumber", mcp.Required(), mcp.Description("Patient's phone number with country code (e.g., +96569020323)")),
				mcp.WithString("message", mcp.Required(), mcp.Description("Message content to send")),
			),
			handle: ts.sendWhatsAppMessage,
		},
		{
			def: mcp.NewTool("send_appointment_confirmation",
				mcp.WithDescription("Send appointment details via WhatsApp to patient"),
				mcp.WithString("mobile", mcp.Required(), mcp.Description("Patient's mobile number with country code (e.g., +96569020323)")),
				mcp.WithObject("appointmentDetails", mcp.Required(),
					mcp.Description("patientName, doctorName, specialty, branchName, appointmentDate (DD/MM/YYYY), appointmentTime (HH:mm), and optional appointmentId, branchAddress, notes"),
				),
				mcp.WithString("language", mcp.Description("Message language (A for Arabic, E for English, default: A)")),
			),
			handle: ts.sendAppointmentConfirmation,
		},
	}
}

func (ts *Toolset) submitAppointment(ctx context.Context, args arguments) (any, error) {
	required := map[string]string{}
	for _, key := range []string{
		"servType", "branchId", "clinicId", "docId", "schedSerial", "shiftId",
		"dateDone", "expectedEndDate", "patTel", "telephoneCountryCode",
	} {
		v, err := args.require(key)
		if err != nil {
			return nil, err
		}
		required[key] = v
	}
	req := directory.AppointmentRequest{
		ServiceType:          required["servType"],
		BufferStatus:         args.str("bufferStatus"),
		Init:                 args.str("init"),
		ComputerName:         args.str("computerName"),
		BranchID:             required["branchId"],
		ClinicID:             required["clinicId"],
		SpecialtyID:          args.str("specialtyId", "specId"),
		DoctorID:             required["docId"],
		ScheduleSerial:       required["schedSerial"],
		ShiftID:              required["shiftId"],
		DateDone:             required["dateDone"],
		ExpectedEndDate:      required["expectedEndDate"],
		PatientTel:           required["patTel"],
		TelephoneCountryCode: required["telephoneCountryCode"],
		PatientID:            args.str("patientId"),
		PatientName:          args.str("patName"),
		Gender:               strings.ToUpper(args.str("gender")),
	}
	if req.PatientID == "" && (req.PatientName == "" || req.Gender == "") {
		return nil, invalid("patientId", "either patientId or both patName and gender are required")
	}
	return ts.deps.Directory.SubmitAppointment(ctx, req)
}

func (ts *Toolset) formatAppointmentDate(_ context.Context, args arguments) (any, error) {
	date, err := args.require("date")
	if err != nil {
		return nil, err
	}
	clock, err := args.require("time")
	if err != nil {
		return nil, err
	}
	duration, err := args.integer("duration", 0)
	if err != nil {
		return nil, err
	}
	window, err := directory.FormatAppointmentWindow(date, clock, duration)
	if err != nil {
		return nil, invalid("date", "expected YYYY-MM-DD date and HH:mm time")
	}
	return window, nil
}

func (ts *Toolset) sendWhatsAppMessage(ctx context.Context, args arguments) (any, error) {
	phone, err := args.require("phoneNumber", "mobile")
	if err != nil {
		return nil, err
	}
	body, err := args.require("message")
	if err != nil {
		return nil, err
	}
	return ts.sendWhatsApp(ctx, phone, body, nil)
}

func (ts *Toolset) sendAppointmentConfirmation(ctx context.Context, args arguments) (any, error) {
	mobile, err := args.require("mobile", "phoneNumber")
	if err != nil {
		return nil, err
	}
	var details whatsapp.AppointmentDetails
	if err := args.decode("appointmentDetails", &details); err != nil {
		return nil, err
	}
	if details.PatientName == "" || details.DoctorName == "" || details.AppointmentDate == "" || details.AppointmentTime == "" {
		return nil, invalid("appointmentDetails", "patientName, doctorName, appointmentDate and appointmentTime are required")
	}
	lang := ts.lang(args, "language", "lang")
	body := whatsapp.FormatAppointmentConfirmation(details, lang)
	return ts.sendWhatsApp(ctx, mobile, body, &details)
}

func (ts *Toolset) sendWhatsApp(ctx context.Context, phone, body string, details *whatsapp.AppointmentDetails) (any, error) {
	if !ts.deps.WhatsApp.Configured() {
		return nil, whatsapp.ErrNotConfigured
	}
	resp, err := ts.deps.WhatsApp.SendTextMessage(ctx, phone, body)
	if err != nil {
		if resp == nil {
			return nil, err
		}
		f := newFailure(kindUpstreamStatus, "Failed to send WhatsApp message")
		f.Details = err.Error()
		f.Upstream = resp.Raw
		return f, nil
	}
	out := map[string]any{
		"success":          true,
		"phoneNumber":      phone,
		"whatsappResponse": resp.Raw,
		"message":          "WhatsApp message sent successfully",
	}
	if details != nil {
		out["appointmentDetails"] = details
		out["body"] = body
	}
	out["messageId"] = resp.MessageID()
	return out, nil
}
