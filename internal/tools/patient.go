package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfman30/hospital-booking-mcp/internal/booking"
)

func (ts *Toolset) patientTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("check_patient_whatsapp",
				mcp.WithDescription("Check if a patient exists and has multiple profiles by mobile number"),
				mcp.WithString("mobile", mcp.Required(), mcp.Description("Patient's mobile number (e.g., +965...)")),
			),
			handle: ts.checkPatient,
		},
		{
			def: mcp.NewTool("generate_otp",
				mcp.WithDescription("Generate OTP for existing patient verification"),
				mcp.WithString("mobile", mcp.Required(), mcp.Description("Patient's mobile number with country code (e.g., +96569020323)")),
			),
			handle: ts.generateOTP,
		},
		{
			def: mcp.NewTool("verify_otp",
				mcp.WithDescription("Verify OTP for existing patient verification"),
				mcp.WithString("mobile", mcp.Required(), mcp.Description("Patient's mobile number with country code (e.g., +96569020323)")),
				mcp.WithString("otpCode", mcp.Required(), mcp.Description("OTP code entered by patient")),
			),
			handle: ts.verifyOTP,
		},
		{
			def: mcp.NewTool("booking_flow",
				mcp.WithDescription("Advance phone verification and patient identification before booking. Send every answer collected so far on each call; the response names the next step."),
				mcp.WithString("channel", mcp.Required(), mcp.Description("Conversation channel, e.g. whatsapp or web")),
				mcp.WithString("mobile", mcp.Description("Detected (WhatsApp) or entered mobile number")),
				mcp.WithBoolean("confirmed", mcp.Description("Whether the patient confirmed the detected WhatsApp number")),
				mcp.WithString("newMobile", mcp.Description("Alternate number when the detected one was rejected")),
				mcp.WithString("otp", mcp.Description("OTP code entered by the patient")),
				mcp.WithArray("names", mcp.Description("Patient name parts (first, father, family)"), mcp.Items(map[string]any{"type": "string"})),
				mcp.WithString("lang", mcp.Description("Language code A or E for messages")),
			),
			handle: ts.bookingFlow,
		},
		{
			def: mcp.NewTool("get_patient_pending_appointments",
				mcp.WithDescription("Get pending appointments for a patient by mobile number"),
				mcp.WithString("mobile", mcp.Required(), mcp.Description("Patient's mobile number (e.g., +96569020323)")),
			),
			handle: func(ctx context.Context, args arguments) (any, error) {
				mobile, err := args.require("mobile")
				if err != nil {
					return nil, err
				}
				return ts.deps.Directory.PendingAppointments(ctx, mobile)
			},
		},
		{
			def: mcp.NewTool("confirm_cancel_appointment",
				mcp.WithDescription("Confirm or cancel an appointment"),
				mcp.WithString("appointmentId", mcp.Required(), mcp.Description("Appointment ID")),
				mcp.WithString("response", mcp.Required(), mcp.Description("Response: 1 for confirm, 0 for cancel")),
			),
			handle: ts.confirmCancel,
		},
	}
}

func (ts *Toolset) checkPatient(ctx context.Context, args arguments) (any, error) {
	mobile, err := args.require("mobile")
	if err != nil {
		return nil, err
	}
	status, err := ts.deps.Directory.CheckPatient(ctx, mobile)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":    true,
		"mobile":     mobile,
		"registered": status.Registered,
		"response":   status.Raw,
	}, nil
}

func (ts *Toolset) generateOTP(ctx context.Context, args arguments) (any, error) {
	mobile, err := args.require("mobile")
	if err != nil {
		return nil, err
	}
	ack, err := ts.deps.Directory.GenerateOTP(ctx, mobile)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":  ack.Success,
		"message":  ack.Message,
		"mobile":   mobile,
		"response": ack.Raw,
	}, nil
}

func (ts *Toolset) verifyOTP(ctx context.Context, args arguments) (any, error) {
	mobile, err := args.require("mobile")
	if err != nil {
		return nil, err
	}
	code, err := args.require("otpCode", "otp")
	if err != nil {
		return nil, err
	}
	verified, v, err := ts.deps.Booking.VerifyCode(ctx, mobile, code)
	if err != nil {
		return nil, err
	}
	lang := ts.lang(args, "lang")
	if !verified {
		f := newFailure(kindVerificationFailed, localized{
			ar: "رمز التحقق غير صحيح.",
			en: "The verification code is incorrect.",
		}.in(lang))
		f.Upstream = v.Raw
		return f, nil
	}
	return map[string]any{
		"success":  true,
		"verified": true,
		"mobile":   mobile,
		"message": localized{
			ar: "تم التحقق من الرقم بنجاح.",
			en: "Mobile number verified.",
		}.in(lang),
		"response": json.RawMessage(v.Raw),
	}, nil
}

func (ts *Toolset) bookingFlow(ctx context.Context, args arguments) (any, error) {
	channel, err := args.require("channel")
	if err != nil {
		return nil, err
	}
	confirmed, err := args.optBool("confirmed")
	if err != nil {
		return nil, err
	}
	in := booking.Input{
		Channel:   channel,
		Mobile:    args.str("mobile"),
		Confirmed: confirmed,
		NewMobile: args.str("newMobile", "new_mobile"),
		OTP:       args.str("otp", "otpCode"),
		Names:     args.strings("names"),
		Lang:      args.str("lang", "language"),
	}
	return ts.deps.Booking.Advance(ctx, in), nil
}

func (ts *Toolset) confirmCancel(ctx context.Context, args arguments) (any, error) {
	id, err := args.require("appointmentId")
	if err != nil {
		return nil, err
	}
	resp, err := args.require("response")
	if err != nil {
		return nil, err
	}
	var confirm bool
	switch resp {
	case "1":
		confirm = true
	case "0":
		confirm = false
	default:
		return nil, invalid("response", "must be 1 (confirm) or 0 (cancel)")
	}
	return ts.deps.Directory.ConfirmOrCancel(ctx, id, confirm)
}
