package booking

import (
	"fmt"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
)

type messageKey int

const (
	msgAskConfirmMobile messageKey = iota
	msgConfirmMobile
	msgAskNewMobile
	msgAskMobile
	msgEnterOTP
	msgOTPInvalid
	msgAskThreeNames
	msgSelectPatient
	msgProceedNewPatient
	msgServiceUnavailable
	msgServiceTimeout
)

var messages = map[messageKey]map[directory.Lang]string{
	msgAskConfirmMobile: {
		directory.LangArabic:  "هل ترغب بالحجز على رقم الواتساب الذي تتواصل منه؟",
		directory.LangEnglish: "Would you like to book using the WhatsApp number you are messaging from?",
	},
	msgConfirmMobile: {
		directory.LangArabic:  "هل الرقم %s هو رقمك الصحيح للحجز؟",
		directory.LangEnglish: "Is %s the correct number for this booking?",
	},
	msgAskNewMobile: {
		directory.LangArabic:  "يرجى كتابة رقم الجوال الذي تريد الحجز عليه.",
		directory.LangEnglish: "Please enter the mobile number you want to book with.",
	},
	msgAskMobile: {
		directory.LangArabic:  "يرجى إدخال رقم الجوال للمتابعة.",
		directory.LangEnglish: "Please enter your mobile number to continue.",
	},
	msgEnterOTP: {
		directory.LangArabic:  "تم إرسال رمز التحقق إلى %s. يرجى إدخال الرمز.",
		directory.LangEnglish: "A verification code was sent to %s. Please enter the code.",
	},
	msgOTPInvalid: {
		directory.LangArabic:  "رمز التحقق غير صحيح. يرجى المحاولة مرة أخرى.",
		directory.LangEnglish: "The verification code is incorrect. Please try again.",
	},
	msgAskThreeNames: {
		directory.LangArabic:  "هذا الرقم غير مسجل لدينا. يرجى كتابة الاسم الثلاثي للمريض.",
		directory.LangEnglish: "This number is not registered with us. Please enter the patient's three-part name.",
	},
	msgSelectPatient: {
		directory.LangArabic:  "تم التحقق من الرقم. يرجى اختيار المريض من الملفات المرتبطة بهذا الرقم.",
		directory.LangEnglish: "Number verified. Please choose the patient from the files linked to this number.",
	},
	msgProceedNewPatient: {
		directory.LangArabic:  "شكراً. سيتم المتابعة بالحجز كمريض جديد.",
		directory.LangEnglish: "Thank you. We will continue the booking as a new patient.",
	},
	msgServiceUnavailable: {
		directory.LangArabic:  "تعذر الاتصال بنظام المستشفى. يرجى المحاولة مرة أخرى.",
		directory.LangEnglish: "We could not reach the hospital system. Please try again.",
	},
	msgServiceTimeout: {
		directory.LangArabic:  "استغرق نظام المستشفى وقتاً طويلاً للرد. يرجى المحاولة مرة أخرى.",
		directory.LangEnglish: "The hospital system took too long to respond. Please try again.",
	},
}

func message(lang directory.Lang, key messageKey, args ...any) string {
	text, ok := messages[key][lang]
	if !ok {
		text = messages[key][directory.LangArabic]
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
