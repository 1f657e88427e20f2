package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/resolver"
)

func (ts *Toolset) searchTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("search_individual",
				mcp.WithDescription("Search for a doctor by name or specialty"),
				mcp.WithString("term", mcp.Required(), mcp.Description("Search term (doctor name or specialty)")),
				mcp.WithString("lang", mcp.Description("Language code A or E (default: A)")),
			),
			handle: ts.searchIndividual,
		},
		{
			def: mcp.NewTool("resolve_doctor",
				mcp.WithDescription("Find a doctor by name, retrying spelling and language variants, and return their available days when exactly one doctor matches"),
				mcp.WithString("term", mcp.Required(), mcp.Description("Doctor name as the patient wrote it")),
				mcp.WithString("language", mcp.Description("arabic or english (default: arabic)")),
			),
			handle: ts.resolveDoctor,
		},
		{
			def: mcp.NewTool("select_doctor_from_list",
				mcp.WithDescription("Select a specific doctor from multiple search results and get their available days"),
				mcp.WithNumber("doctorIndex", mcp.Required(), mcp.Description("Index of the selected doctor (1-based)")),
				mcp.WithArray("searchResults", mcp.Required(),
					mcp.Description("Array of doctors from search results"),
					mcp.Items(map[string]any{"type": "object"}),
				),
				mcp.WithString("clinicId", mcp.Description("Clinic ID when already known")),
				mcp.WithString("granularity", mcp.Description("days (default) or slots"), mcp.Enum("days", "slots")),
				mcp.WithString("lang", mcp.Description("Language code A or E for messages")),
			),
			handle: ts.selectDoctor,
		},
		{
			def: mcp.NewTool("get_doc_next_availble_slot",
				mcp.WithDescription("Get the next available slot for a doctor"),
				mcp.WithString("branchId", mcp.Required(), mcp.Description("Branch ID")),
				mcp.WithString("clinicId", mcp.Required(), mcp.Description("Clinic ID")),
				mcp.WithString("docId", mcp.Required(), mcp.Description("Doctor ID")),
				mcp.WithString("scheduleDaysOnly", mcp.Description("1 for days only, 0 for slots (default: 0)")),
				mcp.WithString("webFromDate", mcp.Description("Date in DD/MM/YYYY format (required if scheduleDaysOnly is 0)")),
				mcp.WithString("mobileAppWhatsapp", mcp.Description("Mobile app/Whatsapp flag (default: 2)")),
				mcp.WithBoolean("normalize", mcp.Description("Return normalized slots instead of the raw response")),
			),
			handle: ts.nextAvailableSlot,
		},
		{
			def: mcp.NewTool("get_doctor_available_slots",
				mcp.WithDescription("Get a doctor's available days in the next two weeks"),
				mcp.WithString("branchId", mcp.Required(), mcp.Description("Branch ID")),
				mcp.WithString("docId", mcp.Required(), mcp.Description("Doctor ID")),
				mcp.WithString("clinicId", mcp.Required(), mcp.Description("Clinic ID")),
			),
			handle: ts.doctorAvailableDays,
		},
	}
}

func (ts *Toolset) searchIndividual(ctx context.Context, args arguments) (any, error) {
	term, err := args.require("term")
	if err != nil {
		return nil, err
	}
	return ts.deps.Directory.SearchRaw(ctx, term, ts.lang(args, "lang"))
}

type resolvePayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*resolver.Resolution
}

func (ts *Toolset) resolveDoctor(ctx context.Context, args arguments) (any, error) {
	term, err := args.require("term")
	if err != nil {
		return nil, err
	}
	lang := ts.lang(args, "language", "lang")
	res, err := ts.deps.Resolver.Resolve(ctx, term, string(lang))
	if err != nil {
		return nil, err
	}

	out := resolvePayload{Resolution: res}
	switch res.Outcome {
	case resolver.OutcomeResolved:
		out.Success = true
		out.Message = resolvedMessage(*res.Doctor, res.Discovery, lang)
	case resolver.OutcomeDisambiguation:
		out.Success = true
		out.Message = disambiguationMessage(res.Candidates, lang)
	case resolver.OutcomeNoSlots:
		out.Message = textNoSlots.in(lang)
	default:
		out.Message = localized{
			ar: fmt.Sprintf("لم يتم العثور على طبيب باسم \"%s\".", term),
			en: fmt.Sprintf("No doctor named \"%s\" was found.", term),
		}.in(lang)
	}
	return out, nil
}

type selectedDoctor struct {
	ID          directory.ID `json:"id"`
	Name        string       `json:"name"`
	Specialty   string       `json:"specialty"`
	Hospital    string       `json:"hospital"`
	HospitalID  directory.ID `json:"hospital_id"`
	SpecialtyID directory.ID `json:"specialty_id"`
	ClinicID    string       `json:"clinic_id"`
}

type selectPayload struct {
	Success       bool                `json:"success"`
	Doctor        selectedDoctor      `json:"doctor"`
	AvailableDays []directory.Day     `json:"available_days"`
	Slots         []directory.Slot    `json:"slots,omitempty"`
	Discovery     *resolver.Discovery `json:"discovery,omitempty"`
	Message       string              `json:"message"`
}

func (ts *Toolset) selectDoctor(ctx context.Context, args arguments) (any, error) {
	index, err := args.integer("doctorIndex", 0)
	if err != nil {
		return nil, err
	}
	var list []directory.DoctorCandidate
	if err := args.decode("searchResults", &list); err != nil {
		return nil, err
	}
	lang := ts.lang(args, "lang", "language")

	if _, err := resolver.Select(list, index); err != nil {
		f := newFailure(kindInvalidSelection, localized{
			ar: fmt.Sprintf("رقم غير صحيح. يرجى اختيار رقم بين 1 و %d", len(list)),
			en: fmt.Sprintf("Invalid number. Please choose a number between 1 and %d", len(list)),
		}.in(lang))
		f.Details = map[string]int{"min": 1, "max": len(list), "available_doctors": len(list)}
		return f, nil
	}

	opts := resolver.DiscoverOptions{
		ClinicID: args.str("clinicId"),
		Slots:    strings.EqualFold(args.str("granularity"), "slots"),
	}
	res, err := ts.deps.Resolver.SelectAndDiscover(ctx, list, index, opts)
	if err != nil {
		return nil, err
	}

	doc := *res.Doctor
	out := selectPayload{
		Success: true,
		Doctor: selectedDoctor{
			ID:          doc.DoctorID,
			Name:        doc.DoctorName,
			Specialty:   doc.SpecialtyName,
			Hospital:    doc.HospitalName,
			HospitalID:  doc.HospitalID,
			SpecialtyID: doc.SpecialtyID,
			ClinicID:    doc.ClinicID.String(),
		},
		AvailableDays: []directory.Day{},
		Discovery:     res.Discovery,
	}
	if res.Discovery != nil {
		if res.Discovery.ClinicID != "" {
			out.Doctor.ClinicID = res.Discovery.ClinicID
		}
		if res.Discovery.Days != nil {
			out.AvailableDays = res.Discovery.Days
		}
		out.Slots = res.Discovery.Slots
	}
	if res.Outcome == resolver.OutcomeNoSlots || (len(out.AvailableDays) == 0 && len(out.Slots) == 0) {
		out.Message = localized{
			ar: "تم اختيار الطبيب ولكن لا توجد أيام متاحة خلال الأسبوعين القادمين",
			en: "Doctor selected but no available days in the next 2 weeks",
		}.in(lang)
		return out, nil
	}
	out.Message = resolvedMessage(doc, res.Discovery, lang)
	return out, nil
}

func (ts *Toolset) nextAvailableSlot(ctx context.Context, args arguments) (any, error) {
	q, err := slotQuery(args)
	if err != nil {
		return nil, err
	}
	q.DaysOnly = args.str("scheduleDaysOnly") == "1"
	if from := args.str("webFromDate"); from != "" {
		t, err := directory.ParseUpstreamDate(from, ts.deps.Now().Location())
		if err != nil {
			return nil, invalid("webFromDate", "must be DD/MM/YYYY")
		}
		q.FromDate = t
	} else if !q.DaysOnly {
		return nil, missing("webFromDate")
	}
	q.Channel = args.str("mobileAppWhatsapp")

	normalize, err := args.optBool("normalize")
	if err != nil {
		return nil, err
	}
	if normalize != nil && *normalize {
		avail, err := ts.deps.Directory.NextAvailableSlot(ctx, q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "availability": avail}, nil
	}
	return ts.deps.Directory.NextAvailableSlotRaw(ctx, q)
}

func (ts *Toolset) doctorAvailableDays(ctx context.Context, args arguments) (any, error) {
	q, err := slotQuery(args)
	if err != nil {
		return nil, err
	}
	now := ts.deps.Now()
	q.FromDate = now
	avail, err := ts.deps.Directory.DoctorDays(ctx, q)
	if err != nil {
		return nil, err
	}
	days := resolver.FilterDays(avail.Days, now, ts.deps.WindowDays)
	return map[string]any{
		"success":        true,
		"available_days": days,
		"slots":          avail.Slots,
		"shape":          avail.Shape,
	}, nil
}

func slotQuery(args arguments) (directory.AvailabilityQuery, error) {
	branch, err := args.require("branchId")
	if err != nil {
		return directory.AvailabilityQuery{}, err
	}
	doc, err := args.require("docId")
	if err != nil {
		return directory.AvailabilityQuery{}, err
	}
	clinic, err := args.require("clinicId")
	if err != nil {
		return directory.AvailabilityQuery{}, err
	}
	return directory.AvailabilityQuery{
		BranchID: directory.ID(branch),
		DoctorID: directory.ID(doc),
		ClinicID: directory.ID(clinic),
	}, nil
}

func resolvedMessage(doc directory.DoctorCandidate, disc *resolver.Discovery, lang directory.Lang) string {
	count := 0
	if disc != nil {
		count = len(disc.Days) + len(disc.Slots)
	}
	return localized{
		ar: fmt.Sprintf("تم اختيار د. %s (%s) في %s. عدد المواعيد المتاحة: %d", doc.DoctorName, doc.SpecialtyName, doc.HospitalName, count),
		en: fmt.Sprintf("Selected Dr. %s (%s) at %s. Available: %d", doc.DoctorName, doc.SpecialtyName, doc.HospitalName, count),
	}.in(lang)
}

func disambiguationMessage(list []directory.DoctorCandidate, lang directory.Lang) string {
	var b strings.Builder
	b.WriteString(localized{
		ar: fmt.Sprintf("تم العثور على %d أطباء. يرجى اختيار الرقم المناسب:", len(list)),
		en: fmt.Sprintf("Found %d doctors. Please choose a number:", len(list)),
	}.in(lang))
	for i, d := range list {
		fmt.Fprintf(&b, "\n%d. %s - %s - %s", i+1, d.DoctorName, d.SpecialtyName, d.HospitalName)
	}
	return b.String()
}
