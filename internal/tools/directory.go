package tools

import (
	"context"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"
)

var countDatePattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// directoryTools relay hospital listings untouched.
func (ts *Toolset) directoryTools() []tool {
	langOpt := mcp.WithString("lang", mcp.Description("Language code A or E"))
	return []tool{
		{
			def: mcp.NewTool("get_all_hospitals",
				mcp.WithDescription("Get list of all hospitals"),
				langOpt,
			),
			handle: func(ctx context.Context, args arguments) (any, error) {
				return ts.deps.Directory.Hospitals(ctx, ts.lang(args, "lang"))
			},
		},
		{
			def: mcp.NewTool("get_specialties_by_hospital",
				mcp.WithDescription("Get specialties available at a specific hospital"),
				mcp.WithString("hospitalId", mcp.Required(), mcp.Description("Hospital ID")),
				langOpt,
			),
			handle: func(ctx context.Context, args arguments) (any, error) {
				hospital, err := args.require("hospitalId")
				if err != nil {
					return nil, err
				}
				return ts.deps.Directory.Specialties(ctx, hospital, ts.lang(args, "lang"))
			},
		},
		{
			def: mcp.NewTool("get_doctors_by_hospital_specialty",
				mcp.WithDescription("Get doctors by hospital and specialty"),
				mcp.WithString("hospitalId", mcp.Required(), mcp.Description("Hospital ID")),
				mcp.WithString("specialtyId", mcp.Required(), mcp.Description("Specialty ID")),
				langOpt,
			),
			handle: func(ctx context.Context, args arguments) (any, error) {
				hospital, err := args.require("hospitalId")
				if err != nil {
					return nil, err
				}
				specialty, err := args.require("specialtyId")
				if err != nil {
					return nil, err
				}
				return ts.deps.Directory.Doctors(ctx, hospital, specialty, ts.lang(args, "lang"))
			},
		},
		{
			def: mcp.NewTool("search_all_combined",
				mcp.WithDescription("Search hospitals, specialties and doctors at once"),
				mcp.WithString("term", mcp.Required(), mcp.Description("Search term")),
				langOpt,
			),
			handle: func(ctx context.Context, args arguments) (any, error) {
				term, err := args.require("term")
				if err != nil {
					return nil, err
				}
				return ts.deps.Directory.SearchAll(ctx, term, ts.lang(args, "lang"))
			},
		},
		{
			def: mcp.NewTool("get_branches",
				mcp.WithDescription("Get all hospital branches"),
			),
			handle: func(ctx context.Context, _ arguments) (any, error) {
				return ts.deps.Directory.Branches(ctx)
			},
		},
		{
			def: mcp.NewTool("get_chatbot_info",
				mcp.WithDescription("Get chatbot profile information"),
			),
			handle: func(ctx context.Context, _ arguments) (any, error) {
				return ts.deps.Directory.ChatbotInfo(ctx)
			},
		},
		{
			def: mcp.NewTool("get_chatbot_menu",
				mcp.WithDescription("Get the main chatbot menu"),
				langOpt,
			),
			handle: func(ctx context.Context, args arguments) (any, error) {
				return ts.deps.Directory.ChatbotMenu(ctx, ts.lang(args, "lang"))
			},
		},
		{
			def: mcp.NewTool("get_appointments_count",
				mcp.WithDescription("Get the number of appointments on a date"),
				mcp.WithString("date", mcp.Required(), mcp.Description("Date in MM-DD-YYYY format (e.g., 08-25-2025)")),
			),
			handle: func(ctx context.Context, args arguments) (any, error) {
				date, err := args.require("date")
				if err != nil {
					return nil, err
				}
				if !countDatePattern.MatchString(date) {
					return nil, invalid("date", "must be MM-DD-YYYY")
				}
				return ts.deps.Directory.AppointmentsCount(ctx, date)
			},
		},
		{
			def: mcp.NewTool("get_packages_prices",
				mcp.WithDescription("Get pricing information for packages"),
			),
			handle: func(ctx context.Context, _ arguments) (any, error) {
				return ts.deps.Directory.PackagesPrices(ctx)
			},
		},
	}
}
