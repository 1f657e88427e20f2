// Package tools exposes the hospital booking operations as MCP tools. Every
// tool answers with a single text content holding indented JSON; failures are
// reported as {"success": false, ...} payloads rather than transport errors.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/hospital-booking-mcp/internal/booking"
	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
	"github.com/wolfman30/hospital-booking-mcp/internal/resolver"
	"github.com/wolfman30/hospital-booking-mcp/internal/whatsapp"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

var toolsTracer = otel.Tracer("hospital.internal.tools")

// Observer receives one observation per tool call. metrics.ToolMetrics
// satisfies it.
type Observer interface {
	ObserveToolCall(tool, outcome string, seconds float64)
}

// Deps are the collaborators the tools call into.
type Deps struct {
	Directory   *directory.Client
	Resolver    *resolver.Resolver
	Booking     *booking.Flow
	WhatsApp    *whatsapp.Client
	Observer    Observer
	Logger      *logging.Logger
	DefaultLang directory.Lang
	// WindowDays bounds get_doctor_available_slots; zero uses 14.
	WindowDays int
	// Now is used for day filtering; time.Now when nil.
	Now func() time.Time
}

type handlerFunc func(ctx context.Context, args arguments) (any, error)

type tool struct {
	def    mcp.Tool
	handle handlerFunc
}

// Toolset holds every tool definition and handler.
type Toolset struct {
	deps   Deps
	logger *logging.Logger
	tools  []tool
}

// New builds the toolset. Directory, Resolver and Booking are required.
func New(deps Deps) (*Toolset, error) {
	if deps.Directory == nil || deps.Resolver == nil || deps.Booking == nil {
		return nil, errors.New("tools: directory, resolver and booking flow are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.DefaultLang == "" {
		deps.DefaultLang = directory.LangArabic
	}
	if deps.WindowDays <= 0 {
		deps.WindowDays = resolver.DefaultWindowDays
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ts := &Toolset{deps: deps, logger: deps.Logger.WithComponent("tools")}
	ts.tools = append(ts.tools, ts.searchTools()...)
	ts.tools = append(ts.tools, ts.directoryTools()...)
	ts.tools = append(ts.tools, ts.patientTools()...)
	ts.tools = append(ts.tools, ts.appointmentTools()...)
	return ts, nil
}

// Register adds every tool to s.
func (ts *Toolset) Register(s *server.MCPServer) {
	for _, t := range ts.tools {
		s.AddTool(t.def, ts.Handler(t.def.Name))
	}
}

// Names lists the registered tool names, sorted.
func (ts *Toolset) Names() []string {
	names := make([]string, 0, len(ts.tools))
	for _, t := range ts.tools {
		names = append(names, t.def.Name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the instrumented MCP handler for name, or nil.
func (ts *Toolset) Handler(name string) server.ToolHandlerFunc {
	for _, t := range ts.tools {
		if t.def.Name == name {
			return ts.instrument(name, t.handle)
		}
	}
	return nil
}

// instrument runs h under a span, maps its error onto a failure payload,
// renders the payload and records the outcome.
func (ts *Toolset) instrument(name string, h handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := toolsTracer.Start(ctx, "tools."+name)
		defer span.End()

		start := time.Now()
		args := arguments(req.GetArguments())
		payload, err := h(ctx, args)
		outcome := "ok"
		if err != nil {
			f := ts.failureFor(err, args)
			payload = f
			outcome = f.Error
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			ts.logger.Warn("tool call failed", "tool", name, "kind", f.Error, "error", err)
		} else if f, ok := payload.(*failure); ok {
			outcome = f.Error
		}
		span.SetAttributes(attribute.String("tool.outcome", outcome))

		text, merr := render(payload)
		if merr != nil {
			outcome = "encode_error"
			text = fmt.Sprintf(`{"success": false, "error": "encode_error", "message": %q}`, merr.Error())
		}
		if ts.deps.Observer != nil {
			ts.deps.Observer.ObserveToolCall(name, outcome, time.Since(start).Seconds())
		}
		return mcp.NewToolResultText(text), nil
	}
}

func render(payload any) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (ts *Toolset) lang(args arguments, keys ...string) directory.Lang {
	for _, k := range keys {
		if v := args.str(k); v != "" {
			return directory.ParseLang(v, ts.deps.DefaultLang)
		}
	}
	return ts.deps.DefaultLang
}
