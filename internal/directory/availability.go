package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Observed response shapes.
const (
	ShapeDayRows     = "day_rows"     // Root.DOC_DAYS.DOC_DAYS_ROW
	ShapeHourTree    = "hour_tree"    // Root.<container>.<container>_ROW with nested sub-slots
	ShapeSlotsObject = "slots_object" // {"available_slots": [...]} or {"slots": [...]}
	ShapeFlatList    = "flat_list"    // [...]
)

var (
	rootKeys       = []string{"Root", "ROOT", "root"}
	treeContainers = []string{"DOC_SLOTS", "DOC_HOURS", "HOURS", "SLOTS"}
	subSlotKeys    = []string{"SUB_SLOTS", "sub_slots", "SLOTS", "slots", "SLOT"}
	listKeys       = []string{"available_slots", "slots"}
)

// NormalizeAvailability turns any known slot/day response into Availability.
// A recognized container that holds no rows is still a recognized shape.
func NormalizeAvailability(raw json.RawMessage) (Availability, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
	}

	switch v := doc.(type) {
	case []any:
		return Availability{Kind: KindSlots, Shape: ShapeFlatList, Slots: flattenSlots(v, slotContext{}, new(int))}, nil
	case map[string]any:
		if root := firstMap(v, rootKeys...); root != nil {
			if rows, ok := containerRows(root, "DOC_DAYS"); ok {
				return Availability{Kind: KindDays, Shape: ShapeDayRows, Days: toDays(rows)}, nil
			}
			for _, name := range treeContainers {
				if rows, ok := containerRows(root, name); ok {
					return Availability{Kind: KindSlots, Shape: ShapeHourTree, Slots: flattenSlots(rows, slotContext{}, new(int))}, nil
				}
			}
		}
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				return Availability{Kind: KindSlots, Shape: ShapeSlotsObject, Slots: flattenSlots(list, slotContext{}, new(int))}, nil
			}
		}
	}
	return Availability{}, ErrUpstreamShape
}

// containerRows reads parent[name][name+"_ROW"]. XML-converted payloads
// collapse a single row into an object, so both forms are accepted.
func containerRows(parent map[string]any, name string) ([]any, bool) {
	container, ok := parent[name].(map[string]any)
	if !ok {
		return nil, false
	}
	return asRows(container[name+"_ROW"])
}

func asRows(v any) ([]any, bool) {
	switch rows := v.(type) {
	case []any:
		return rows, true
	case map[string]any:
		return []any{rows}, true
	}
	return nil, false
}

type slotContext struct {
	date  string
	time  string
	shift string
}

func flattenSlots(rows []any, parent slotContext, counter *int) []Slot {
	var out []Slot
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		ctx := slotContext{
			date:  firstNonEmpty(pick(row, "SCHEDULE_DATE", "SLOT_DATE", "date", "DATE"), parent.date),
			time:  firstNonEmpty(pick(row, "HOUR", "hour", "SLOT_HOUR"), parent.time),
			shift: firstNonEmpty(pick(row, "SHIFT_ID", "shift_id"), parent.shift),
		}
		if children, ok := subSlots(row); ok {
			out = append(out, flattenSlots(children, ctx, counter)...)
			continue
		}
		*counter++
		out = append(out, toSlot(row, ctx, *counter))
	}
	return out
}

func subSlots(row map[string]any) ([]any, bool) {
	for _, key := range subSlotKeys {
		switch v := row[key].(type) {
		case []any:
			return v, true
		case map[string]any:
			if rows, ok := asRows(v[key+"_ROW"]); ok {
				return rows, true
			}
		}
	}
	return nil, false
}

func toSlot(row map[string]any, ctx slotContext, n int) Slot {
	slotID := pick(row, "SLOT_ID", "slot_id", "slotId")
	serial := firstNonEmpty(pick(row, "SCHED_SERIAL", "sched_serial", "schedule_serial", "scheduleSerial"), slotID)
	fallback := fmt.Sprintf("slot_%d", n)
	s := Slot{
		ScheduleSerial: firstNonEmpty(serial, fallback),
		SlotID:         firstNonEmpty(slotID, fallback),
		Date:           ctx.date,
		Time:           firstNonEmpty(pick(row, "SLOT_TIME", "FROM_TIME", "time", "appointment_time", "TIME"), ctx.time),
		ShiftID:        ctx.shift,
		Status:         pick(row, "STATUS", "status", "SLOT_STATUS"),
	}
	// "DD/MM/YYYY HH:mm:ss" dates carry the time when no explicit field does.
	if parts := strings.Fields(s.Date); len(parts) > 1 {
		s.Date = parts[0]
		if s.Time == "" {
			s.Time = parts[1]
		}
	}
	return s
}

func toDays(rows []any) []Day {
	days := make([]Day, 0, len(rows))
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		label := pick(row, "SCHEDULE_DATE", "schedule_date", "DATE")
		d := Day{Label: label}
		if t, err := ParseUpstreamDate(label, time.Local); err == nil {
			d.Date = t
		}
		if b, err := json.Marshal(row); err == nil {
			d.Raw = b
		}
		days = append(days, d)
	}
	return days
}

func firstMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v
		}
	}
	return nil
}

func pick(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
