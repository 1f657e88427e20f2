package directory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAvailability_DayRows(t *testing.T) {
	raw := []byte(`{"Root":{"DOC_DAYS":{"DOC_DAYS_ROW":[
		{"SCHEDULE_DATE":"17/10/2026 00:00:00","DAY_NAME":"Saturday"},
		{"SCHEDULE_DATE":"18/10/2026 00:00:00"}
	]}}}`)

	avail, err := NormalizeAvailability(raw)
	require.NoError(t, err)
	assert.Equal(t, KindDays, avail.Kind)
	assert.Equal(t, ShapeDayRows, avail.Shape)
	require.Len(t, avail.Days, 2)
	assert.Equal(t, 17, avail.Days[0].Date.Day())
	assert.Equal(t, "17/10/2026 00:00:00", avail.Days[0].Label)
	assert.Contains(t, string(avail.Days[0].Raw), "Saturday")
}

func TestNormalizeAvailability_SingleDayObject(t *testing.T) {
	raw := []byte(`{"Root":{"DOC_DAYS":{"DOC_DAYS_ROW":{"SCHEDULE_DATE":"01/11/2026"}}}}`)
	avail, err := NormalizeAvailability(raw)
	require.NoError(t, err)
	require.Len(t, avail.Days, 1)
	assert.Equal(t, 11, int(avail.Days[0].Date.Month()))
}

func TestNormalizeAvailability_HourTree(t *testing.T) {
	raw := []byte(`{"Root":{"DOC_SLOTS":{"DOC_SLOTS_ROW":[
		{"SCHEDULE_DATE":"20/10/2026","HOUR":"09","SHIFT_ID":"1","SUB_SLOTS":{"SUB_SLOTS_ROW":[
			{"SCHED_SERIAL":"S1","SLOT_ID":"11","SLOT_TIME":"09:00","STATUS":"free"},
			{"SCHED_SERIAL":"S2","SLOT_ID":"12","SLOT_TIME":"09:15","STATUS":"free"}
		]}},
		{"SCHEDULE_DATE":"20/10/2026","HOUR":"10","SHIFT_ID":"2","SUB_SLOTS":{"SUB_SLOTS_ROW":{"SCHED_SERIAL":"S3","SLOT_ID":"13"}}}
	]}}}`)

	avail, err := NormalizeAvailability(raw)
	require.NoError(t, err)
	assert.Equal(t, KindSlots, avail.Kind)
	assert.Equal(t, ShapeHourTree, avail.Shape)
	require.Len(t, avail.Slots, 3)
	assert.Equal(t, Slot{ScheduleSerial: "S1", SlotID: "11", Date: "20/10/2026", Time: "09:00", ShiftID: "1", Status: "free"}, avail.Slots[0])
	// Sub-slot without its own time inherits the hour.
	assert.Equal(t, "10", avail.Slots[2].Time)
	assert.Equal(t, "2", avail.Slots[2].ShiftID)
}

func TestNormalizeAvailability_SlotsObjectFallbacks(t *testing.T) {
	raw := []byte(`{"available_slots":[
		{"slot_id":"a","appointment_time":"11:00","date":"2026-10-20"},
		{"time":"11:30"}
	]}`)

	avail, err := NormalizeAvailability(raw)
	require.NoError(t, err)
	assert.Equal(t, ShapeSlotsObject, avail.Shape)
	require.Len(t, avail.Slots, 2)
	assert.Equal(t, "a", avail.Slots[0].ScheduleSerial, "serial falls back to slot id")
	assert.Equal(t, "11:00", avail.Slots[0].Time)
	assert.Equal(t, "slot_2", avail.Slots[1].ScheduleSerial)
	assert.Equal(t, "slot_2", avail.Slots[1].SlotID)
}

func TestNormalizeAvailability_FlatListWithNumbers(t *testing.T) {
	raw := []byte(`[{"sched_serial":9001,"slot_id":5,"date":"21/10/2026 13:45:00","shift_id":2}]`)
	avail, err := NormalizeAvailability(raw)
	require.NoError(t, err)
	assert.Equal(t, ShapeFlatList, avail.Shape)
	require.Len(t, avail.Slots, 1)
	assert.Equal(t, "9001", avail.Slots[0].ScheduleSerial)
	assert.Equal(t, "21/10/2026", avail.Slots[0].Date)
	assert.Equal(t, "13:45:00", avail.Slots[0].Time)
	assert.Equal(t, "2", avail.Slots[0].ShiftID)
}

func TestNormalizeAvailability_EmptyContainerIsRecognized(t *testing.T) {
	avail, err := NormalizeAvailability([]byte(`{"slots":[]}`))
	require.NoError(t, err)
	assert.True(t, avail.Empty())
}

func TestNormalizeAvailability_Unrecognized(t *testing.T) {
	for name, raw := range map[string]string{
		"error body":        `{"error":"clinic not found"}`,
		"root without rows": `{"Root":{"DOC_DAYS":""}}`,
		"scalar":            `"nope"`,
		"garbage":           `{`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeAvailability([]byte(raw))
			assert.True(t, errors.Is(err, ErrUpstreamShape), "got %v", err)
		})
	}
}
