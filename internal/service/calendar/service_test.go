package calendar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventTimes_AllDayEndIsExclusive(t *testing.T) {
	start, end, err := eventTimes(EventInput{
		AllDay:    true,
		StartDate: "2026-03-10",
		EndDate:   "2026-03-12",
	})
	require.NoError(t, err)
	require.Equal(t, "2026-03-10", start.Date)
	require.Equal(t, "2026-03-13", end.Date)
	require.Empty(t, start.DateTime)
}

func TestEventTimes_AllDaySingleDay(t *testing.T) {
	start, end, err := eventTimes(EventInput{
		AllDay:    true,
		StartDate: "2026-03-10",
	})
	require.NoError(t, err)
	require.Equal(t, "2026-03-10", start.Date)
	require.Equal(t, "2026-03-11", end.Date)
}

func TestEventTimes_AllDayMonthRollover(t *testing.T) {
	_, end, err := eventTimes(EventInput{
		AllDay:    true,
		StartDate: "2026-02-28",
	})
	require.NoError(t, err)
	require.Equal(t, "2026-03-01", end.Date)
}

func TestEventTimes_AllDayBadDate(t *testing.T) {
	_, _, err := eventTimes(EventInput{AllDay: true, StartDate: "10/03/2026"})
	require.Error(t, err)
}

func TestEventTimes_TimedDefaults(t *testing.T) {
	start, end, err := eventTimes(EventInput{
		StartDate: "2026-03-10T09:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, "2026-03-10T09:00:00Z", start.DateTime)
	require.Equal(t, "2026-03-10T09:00:00Z", end.DateTime)
	require.Equal(t, "UTC", start.TimeZone)
}

func TestEventTimes_TimedWithZone(t *testing.T) {
	start, end, err := eventTimes(EventInput{
		StartDate: "2026-03-10T09:00:00",
		EndDate:   "2026-03-10T10:30:00",
		TimeZone:  "Europe/Zurich",
	})
	require.NoError(t, err)
	require.Equal(t, "Europe/Zurich", start.TimeZone)
	require.Equal(t, "Europe/Zurich", end.TimeZone)
	require.Equal(t, "2026-03-10T10:30:00", end.DateTime)
}

func TestCalendarID(t *testing.T) {
	require.Equal(t, "primary", calendarID(EventInput{}))
	require.Equal(t, "team@example.com", calendarID(EventInput{CalendarID: "team@example.com"}))
}

func TestSendUpdates(t *testing.T) {
	require.Equal(t, "all", sendUpdates(true))
	require.Equal(t, "none", sendUpdates(false))
}

func TestAttendeeList(t *testing.T) {
	require.Nil(t, attendeeList(nil))

	attendees := attendeeList([]string{"a@example.com", "b@example.com"})
	require.Len(t, attendees, 2)
	require.Equal(t, "a@example.com", attendees[0].Email)
}
