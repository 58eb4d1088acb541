package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//dayboard//test//EN
BEGIN:VEVENT
UID:standup@test
DTSTAMP:20250301T000000Z
DTSTART:20250303T090000Z
DTEND:20250303T093000Z
SUMMARY:Team standup meeting
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20250305T090000Z
END:VEVENT
BEGIN:VEVENT
UID:standup@test
DTSTAMP:20250301T000000Z
RECURRENCE-ID:20250306T090000Z
DTSTART:20250306T100000Z
DTEND:20250306T103000Z
SUMMARY:Team standup meeting (moved)
END:VEVENT
BEGIN:VEVENT
UID:holiday@test
DTSTAMP:20250301T000000Z
DTSTART;VALUE=DATE:20250307
DTEND;VALUE=DATE:20250308
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
UID:cancelled@test
DTSTAMP:20250301T000000Z
DTSTART:20250304T120000Z
DTEND:20250304T130000Z
STATUS:CANCELLED
SUMMARY:Lunch
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20250301T000000Z
DTSTART:20250304T120000Z
SUMMARY:No uid
END:VEVENT
BEGIN:VEVENT
UID:open@test
DTSTAMP:20250301T000000Z
DTSTART:20250310T150000Z
SUMMARY:Deep work
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "work"}, crlf(sampleICS))
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, "standup@test", events[0].UID)
	assert.Equal(t, "FREQ=DAILY;COUNT=5", events[0].RawRRule)
	require.Len(t, events[0].ExDates, 1)
	assert.False(t, events[0].IsOverride())

	assert.True(t, events[1].IsOverride())
	assert.True(t, events[2].AllDay)
	assert.True(t, events[3].End.IsZero())
}

func TestParseICSEmpty(t *testing.T) {
	_, err := ParseICS(Source{ID: "x"}, nil)
	assert.Error(t, err)
}

func TestExpandOccurrences(t *testing.T) {
	parsed, err := ParseICS(Source{ID: "work"}, crlf(sampleICS))
	require.NoError(t, err)

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 6)

	var titles []string
	for _, ev := range res.Events {
		titles = append(titles, ev.Title)
	}
	assert.Equal(t, []string{
		"Team standup meeting",
		"Team standup meeting",
		"Team standup meeting (moved)",
		"Team standup meeting",
		"Holiday",
		"Deep work",
	}, titles)

	moved := res.Events[2]
	assert.True(t, moved.Start.IsTimed())
	assert.Equal(t, time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC), moved.Start.Time())
	assert.Equal(t, 0.5, moved.DurationHours())

	holiday := res.Events[4]
	assert.True(t, holiday.Start.IsAllDay())
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), holiday.Start.Time())
	assert.Equal(t, "work", holiday.SourceID)

	open := res.Events[5]
	assert.True(t, open.End.IsZero())
	assert.Equal(t, 0.0, open.DurationHours())
}

func TestAllDayWithoutEndLastsOneDay(t *testing.T) {
	body := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//dayboard//test//EN
BEGIN:VEVENT
UID:offsite@test
DTSTAMP:20250301T000000Z
DTSTART;VALUE=DATE:20250312
SUMMARY:Offsite
END:VEVENT
BEGIN:VEVENT
UID:gym@test
DTSTAMP:20250301T000000Z
DTSTART;VALUE=DATE:20250303
RRULE:FREQ=WEEKLY;COUNT=2
SUMMARY:Gym day
END:VEVENT
END:VCALENDAR
`
	parsed, err := ParseICS(Source{ID: "home"}, crlf(body))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.True(t, parsed[0].AllDay)
	assert.Equal(t, parsed[0].Start.AddDate(0, 0, 1), parsed[0].End)

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 3)

	for _, ev := range res.Events {
		assert.True(t, ev.Start.IsAllDay(), ev.Title)
		assert.True(t, ev.End.IsAllDay(), ev.Title)
		assert.Equal(t, ev.Start.Time().AddDate(0, 0, 1), ev.End.Time(), ev.Title)
		assert.Equal(t, 24.0, ev.DurationHours(), ev.Title)
	}
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), res.Events[2].End.Time())
}

func TestExpandOccurrencesRangeAndCap(t *testing.T) {
	parsed, err := ParseICS(Source{ID: "work"}, crlf(sampleICS))
	require.NoError(t, err)

	_, err = ExpandOccurrences(parsed, ExpandConfig{
		RangeStart: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:               time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		MaxOccurrencesPerEvent: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"standup@test"}, res.TruncatedEvents)
}

func TestFetcherCachesAndRevalidates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("ETag", `"v1"`)
			_, _ = w.Write(crlf(sampleICS))
		case 2:
			assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
			w.WriteHeader(http.StatusNotModified)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "work", URL: srv.URL + "/private/calendar.ics"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)

	third, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, third.FromCache)
}

func TestFetchAllKeepsOrderAndReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing.ics") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(crlf(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	results, errs := f.FetchAll(context.Background(), []Source{
		{ID: "a", URL: srv.URL + "/a.ics"},
		{ID: "missing", URL: srv.URL + "/missing.ics"},
		{ID: "b", URL: srv.URL + "/b.ics"},
		{ID: "empty"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Source.ID)
	assert.Equal(t, "b", results[1].Source.ID)
	assert.Len(t, errs, 2)
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(crlf(sampleICS))
	}))
	defer srv.Close()

	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	f := NewFetcher(t.TempDir(), srv.Client())

	snap, err := Load(context.Background(), f, []Source{{ID: "work", URL: srv.URL}}, now, Window{Days: 30, MaxEvents: 3})
	require.NoError(t, err)
	assert.Len(t, snap.Events, 3)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, now.AddDate(0, 0, -30), snap.RangeStart)
	assert.Equal(t, now.AddDate(0, 0, 30), snap.RangeEnd)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...(redacted)", redactURL("https://calendar.example.com/private/abc.ics?token=x"))
	assert.Equal(t, "https://host/...(redacted)", redactURL("https://host"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
