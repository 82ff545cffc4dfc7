// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calendar

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(date time.Time, added int) Event {
	return Event{
		Program:           "Erasmus",
		HomeUniversity:    "TU Munich",
		ForeignUniversity: "University of Oslo",
		Date:              date,
		StatedDate:        "31 July",
		SourceURL:         "https://www.uio.no/english/studies/exchange",
		YearsAdded:        added,
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	art, err := Build(event(time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), 1), now)
	require.NoError(t, err)

	assert.Equal(t, "application_deadline_University_of_Oslo.ics", art.Filename)
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"DTSTART:20250731T090000Z",
		"DTEND:20250731T100000Z",
		"TRIGGER:-P30D",
		"ACTION:DISPLAY",
		"LOCATION:Online Application",
	} {
		assert.Contains(t, art.ICS, want)
	}

	g, err := url.Parse(art.GoogleURL)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", g.Host)
	assert.Equal(t, "20250731T090000Z/20250731T100000Z", g.Query().Get("dates"))
	assert.Equal(t, "Application Deadline: Erasmus - University of Oslo (Adjusted 1 year forward)", g.Query().Get("text"))

	o, err := url.Parse(art.OutlookURL)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-31T09:00:00Z", o.Query().Get("startdt"))
	assert.Contains(t, o.Query().Get("body"), "WARNING")
}

func TestBuildToday(t *testing.T) {
	now := time.Date(2025, 7, 31, 23, 0, 0, 0, time.UTC)
	_, err := Build(event(time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), 0), now)
	assert.NoError(t, err)
}

func TestBuildRejectsPast(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := Build(event(time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), 0), now)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestSummaryAndDescription(t *testing.T) {
	ev := event(time.Time{}, 0)
	assert.Equal(t, "Application Deadline: Erasmus - University of Oslo", ev.Summary())
	assert.False(t, strings.Contains(ev.Description(), "WARNING"))

	ev.YearsAdded = 3
	assert.True(t, strings.HasSuffix(ev.Summary(), "(Adjusted 3 years forward)"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "application_deadline_Universität_Wien.ics", Filename("Universität Wien"))
	assert.Equal(t, "application_deadline_St__Gallen__HSG_.ics", Filename("St. Gallen (HSG)"))
}
