// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package calendar builds importable reminders for application deadlines:
// an iCalendar file plus Google Calendar and Outlook web links.
package calendar

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/pdiddy/exchange-scout/internal/temporal"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// ErrPastDate is returned for events dated before today.
var ErrPastDate = errors.New("event date is in the past")

const (
	productID  = "-//exchange-scout//application deadlines//EN"
	location   = "Online Application"
	googleURL  = "https://calendar.google.com/calendar/render"
	outlookURL = "https://outlook.office.com/calendar/0/action/compose"
)

// Event describes one application deadline.
type Event struct {
	Program           string
	HomeUniversity    string
	ForeignUniversity string
	Date              time.Time
	// StatedDate is the deadline as the source wrote it.
	StatedDate string
	Details    string
	SourceURL  string
	YearsAdded int
}

// Summary is the event title, noting any forward adjustment.
func (e Event) Summary() string {
	s := fmt.Sprintf("Application Deadline: %s - %s", e.Program, e.ForeignUniversity)
	if e.YearsAdded > 0 {
		s += fmt.Sprintf(" (Adjusted %s forward)", years(e.YearsAdded))
	}
	return s
}

// Description is the event body.
func (e Event) Description() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application deadline for %s program\n", e.Program)
	fmt.Fprintf(&b, "Home University: %s\n", e.HomeUniversity)
	fmt.Fprintf(&b, "Foreign University: %s\n", e.ForeignUniversity)
	fmt.Fprintf(&b, "Deadline: %s\n", e.StatedDate)
	if e.Details != "" {
		fmt.Fprintf(&b, "Details: %s\n", e.Details)
	}
	fmt.Fprintf(&b, "Source: %s\n", e.SourceURL)
	if e.YearsAdded > 0 {
		fmt.Fprintf(&b, "\nWARNING: The original deadline was in the past. This entry has been adjusted %s forward to a future cycle. The actual deadline may differ; please verify with the university.\n", years(e.YearsAdded))
	}
	return b.String()
}

// Build renders ev as a one-hour event at 09:00 UTC on its date with a
// display reminder 30 days before. Dates before now's day are rejected.
func Build(ev Event, now time.Time) (types.CalendarArtifact, error) {
	day := temporal.Day(ev.Date)
	if day.Before(temporal.Day(now)) {
		return types.CalendarArtifact{}, fmt.Errorf("%w: %s", ErrPastDate, day.Format(time.DateOnly))
	}
	start := day.Add(9 * time.Hour)
	end := start.Add(time.Hour)
	summary := ev.Summary()
	description := ev.Description()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	vevent := cal.AddEvent(uuid.NewString())
	vevent.SetDtStampTime(now.UTC())
	vevent.SetStartAt(start)
	vevent.SetEndAt(end)
	vevent.SetSummary(summary)
	vevent.SetDescription(description)
	vevent.SetLocation(location)
	if ev.SourceURL != "" {
		vevent.SetURL(ev.SourceURL)
	}

	alarm := vevent.AddAlarm()
	alarm.SetAction(ics.ActionDisplay)
	alarm.SetTrigger("-P30D")
	alarm.SetProperty(ics.ComponentPropertyDescription, "Reminder: "+summary)

	return types.CalendarArtifact{
		Filename:   Filename(ev.ForeignUniversity),
		ICS:        cal.Serialize(),
		GoogleURL:  googleLink(summary, description, start, end),
		OutlookURL: outlookLink(summary, description, start, end),
	}, nil
}

// Filename returns "application_deadline_<name>.ics" with every character
// of university that is not a letter or digit replaced by an underscore.
func Filename(university string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, university)
	return "application_deadline_" + safe + ".ics"
}

func googleLink(summary, description string, start, end time.Time) string {
	const layout = "20060102T150405Z"
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", summary)
	q.Set("dates", start.Format(layout)+"/"+end.Format(layout))
	q.Set("details", description)
	q.Set("location", location)
	return googleURL + "?" + q.Encode()
}

func outlookLink(summary, description string, start, end time.Time) string {
	const layout = "2006-01-02T15:04:05Z"
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", summary)
	q.Set("startdt", start.Format(layout))
	q.Set("enddt", end.Format(layout))
	q.Set("body", description)
	q.Set("location", location)
	return outlookURL + "?" + q.Encode()
}

func years(n int) string {
	if n == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", n)
}
