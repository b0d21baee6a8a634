package ics

import "strings"

// crlf converts a readable fixture into the CRLF line endings of RFC 5545.
func crlf(s string) []byte {
	s = strings.TrimLeft(s, "\n")
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

var sampleCalendar = crlf(`
BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//freecal//test//EN
BEGIN:VEVENT
UID:windows-tz@test
SUMMARY:Design review
DTSTART;TZID=Central Standard Time:20260303T100000
DTEND;TZID=Central Standard Time:20260303T110000
END:VEVENT
BEGIN:VEVENT
UID:weekly@test
SUMMARY:Weekly sync
DTSTART:20260302T150000Z
DTEND:20260302T153000Z
RRULE:FREQ=WEEKLY;COUNT=3
EXDATE:20260309T150000Z
END:VEVENT
BEGIN:VEVENT
UID:floating@test
SUMMARY:Lunch
DTSTART:20260303T120000
DTEND:20260303T130000
END:VEVENT
BEGIN:VEVENT
UID:allday@test
SUMMARY:Offsite
DTSTART;VALUE=DATE:20260304
END:VEVENT
BEGIN:VEVENT
UID:cancelled@test
SUMMARY:Cancelled meeting
STATUS:CANCELLED
DTSTART:20260303T140000Z
DTEND:20260303T150000Z
END:VEVENT
BEGIN:VEVENT
UID:transparent@test
SUMMARY:Reminder
TRANSP:TRANSPARENT
DTSTART:20260303T160000Z
DTEND:20260303T170000Z
END:VEVENT
BEGIN:VEVENT
UID:duration@test
SUMMARY:Interview
DTSTART;TZID=America/New_York:20260305T090000
DURATION:PT45M
END:VEVENT
BEGIN:VEVENT
UID:unknown-tz@test
SUMMARY:Call
DTSTART;TZID=Mars Standard Time:20260306T080000
DTEND;TZID=Mars Standard Time:20260306T083000
END:VEVENT
BEGIN:VEVENT
UID:no-start@test
SUMMARY:Broken
DTEND:20260306T083000Z
END:VEVENT
END:VCALENDAR
`)
