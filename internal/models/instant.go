package models

import (
	"time"
)

// clockLayout is the zone-free wall-clock rendering used by the trigger
// expression grammar. The scheduling service rejects expressions with an
// embedded 'Z' or offset; the zone always travels in a separate field.
const clockLayout = "2006-01-02T15:04:05"

// Instant is a point in time that is either zoned (carries an explicit
// timezone) or floating (a bare wall-clock reading with no zone). Calendar
// exports frequently strip timezone data, so both variants flow through the
// whole pipeline and every consumer has to handle both.
type Instant struct {
	// wall holds the clock reading. For a zoned instant its Location is the
	// real zone; for a floating instant UTC is used as a neutral carrier and
	// the Location carries no meaning.
	wall  time.Time
	zone  string
	zoned bool
}

// Zoned creates an instant with an explicit timezone. The time's Location
// must already match the named zone.
func Zoned(wall time.Time, zone string) Instant {
	return Instant{wall: wall, zone: zone, zoned: true}
}

// Floating creates an instant with no timezone information. Only the
// wall-clock fields of t are meaningful.
func Floating(t time.Time) Instant {
	return Instant{
		wall: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
	}
}

// IsZoned reports whether the instant carries explicit timezone information.
func (i Instant) IsZoned() bool { return i.zoned }

// Zone returns the zone name for a zoned instant and "" for a floating one.
func (i Instant) Zone() string { return i.zone }

// Wall returns the underlying clock reading. For floating instants the
// returned time is in the UTC carrier location and only its clock fields are
// meaningful.
func (i Instant) Wall() time.Time { return i.wall }

// Add shifts the instant by d, preserving the variant: a zoned instant stays
// zoned in the same zone, a floating instant stays floating.
func (i Instant) Add(d time.Duration) Instant {
	out := i
	out.wall = i.wall.Add(d)
	return out
}

// Absolute resolves the instant to an absolute point in time. Zoned instants
// already are absolute; floating instants are interpreted in fallback, which
// must be the event owner's zone rather than the evaluating process's zone.
func (i Instant) Absolute(fallback *time.Location) time.Time {
	if i.zoned {
		return i.wall
	}
	w := i.wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), fallback)
}

// Clock renders the instant as a zone-free wall-clock string suitable for a
// trigger expression.
func (i Instant) Clock() string {
	return i.wall.Format(clockLayout)
}

// ISO8601 renders the instant for payloads: zoned instants include their
// offset, floating instants stay bare.
func (i Instant) ISO8601() string {
	if i.zoned {
		return i.wall.Format("2006-01-02T15:04:05-07:00")
	}
	return i.Clock()
}

// Unix returns epoch seconds. Floating instants are read off the UTC carrier,
// which keeps the value a deterministic function of the clock fields.
func (i Instant) Unix() int64 {
	return i.wall.Unix()
}

// Equal reports whether two instants have the same variant, zone, and wall
// time.
func (i Instant) Equal(o Instant) bool {
	return i.zoned == o.zoned && i.zone == o.zone && i.wall.Equal(o.wall)
}
