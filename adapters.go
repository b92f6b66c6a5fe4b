package sqlcipher

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// On-disk text forms of the temporal adapters.
const (
	DateFormat     = "2006-01-02"
	TimeFormat     = "15:04:05"
	DatetimeFormat = "2006-01-02 15:04:05"
)

// Years outside this range have no four digit text form.
const (
	MinYear = 0
	MaxYear = 9999
)

// Tick values accepted by the *FromTicks adapters: the Unix seconds of
// 0000-01-01 00:00:00 UTC and 9999-12-31 23:59:59 UTC.
const (
	MinTicks int64 = -62167219200
	MaxTicks int64 = 253402300799
)

// Date is a calendar date stored as YYYY-MM-DD.
type Date struct {
	Year  int
	Month int
	Day   int
}

func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func (d Date) ToSQL() (driver.Value, error) {
	if err := validateDate(d.Year, d.Month, d.Day); err != nil {
		return nil, err
	}
	return d.String(), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time is a wall clock time of day stored as HH:MM:SS.
type Time struct {
	Hour   int
	Minute int
	Second int
}

func NewTime(hour, minute, second int) Time {
	return Time{Hour: hour, Minute: minute, Second: second}
}

func (t Time) ToSQL() (driver.Value, error) {
	if err := validateClock(t.Hour, t.Minute, t.Second); err != nil {
		return nil, err
	}
	return t.String(), nil
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Timestamp is a wall clock reading in Location. It is normalized to UTC
// before it is stored as YYYY-MM-DD HH:MM:SS. A nil Location means UTC.
type Timestamp struct {
	Year     int
	Month    int
	Day      int
	Hour     int
	Minute   int
	Second   int
	Location *time.Location
}

func NewTimestamp(year, month, day, hour, minute, second int, loc *time.Location) Timestamp {
	return Timestamp{
		Year: year, Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second,
		Location: loc,
	}
}

// UTC validates the fields and resolves the local reading to a UTC instant.
// An ambiguous reading resolves to the earlier instant, a reading inside a
// daylight saving gap fails with DataError.
func (ts Timestamp) UTC() (time.Time, error) {
	if err := validateDate(ts.Year, ts.Month, ts.Day); err != nil {
		return time.Time{}, err
	}
	if err := validateClock(ts.Hour, ts.Minute, ts.Second); err != nil {
		return time.Time{}, err
	}
	t, err := resolveLocal(ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second, ts.Location)
	if err != nil {
		return time.Time{}, err
	}
	if y := t.Year(); y < MinYear || y > MaxYear {
		return time.Time{}, dataError(nil, "timestamp %s falls outside years %d-%d once normalized to UTC", ts, MinYear, MaxYear)
	}
	return t, nil
}

func (ts Timestamp) ToSQL() (driver.Value, error) {
	t, err := ts.UTC()
	if err != nil {
		return nil, err
	}
	return t.Format(DatetimeFormat), nil
}

func (ts Timestamp) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second)
	if ts.Location != nil && ts.Location != time.UTC {
		s += " " + ts.Location.String()
	}
	return s
}

// DateFromTicks is the UTC calendar date of a Unix timestamp.
type DateFromTicks struct {
	Ticks int64
}

func NewDateFromTicks(ticks int64) DateFromTicks {
	return DateFromTicks{Ticks: ticks}
}

func (d DateFromTicks) Date() (Date, error) {
	t, err := fromTicks(d.Ticks)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func (d DateFromTicks) ToSQL() (driver.Value, error) {
	date, err := d.Date()
	if err != nil {
		return nil, err
	}
	return date.ToSQL()
}

// TimeFromTicks is the UTC time of day of a Unix timestamp.
type TimeFromTicks struct {
	Ticks int64
}

func NewTimeFromTicks(ticks int64) TimeFromTicks {
	return TimeFromTicks{Ticks: ticks}
}

func (t TimeFromTicks) Time() (Time, error) {
	u, err := fromTicks(t.Ticks)
	if err != nil {
		return Time{}, err
	}
	return Time{Hour: u.Hour(), Minute: u.Minute(), Second: u.Second()}, nil
}

func (t TimeFromTicks) ToSQL() (driver.Value, error) {
	clock, err := t.Time()
	if err != nil {
		return nil, err
	}
	return clock.ToSQL()
}

// TimestampFromTicks is the UTC timestamp of a Unix timestamp.
type TimestampFromTicks struct {
	Ticks int64
}

func NewTimestampFromTicks(ticks int64) TimestampFromTicks {
	return TimestampFromTicks{Ticks: ticks}
}

func (t TimestampFromTicks) Timestamp() (Timestamp, error) {
	u, err := fromTicks(t.Ticks)
	if err != nil {
		return Timestamp{}, err
	}
	return timestampOf(u), nil
}

func (t TimestampFromTicks) ToSQL() (driver.Value, error) {
	u, err := fromTicks(t.Ticks)
	if err != nil {
		return nil, err
	}
	return u.Format(DatetimeFormat), nil
}

// Binary is stored as a BLOB, byte for byte.
type Binary []byte

func NewBinary(b []byte) Binary {
	return Binary(b)
}

func (b Binary) ToSQL() (driver.Value, error) {
	if b == nil {
		// a nil slice would bind as NULL
		return []byte{}, nil
	}
	return []byte(b), nil
}

// HostDate is implemented by host values that carry a calendar date,
// time.Time among them.
type HostDate interface {
	Date() (year int, month time.Month, day int)
}

// HostClock is implemented by host values that carry a time of day.
type HostClock interface {
	Clock() (hour, min, sec int)
}

// HostDateTime is a host date and time. A nil Location marks a value without
// time zone information, which is taken to be UTC.
type HostDateTime interface {
	HostDate
	HostClock
	Location() *time.Location
}

func FromHostDate(h HostDate) Date {
	y, m, d := h.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

func FromHostTime(h HostClock) Time {
	hh, mm, ss := h.Clock()
	return Time{Hour: hh, Minute: mm, Second: ss}
}

func FromHostDatetime(h HostDateTime) Timestamp {
	y, m, d := h.Date()
	hh, mm, ss := h.Clock()
	loc := h.Location()
	if loc == nil {
		loc = time.UTC
	}
	return Timestamp{Year: y, Month: int(m), Day: d, Hour: hh, Minute: mm, Second: ss, Location: loc}
}

// EpochSource is a host value that can report its Unix time in seconds.
type EpochSource interface {
	UnixSeconds() (int64, error)
}

type epochTime time.Time

func (t epochTime) UnixSeconds() (int64, error) {
	return time.Time(t).Unix(), nil
}

// EpochOf adapts a time.Time to an EpochSource.
func EpochOf(t time.Time) EpochSource {
	return epochTime(t)
}

func DateFromTicksOf(h EpochSource) (DateFromTicks, error) {
	ticks, err := hostTicks(h)
	return DateFromTicks{Ticks: ticks}, err
}

func TimeFromTicksOf(h EpochSource) (TimeFromTicks, error) {
	ticks, err := hostTicks(h)
	return TimeFromTicks{Ticks: ticks}, err
}

func TimestampFromTicksOf(h EpochSource) (TimestampFromTicks, error) {
	ticks, err := hostTicks(h)
	return TimestampFromTicks{Ticks: ticks}, err
}

func hostTicks(h EpochSource) (int64, error) {
	ticks, err := h.UnixSeconds()
	if err != nil {
		e := interfaceError("could not obtain a unix timestamp from the host value: %v", err)
		e.Err = err
		return 0, e
	}
	return ticks, nil
}

// ParseDate reads the stored text form of a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, dataError(err, "could not parse %q as a date", s)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// ParseTime reads the stored text form of a Time.
func ParseTime(s string) (Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return Time{}, dataError(err, "could not parse %q as a time", s)
	}
	return Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// ParseTimestamp reads the stored text form of a Timestamp, which is UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(DatetimeFormat, s)
	if err != nil {
		return Timestamp{}, dataError(err, "could not parse %q as a timestamp", s)
	}
	return timestampOf(t), nil
}

func timestampOf(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		Location: time.UTC,
	}
}

func fromTicks(ticks int64) (time.Time, error) {
	if ticks < MinTicks || ticks > MaxTicks {
		return time.Time{}, dataError(nil, "ticks %d out of range [%d, %d]", ticks, MinTicks, MaxTicks)
	}
	return time.Unix(ticks, 0).UTC(), nil
}

func validateDate(year, month, day int) error {
	if year < MinYear || year > MaxYear {
		return dataError(nil, "year %d out of range [%d, %d]", year, MinYear, MaxYear)
	}
	if month < 1 || month > 12 {
		return dataError(nil, "month %d out of range [1, 12]", month)
	}
	if n := daysIn(time.Month(month), year); day < 1 || day > n {
		return dataError(nil, "day %d out of range [1, %d] for %04d-%02d", day, n, year, month)
	}
	return nil
}

func validateClock(hour, minute, second int) error {
	if hour < 0 || hour > 23 {
		return dataError(nil, "hour %d out of range [0, 23]", hour)
	}
	if minute < 0 || minute > 59 {
		return dataError(nil, "minute %d out of range [0, 59]", minute)
	}
	if second < 0 || second > 59 {
		return dataError(nil, "second %d out of range [0, 59]", second)
	}
	return nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
