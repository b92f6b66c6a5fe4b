package sqlcipher

import (
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := KindOf(err)
	require.True(t, ok, "expected a taxonomy error, got %T: %v", err, err)
	require.Equal(t, kind, got, "unexpected kind for %v", err)
}

func TestDateToSQL(t *testing.T) {
	tests := []struct {
		name    string
		date    Date
		want    string
		wantErr bool
	}{
		{name: "zero padded", date: NewDate(2024, 1, 5), want: "2024-01-05"},
		{name: "leap day", date: NewDate(2024, 2, 29), want: "2024-02-29"},
		{name: "first year", date: NewDate(0, 1, 1), want: "0000-01-01"},
		{name: "last day", date: NewDate(9999, 12, 31), want: "9999-12-31"},
		{name: "month 13", date: NewDate(2024, 13, 1), wantErr: true},
		{name: "month 0", date: NewDate(2024, 0, 1), wantErr: true},
		{name: "february 30", date: NewDate(2024, 2, 30), wantErr: true},
		{name: "no leap day", date: NewDate(2023, 2, 29), wantErr: true},
		{name: "day 0", date: NewDate(2024, 1, 0), wantErr: true},
		{name: "april 31", date: NewDate(2024, 4, 31), wantErr: true},
		{name: "year 10000", date: NewDate(10000, 1, 1), wantErr: true},
		{name: "negative year", date: NewDate(-1, 1, 1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.date.ToSQL()
			if tt.wantErr {
				requireKind(t, err, KindData)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestTimeToSQL(t *testing.T) {
	v, err := NewTime(9, 5, 7).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "09:05:07", v)

	v, err = NewTime(23, 59, 59).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "23:59:59", v)

	for _, bad := range []Time{NewTime(24, 0, 0), NewTime(0, 60, 0), NewTime(0, 0, 60), NewTime(-1, 0, 0)} {
		_, err := bad.ToSQL()
		requireKind(t, err, KindData)
	}
}

func TestTimestampToSQL(t *testing.T) {
	t.Run("nil location is UTC", func(t *testing.T) {
		v, err := NewTimestamp(2024, 1, 5, 10, 20, 30, nil).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "2024-01-05 10:20:30", v)
	})

	t.Run("normalized to UTC", func(t *testing.T) {
		v, err := NewTimestamp(2024, 1, 5, 1, 0, 0, time.FixedZone("UTC+2", 2*60*60)).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "2024-01-04 23:00:00", v)
	})

	t.Run("zone with daylight saving", func(t *testing.T) {
		v, err := NewTimestamp(2024, 7, 1, 12, 0, 0, newYork(t)).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "2024-07-01 16:00:00", v)
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := NewTimestamp(2024, 2, 30, 0, 0, 0, nil).ToSQL()
		requireKind(t, err, KindData)
		_, err = NewTimestamp(2024, 2, 1, 25, 0, 0, nil).ToSQL()
		requireKind(t, err, KindData)
	})

	t.Run("leaves year range once normalized", func(t *testing.T) {
		_, err := NewTimestamp(0, 1, 1, 0, 0, 0, time.FixedZone("UTC+1", 60*60)).ToSQL()
		requireKind(t, err, KindData)
		_, err = NewTimestamp(9999, 12, 31, 23, 30, 0, time.FixedZone("UTC-1", -60*60)).ToSQL()
		requireKind(t, err, KindData)
	})
}

func TestTimestampAmbiguousLocalTime(t *testing.T) {
	// 01:30 happens twice in New York on 2024-11-03: at 05:30Z (EDT) and
	// at 06:30Z (EST).
	ts := NewTimestamp(2024, 11, 3, 1, 30, 0, newYork(t))
	for i := 0; i < 3; i++ {
		v, err := ts.ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "2024-11-03 05:30:00", v)
	}
}

func TestTimestampNonexistentLocalTime(t *testing.T) {
	// clocks jump from 02:00 to 03:00 in New York on 2024-03-10
	for _, minute := range []int{0, 30, 59} {
		ts := NewTimestamp(2024, 3, 10, 2, minute, 0, newYork(t))
		_, err := ts.ToSQL()
		requireKind(t, err, KindData)
		assert.Contains(t, err.Error(), "does not exist")
	}

	v, err := NewTimestamp(2024, 3, 10, 3, 0, 0, newYork(t)).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10 07:00:00", v)
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, ts := range []Timestamp{
		NewTimestamp(2024, 7, 1, 12, 0, 0, newYork(t)),
		NewTimestamp(1999, 12, 31, 23, 59, 59, time.FixedZone("UTC+5:30", 5*60*60+30*60)),
		NewTimestamp(1970, 1, 1, 0, 0, 0, nil),
	} {
		instant, err := ts.UTC()
		require.NoError(t, err)

		v, err := ts.ToSQL()
		require.NoError(t, err)
		parsed, err := ParseTimestamp(v.(string))
		require.NoError(t, err)

		back, err := parsed.UTC()
		require.NoError(t, err)
		assert.True(t, instant.Equal(back), "%s: %s != %s", ts, instant, back)
	}
}

func TestFromTicks(t *testing.T) {
	v, err := NewDateFromTicks(0).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01", v)

	v, err = NewTimeFromTicks(3661).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "01:01:01", v)

	v, err = NewTimestampFromTicks(1704450030).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05 10:20:30", v)

	v, err = NewTimestampFromTicks(-1).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "1969-12-31 23:59:59", v)

	v, err = NewDateFromTicks(MinTicks).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "0000-01-01", v)

	v, err = NewTimestampFromTicks(MaxTicks).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "9999-12-31 23:59:59", v)
}

func TestFromTicksOutOfRange(t *testing.T) {
	for _, ticks := range []int64{MinTicks - 1, MaxTicks + 1, math.MinInt64, math.MaxInt64} {
		_, err := NewDateFromTicks(ticks).ToSQL()
		requireKind(t, err, KindData)
		_, err = NewTimeFromTicks(ticks).ToSQL()
		requireKind(t, err, KindData)
		_, err = NewTimestampFromTicks(ticks).ToSQL()
		requireKind(t, err, KindData)
	}
}

func TestDateFromTicksMatchesDate(t *testing.T) {
	for _, ticks := range []int64{0, 1, -1, 86399, 86400, -86401, 951782400, 1704450030, 4102444800, MinTicks, MaxTicks} {
		u := time.Unix(ticks, 0).UTC()
		want, err := NewDate(u.Year(), int(u.Month()), u.Day()).ToSQL()
		require.NoError(t, err)

		got, err := NewDateFromTicks(ticks).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, want, got, "ticks %d", ticks)
	}
}

func TestBinaryToSQL(t *testing.T) {
	raw := []byte{0x00, 0xff, 0x00, 'a', 0x00}
	v, err := NewBinary(raw).ToSQL()
	require.NoError(t, err)
	b, ok := v.([]byte)
	require.True(t, ok, "expected a blob, got %T", v)
	assert.Equal(t, raw, b)

	v, err = NewBinary(nil).ToSQL()
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, []byte{}, v)
}

type naiveDateTime struct {
	time.Time
}

func (naiveDateTime) Location() *time.Location { return nil }

func TestFromHost(t *testing.T) {
	ny := newYork(t)
	host := time.Date(2024, 1, 5, 10, 20, 30, 999, ny)

	assert.Equal(t, NewDate(2024, 1, 5), FromHostDate(host))
	assert.Equal(t, NewTime(10, 20, 30), FromHostTime(host))

	ts := FromHostDatetime(host)
	assert.Equal(t, NewTimestamp(2024, 1, 5, 10, 20, 30, ny), ts)
	v, err := ts.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05 15:20:30", v)

	naive := FromHostDatetime(naiveDateTime{time.Date(2024, 1, 5, 10, 20, 30, 0, ny)})
	assert.Equal(t, time.UTC, naive.Location)
	v, err = naive.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05 10:20:30", v)
}

type failingEpoch struct{}

func (failingEpoch) UnixSeconds() (int64, error) {
	return 0, errors.New("no epoch")
}

func TestFromTicksOf(t *testing.T) {
	host := time.Date(2024, 1, 5, 10, 20, 30, 0, time.UTC)

	d, err := DateFromTicksOf(EpochOf(host))
	require.NoError(t, err)
	assert.Equal(t, host.Unix(), d.Ticks)

	tm, err := TimeFromTicksOf(EpochOf(host))
	require.NoError(t, err)
	v, err := tm.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "10:20:30", v)

	ts, err := TimestampFromTicksOf(EpochOf(host))
	require.NoError(t, err)
	v, err = ts.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05 10:20:30", v)

	_, err = DateFromTicksOf(failingEpoch{})
	requireKind(t, err, KindInterface)
	_, err = TimeFromTicksOf(failingEpoch{})
	requireKind(t, err, KindInterface)
	_, err = TimestampFromTicksOf(failingEpoch{})
	requireKind(t, err, KindInterface)
	assert.EqualError(t, errors.Unwrap(err), "no epoch")
}

func TestParse(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 1, 5), d)

	tm, err := ParseTime("01:02:03")
	require.NoError(t, err)
	assert.Equal(t, NewTime(1, 2, 3), tm)

	ts, err := ParseTimestamp("2024-01-05 10:20:30")
	require.NoError(t, err)
	assert.Equal(t, NewTimestamp(2024, 1, 5, 10, 20, 30, time.UTC), ts)

	_, err = ParseDate("2024-13-01")
	requireKind(t, err, KindData)
	_, err = ParseTimestamp("yesterday")
	requireKind(t, err, KindData)
}

func TestAdapterStrings(t *testing.T) {
	assert.Equal(t, "0042-03-04", NewDate(42, 3, 4).String())
	assert.Equal(t, "01:02:03", NewTime(1, 2, 3).String())
	assert.Equal(t, "2024-01-05 10:20:30", NewTimestamp(2024, 1, 5, 10, 20, 30, nil).String())
	assert.Equal(t, "2024-01-05 10:20:30 America/New_York", NewTimestamp(2024, 1, 5, 10, 20, 30, newYork(t)).String())
}
