package sqlcipher

import (
	"sort"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// resolveLocal returns the UTC instant at which the wall clock in loc shows
// the given reading.
//
// time.Date leaves the choice unspecified for readings that occur twice or
// never, so the candidates are worked out from the zone offsets in effect a
// day either side of the reading. A reading is valid for an offset when the
// instant it implies really is observed with that offset.
func resolveLocal(year, month, day, hour, minute, second int, loc *time.Location) (time.Time, error) {
	if loc == nil || loc == time.UTC {
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
	}

	naive := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC).Unix()

	var candidates []int64
	tried := make(map[int]bool, 3)
	for _, probe := range []int64{naive - secondsPerDay, naive, naive + secondsPerDay} {
		_, offset := time.Unix(probe, 0).In(loc).Zone()
		if tried[offset] {
			continue
		}
		tried[offset] = true

		instant := naive - int64(offset)
		if _, actual := time.Unix(instant, 0).In(loc).Zone(); actual == offset {
			candidates = append(candidates, instant)
		}
	}

	if len(candidates) == 0 {
		return time.Time{}, dataError(nil,
			"local time %04d-%02d-%02d %02d:%02d:%02d does not exist in %s",
			year, month, day, hour, minute, second, loc)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	return time.Unix(candidates[0], 0).UTC(), nil
}
