package datefmt

import "time"

const maxYear = 999_999_999

// resolve combines parsed fields into an instant. Missing date fields come
// from the formatter defaults, a missing time is midnight, and the zone is
// taken from the text first, then from the formatter.
func (f *Formatter) resolve(p *parsed, text string) (time.Time, error) {
	fail := func(msg string) (time.Time, error) {
		return time.Time{}, f.errorf(text, -1, "%s", msg)
	}

	year, msg := f.resolveYear(p)
	if msg != "" {
		return fail(msg)
	}
	month, day, msg := f.resolveMonthDay(p, year)
	if msg != "" {
		return fail(msg)
	}
	hour, minute, second, nano, msg := resolveTime(p)
	if msg != "" {
		return fail(msg)
	}

	loc := p.zone
	if loc == nil && p.hasOffset {
		loc = offsetZone(p.offset)
	}
	if loc == nil {
		loc = f.zone
	}
	if loc == nil {
		return fail("unable to obtain zone")
	}

	t := time.Date(int(year), time.Month(month), int(day), hour, minute, second, nano, loc)

	if dow, ok := p.get(fieldDayOfWeek); ok && dow != isoWeekday(t) {
		return fail("conflict found: day of week " + dayNames[dow-1] + " differs from " + t.Weekday().String())
	}
	return t, nil
}

func (f *Formatter) resolveYear(p *parsed) (int64, string) {
	var year int64
	if y, ok := p.get(fieldYear); ok {
		year = y
	} else if yoe, ok := p.get(fieldYearOfEra); ok {
		if yoe < 1 {
			return 0, "invalid year of era"
		}
		year = yoe
		if era, ok := p.get(fieldEra); ok && era == 0 {
			year = 1 - yoe
		}
	} else if f.defaults != nil {
		year = int64(f.defaults.year)
	} else {
		return 0, "unable to obtain date: year is missing"
	}
	if year < -maxYear || year > maxYear {
		return 0, "year out of range"
	}
	return year, ""
}

func (f *Formatter) resolveMonthDay(p *parsed, year int64) (int64, int64, string) {
	month, hasMonth := p.get(fieldMonth)
	day, hasDay := p.get(fieldDayOfMonth)

	if doy, ok := p.get(fieldDayOfYear); ok && !(hasMonth && hasDay) {
		if doy < 1 || doy > int64(daysInYear(int(year))) {
			return 0, 0, "invalid day of year"
		}
		t := time.Date(int(year), time.January, int(doy), 0, 0, 0, 0, time.UTC)
		return int64(t.Month()), int64(t.Day()), ""
	}

	if !hasMonth {
		if f.defaults == nil {
			return 0, 0, "unable to obtain date: month is missing"
		}
		month = int64(f.defaults.month)
	}
	if !hasDay {
		if f.defaults == nil {
			return 0, 0, "unable to obtain date: day is missing"
		}
		day = int64(f.defaults.day)
	}
	if month < 1 || month > 12 {
		return 0, 0, "invalid month"
	}
	if day < 1 || day > 31 {
		return 0, 0, "invalid day of month"
	}
	if last := int64(daysInMonth(int(year), time.Month(month))); day > last {
		day = last
	}
	return month, day, ""
}

func resolveTime(p *parsed) (hour, minute, second, nano int, msg string) {
	if mod, ok := p.get(fieldMilliOfDay); ok {
		if mod < 0 || mod >= 86_400_000 {
			return 0, 0, 0, 0, "invalid milli of day"
		}
		if !putTimeOfDay(p, mod*int64(time.Millisecond)) {
			return 0, 0, 0, 0, "conflict found: milli of day"
		}
	}
	if nod, ok := p.get(fieldNanoOfDay); ok {
		if nod < 0 || nod >= int64(24*time.Hour) {
			return 0, 0, 0, 0, "invalid nano of day"
		}
		if !putTimeOfDay(p, nod) {
			return 0, 0, 0, 0, "conflict found: nano of day"
		}
	}

	h, hasHour := p.get(fieldHourOfDay)
	ampm, hasAmPm := p.get(fieldAmPm)
	switch {
	case hasHour:
		if h < 0 || h > 23 {
			return 0, 0, 0, 0, "invalid hour of day"
		}
		if hasAmPm && h/12 != ampm {
			return 0, 0, 0, 0, "conflict found: hour of day differs from am-pm"
		}
	case p.set[fieldClockHourOfDay]:
		ch := p.values[fieldClockHourOfDay]
		if ch < 1 || ch > 24 {
			return 0, 0, 0, 0, "invalid clock hour of day"
		}
		h, hasHour = ch%24, true
	case p.set[fieldHourOfAmPm] || p.set[fieldClockHourOfAmPm]:
		if !hasAmPm {
			return 0, 0, 0, 0, "unable to obtain time: am-pm marker is missing"
		}
		var hoa int64
		if v, ok := p.get(fieldClockHourOfAmPm); ok {
			if v < 1 || v > 12 {
				return 0, 0, 0, 0, "invalid clock hour of am-pm"
			}
			hoa = v % 12
		} else {
			hoa = p.values[fieldHourOfAmPm]
			if hoa < 0 || hoa > 11 {
				return 0, 0, 0, 0, "invalid hour of am-pm"
			}
		}
		h, hasHour = ampm*12+hoa, true
	}

	m, hasMinute := p.get(fieldMinute)
	s, hasSecond := p.get(fieldSecond)
	n, hasNano := p.get(fieldNano)
	if !hasHour {
		if hasMinute || hasSecond || hasNano {
			return 0, 0, 0, 0, "unable to obtain time: hour is missing"
		}
		return 0, 0, 0, 0, ""
	}
	if m < 0 || m > 59 {
		return 0, 0, 0, 0, "invalid minute"
	}
	if s < 0 || s > 59 {
		return 0, 0, 0, 0, "invalid second"
	}
	if n < 0 || n > 999_999_999 {
		return 0, 0, 0, 0, "invalid nano of second"
	}
	return int(h), int(m), int(s), int(n), ""
}

func putTimeOfDay(p *parsed, nanos int64) bool {
	d := time.Duration(nanos)
	return p.put(fieldHourOfDay, int64(d/time.Hour)) &&
		p.put(fieldMinute, int64(d/time.Minute%60)) &&
		p.put(fieldSecond, int64(d/time.Second%60)) &&
		p.put(fieldNano, int64(d%time.Second))
}

// isoWeekday numbers days from Monday (1) to Sunday (7).
func isoWeekday(t time.Time) int64 {
	return int64((int(t.Weekday())+6)%7 + 1)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}
