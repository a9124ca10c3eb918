package datefmt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convlog/convlog-go/internal/datefmt"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := datefmt.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestFormatter_Parse(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")

	tests := []struct {
		name   string
		layout string
		zone   *time.Location
		text   string
		want   time.Time
	}{
		{
			name:   "zone name",
			layout: "yyyy-MM-dd HH:mm:ss/zzz",
			text:   "2017-09-26 23:08:06/UTC",
			want:   time.Date(2017, 9, 26, 23, 8, 6, 0, time.UTC),
		},
		{
			name:   "daylight abbreviation",
			layout: "yyyy-MM-dd HH:mm:ss/zzz",
			text:   "2017-09-26 23:08:06/PDT",
			want:   time.UnixMilli(1506492486000),
		},
		{
			name:   "formatter zone",
			layout: "yyyy-MM-dd HH:mm:ss,SSS",
			zone:   la,
			text:   "2018-02-27 14:13:18,852",
			want:   time.Date(2018, 2, 27, 22, 13, 18, 852_000_000, time.UTC),
		},
		{
			name:   "rfc offset",
			layout: "yyyy-MM-dd'T'HH:mm:ss.SSSZ",
			text:   "2018-02-28T12:00:00.000-0700",
			want:   time.Date(2018, 2, 28, 19, 0, 0, 0, time.UTC),
		},
		{
			name:   "iso offset with colon",
			layout: "yyyy-MM-dd'T'HH:mm:ss,SSSXXX",
			text:   "2018-02-28T12:00:00,000+09:00",
			want:   time.Date(2018, 2, 28, 3, 0, 0, 0, time.UTC),
		},
		{
			name:   "iso zero offset",
			layout: "yyyy-MM-dd'T'HH:mm:ss,SSSX",
			text:   "2018-02-28T12:00:00,000Z",
			want:   time.Date(2018, 2, 28, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "iso hour offset",
			layout: "yyyy-MM-dd'T'HH:mm:ss,SSSX",
			text:   "2018-02-28T12:00:00,000+05",
			want:   time.Date(2018, 2, 28, 7, 0, 0, 0, time.UTC),
		},
		{
			name:   "region id",
			layout: "yyyy-MM-dd HH:mm:ss VV",
			text:   "2018-02-28 12:00:00 Asia/Tokyo",
			want:   time.Date(2018, 2, 28, 3, 0, 0, 0, time.UTC),
		},
		{
			name:   "japan abbreviation",
			layout: "yyyy-MM-dd HH:mm:ss.SSS z",
			text:   "2018-02-28 12:00:00.000 JST",
			want:   time.Date(2018, 2, 28, 3, 0, 0, 0, time.UTC),
		},
		{
			name:   "localized offset",
			layout: "yyyy-MM-dd HH:mm ZZZZ",
			text:   "2018-02-28 12:00 GMT+08:00",
			want:   time.Date(2018, 2, 28, 4, 0, 0, 0, time.UTC),
		},
		{
			name:   "month name and am-pm",
			layout: "MMM d, yyyy h:m:s a zzz",
			text:   "Jun 13, 2019 7:26:5 PM GMT",
			want:   time.Date(2019, 6, 13, 19, 26, 5, 0, time.UTC),
		},
		{
			name:   "twelve am is midnight",
			layout: "yyyy-MM-dd hh:mm a",
			zone:   time.UTC,
			text:   "2019-06-13 12:05 AM",
			want:   time.Date(2019, 6, 13, 0, 5, 0, 0, time.UTC),
		},
		{
			name:   "padded fields",
			layout: "yyyy-ppM-ppd HH:ppppm:ss/zzz",
			text:   "2017- 9- 6 23:   8:06/UTC",
			want:   time.Date(2017, 9, 6, 23, 8, 6, 0, time.UTC),
		},
		{
			name:   "padded field without spaces",
			layout: "yyyy MMM ppd HH:mm:ss/zzz",
			text:   "2019 Nov 14 04:28:21/UTC",
			want:   time.Date(2019, 11, 14, 4, 28, 21, 0, time.UTC),
		},
		{
			name:   "adjacent values",
			layout: "yyyyMMddHHmmssSSS",
			zone:   time.UTC,
			text:   "20170926230806123",
			want:   time.Date(2017, 9, 26, 23, 8, 6, 123_000_000, time.UTC),
		},
		{
			name:   "two digit year",
			layout: "yy-MM-dd HH:mm:ss",
			zone:   time.UTC,
			text:   "17-09-26 23:08:06",
			want:   time.Date(2017, 9, 26, 23, 8, 6, 0, time.UTC),
		},
		{
			name:   "nano of second",
			layout: "yyyy-MM-dd HH:mm:ss,nnnnnnnnn",
			zone:   time.UTC,
			text:   "2017-09-26 23:08:06,000000042",
			want:   time.Date(2017, 9, 26, 23, 8, 6, 42, time.UTC),
		},
		{
			name:   "day of year",
			layout: "yyyy DDD HH:mm",
			zone:   time.UTC,
			text:   "2020 060 10:00",
			want:   time.Date(2020, 2, 29, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "date only is midnight",
			layout: "yyyy-MM-dd",
			zone:   time.UTC,
			text:   "2020-02-29",
			want:   time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "day of week checked",
			layout: "EEE, dd MMM yyyy HH:mm:ss",
			zone:   time.UTC,
			text:   "Tue, 26 Sep 2017 23:08:06",
			want:   time.Date(2017, 9, 26, 23, 8, 6, 0, time.UTC),
		},
		{
			name:   "day clamped to month end",
			layout: "yyyy-MM-dd",
			zone:   time.UTC,
			text:   "2019-02-31",
			want:   time.Date(2019, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := datefmt.Compile(tt.layout)
			require.NoError(t, err)
			if tt.zone != nil {
				f = f.WithZone(tt.zone)
			}
			got, err := f.Parse(tt.text)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got.UTC(), tt.want.UTC())
		})
	}
}

func TestFormatter_ParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		text   string
	}{
		{"unpadded hour", "yyyy-MM-dd HH:mm:ss", "2019-06-13 7:26:05"},
		{"trailing text", "yyyy-MM-dd", "2019-06-13 extra"},
		{"month name case", "dd MMM yyyy", "13 jun 2019"},
		{"hour without marker", "yyyy-MM-dd hh:mm", "2019-06-13 07:26"},
		{"wrong weekday", "EEE yyyy-MM-dd", "Mon 2017-09-26"},
		{"month out of range", "yyyy-MM-dd", "2019-13-01"},
		{"hour out of range", "yyyy-MM-dd HH", "2019-01-01 24"},
		{"pad window overrun", "yyyy-ppM", "2017-123"},
		{"unknown zone", "yyyy-MM-dd z", "2019-01-01 Nowhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := datefmt.Compile(tt.layout)
			require.NoError(t, err)
			_, err = f.WithZone(time.UTC).Parse(tt.text)
			require.Error(t, err)

			var pe *datefmt.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.text, pe.Text)
			assert.Equal(t, tt.layout, pe.Layout)
		})
	}
}

func TestFormatter_ParseRequiresZone(t *testing.T) {
	f := datefmt.MustCompile("yyyy-MM-dd HH:mm:ss")
	_, err := f.Parse("2019-01-01 10:00:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone")
}

func TestFormatter_DateDefaults(t *testing.T) {
	f := datefmt.MustCompile("HH:mm:ss").WithZone(time.UTC)

	_, err := f.Parse("23:08:06")
	require.Error(t, err, "a time-only layout needs date defaults")

	got, err := f.WithDateDefaults(2021, time.March, 4).Parse("23:08:06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 3, 4, 23, 8, 6, 0, time.UTC), got)

	// Parsed fields win over the defaults.
	g := datefmt.MustCompile("MM-dd HH:mm").WithZone(time.UTC).WithDateDefaults(2021, time.March, 4)
	got, err = g.Parse("09-26 23:08")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 9, 26, 23, 8, 0, 0, time.UTC), got)
}

func TestFormatter_WithZoneCopies(t *testing.T) {
	f := datefmt.MustCompile("yyyy")
	g := f.WithZone(time.UTC)
	assert.Nil(t, f.Zone())
	assert.Equal(t, time.UTC, g.Zone())
	assert.Equal(t, "yyyy", g.Layout())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		layout string
		offset int
	}{
		{"yyyy-MM-dd'T", 10},
		{"yyyy-MM-ddd", 8},
		{"HHH", 0},
		{"yyyy [HH]", 5},
		{"yyyy {x}", 5},
		{"yyyy #", 5},
		{"MMMMMM", 0},
		{"zzzzz", 0},
		{"V", 0},
		{"SSSSSSSSSS", 0},
		{"aa", 0},
		{"yyyy-Q", 5},
		{"yyyy-p", 5},
		{"yyyy-pp-", 5},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			_, err := datefmt.Compile(tt.layout)
			require.Error(t, err)
			var le *datefmt.LayoutError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.layout, le.Layout)
			assert.Equal(t, tt.offset, le.Offset)
		})
	}
}

func TestParseZone(t *testing.T) {
	tests := []struct {
		name   string
		offset int
	}{
		{"UTC", 0},
		{"Z", 0},
		{"+09:00", 9 * 3600},
		{"-0700", -7 * 3600},
		{"UTC+8", 8 * 3600},
		{"GMT-03:30", -(3*3600 + 30*60)},
		{"Asia/Tokyo", 9 * 3600},
		{"JST", 9 * 3600},
	}
	ref := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := datefmt.ParseZone(tt.name)
			require.NoError(t, err)
			_, off := ref.In(loc).Zone()
			assert.Equal(t, tt.offset, off)
		})
	}

	_, err := datefmt.ParseZone("Not A Zone")
	assert.Error(t, err)
	_, err = datefmt.ParseZone("")
	assert.Error(t, err)
}

func BenchmarkFormatter_Parse(b *testing.B) {
	f := datefmt.MustCompile("yyyy-MM-dd HH:mm:ss,SSS").WithZone(time.UTC)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Parse("2017-09-26 23:08:06,123")
	}
}
