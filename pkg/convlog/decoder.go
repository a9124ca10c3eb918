package convlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/convlog/convlog-go/internal/conversion"
	"github.com/convlog/convlog-go/internal/datefmt"
	"github.com/convlog/convlog-go/internal/lru"
	"github.com/convlog/convlog-go/internal/metrics"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// FieldDescriptor is the compiled form of one directive.
type FieldDescriptor = conversion.Descriptor

// Decoder turns lines rendered by one conversion pattern into events.
// A Decoder is safe for concurrent use.
type Decoder struct {
	compiled *conversion.Compiled
	name     string
	zone     *time.Location
	clock    func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Recorder

	timestamps *lru.Cache[timestampKey, time.Time]
	formatters *lru.Cache[dayKey, dayFormatters]
}

// timestampKey identifies a cached timestamp. For time-only layouts the
// date the text was read against is part of the key.
type timestampKey struct {
	field int
	date  civilDate
	text  string
}

type dayKey struct {
	field int
	date  civilDate
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// dayFormatters are the formatters of a time-only layout with the missing
// date filled from one calendar day.
type dayFormatters struct {
	strict  *datefmt.Formatter
	lenient *datefmt.Formatter
}

// New compiles pattern into a Decoder.
//
// Errors from compilation are *PatternSyntaxError. An empty pattern
// returns ErrEmptyPattern.
func New(pattern string, opts ...Option) (*Decoder, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}

	compiled, err := conversion.Compile(pattern, cfg.zone)
	if err != nil {
		return nil, err
	}

	rec, err := metrics.New(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = discardLogger
	}
	if cfg.name != "" {
		logger = logger.With("layout", cfg.name)
	}
	logger.Debug("compiled conversion pattern",
		"pattern", pattern,
		"regexp", compiled.Regexp().String(),
		"fields", compiled.NumFields())

	return &Decoder{
		compiled:   compiled,
		name:       cfg.name,
		zone:       cfg.zone,
		clock:      cfg.clock,
		logger:     logger,
		metrics:    rec,
		timestamps: lru.New[timestampKey, time.Time](cfg.timestampCacheSize),
		formatters: lru.New[dayKey, dayFormatters](cfg.formatterCacheSize),
	}, nil
}

// MustNew is like New but panics if the pattern cannot be compiled.
func MustNew(pattern string, opts ...Option) *Decoder {
	d, err := New(pattern, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Pattern returns the conversion pattern the decoder was built from.
func (d *Decoder) Pattern() string { return d.compiled.Source() }

// Name returns the name given with WithName.
func (d *Decoder) Name() string { return d.name }

// Regexp returns the line matcher.
func (d *Decoder) Regexp() *regexp.Regexp { return d.compiled.Regexp() }

// Fields returns the field descriptors in pattern order.
func (d *Decoder) Fields() []FieldDescriptor { return d.compiled.Fields() }

func (d *Decoder) String() string {
	if d.name != "" {
		return fmt.Sprintf("Decoder(%s: %q)", d.name, d.compiled.Source())
	}
	return fmt.Sprintf("Decoder(%q)", d.compiled.Source())
}

// Parse decodes one line. It returns (nil, nil) when the line does not
// match the pattern. A matched line whose timestamp or number cannot be
// read returns a *DateParseError or *FieldParseError and no event.
func (d *Decoder) Parse(line string) (*Event, error) {
	m := d.compiled.Regexp().FindStringSubmatchIndex(line)
	if m == nil {
		d.metrics.Line(d.name, metrics.ResultUnmatched)
		return nil, nil
	}

	ev := &Event{Layout: d.name}
	for i := 0; i < d.compiled.NumFields(); i++ {
		start, end := m[2*i+2], m[2*i+3]
		if start < 0 {
			continue
		}
		start, end = trimSpaces(line, start, end)
		if start == end {
			continue
		}
		if err := d.decodeField(ev, i, line, start, end); err != nil {
			d.metrics.Line(d.name, metrics.ResultError)
			return nil, err
		}
	}

	d.metrics.Line(d.name, metrics.ResultMatched)
	return ev, nil
}

// ParseLine implements the Parser interface.
func (d *Decoder) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return ParseResult{}, err
	}
	ev, err := d.Parse(line)
	if err != nil {
		return ParseResult{}, err
	}
	if ev == nil {
		return ParseResult{Matched: false}, nil
	}
	return ParseResult{Events: []Event{*ev}, Matched: true}, nil
}

func trimSpaces(line string, start, end int) (int, int) {
	for start < end && line[start] == ' ' {
		start++
	}
	for end > start && line[end-1] == ' ' {
		end--
	}
	return start, end
}

func (d *Decoder) decodeField(ev *Event, i int, line string, start, end int) error {
	f := d.compiled.Field(i)
	switch f.Type {
	case conversion.Date:
		t, err := d.timestamp(i, f.Timestamp, line[start:end])
		if err != nil {
			return err
		}
		ev.Timestamp = t
	case conversion.Level:
		ev.Level = newEntity(line, start, end)
	case conversion.Logger:
		ev.Logger = newEntity(line, start, end)
	case conversion.Location:
		ev.Location = newEntity(line, start, end)
	case conversion.Thread:
		ev.Thread = newEntity(line, start, end)
	case conversion.Message:
		ev.Message = newEntity(line, start, end)
	case conversion.Exception:
		ev.Throwable = newEntity(line, start, end)
	case conversion.File:
		ev.FileName = newEntity(line, start, end)
	case conversion.Class:
		ev.Class = newEntity(line, start, end)
	case conversion.Method:
		ev.Method = newEntity(line, start, end)
	case conversion.Marker:
		ev.Marker = newEntity(line, start, end)
	case conversion.UUID:
		ev.UUID = newEntity(line, start, end)
	case conversion.FQCN:
		ev.FQCN = newEntity(line, start, end)
	case conversion.Map:
		ev.Map = parseInlineMap(line, start, end)
	case conversion.NanoTime:
		v, err := parseInt(f, line, start, end, 64)
		if err != nil {
			return err
		}
		// Millisecond resolution only.
		ev.Timestamp = time.UnixMilli(v / 1000).UTC()
	case conversion.ProcessID, conversion.RelativeTime, conversion.SequenceNumber,
		conversion.ThreadID, conversion.Line:
		v, err := parseInt(f, line, start, end, 64)
		if err != nil {
			return err
		}
		le := &LongEntity{Value: v, Start: start, End: end}
		switch f.Type {
		case conversion.ProcessID:
			ev.ProcessID = le
		case conversion.RelativeTime:
			ev.RelativeTimestamp = le
		case conversion.SequenceNumber:
			ev.SequenceNumber = le
		case conversion.ThreadID:
			ev.ThreadID = le
		default:
			ev.Line = le
		}
	case conversion.ThreadPriority:
		v, err := parseInt(f, line, start, end, 32)
		if err != nil {
			return err
		}
		ev.ThreadPriority = &IntEntity{Value: int32(v), Start: start, End: end}
	case conversion.NDC:
		if enclosed(line, start, end, '[', ']') {
			start, end = start+1, end-1
		}
		ev.NDC = newEntity(line, start, end)
	case conversion.MDC:
		if enclosed(line, start, end, '{', '}') {
			ev.MDC = mergeEntities(ev.MDC, parseInlineMap(line, start+1, end-1))
			break
		}
		ev.MDC = mergeEntities(ev.MDC, map[string]Entity{
			f.Modifier: {Value: line[start:end], Start: start, End: end},
		})
	default:
		return fmt.Errorf("field %d: unsupported type %s", i, f.Type)
	}
	return nil
}

func parseInt(f *FieldDescriptor, line string, start, end, bits int) (int64, error) {
	v, err := strconv.ParseInt(line[start:end], 10, bits)
	if err != nil {
		return 0, &FieldParseError{
			Field: f.Type.String(),
			Text:  line[start:end],
			Start: start,
			End:   end,
			Cause: err,
		}
	}
	return v, nil
}

// timestamp reads the text captured by date field i.
func (d *Decoder) timestamp(i int, ts *datefmt.Timestamp, text string) (time.Time, error) {
	key := timestampKey{field: i, text: text}
	var zone *time.Location
	if !ts.HasDate {
		zone = ts.Strict.Zone()
		if zone == nil {
			zone = d.zone
		}
		key.date = dateOf(d.clock().In(zone))
	}

	if ts.UseCache {
		t, ok := d.timestamps.Get(key)
		d.metrics.CacheLookup(d.name, metrics.CacheTimestamp, ok)
		if ok {
			return t, nil
		}
	}

	strict, lenient := ts.Strict, ts.Lenient
	if !ts.HasDate {
		fs, err := d.dayFormatters(dayKey{field: i, date: key.date}, ts, zone)
		if err != nil {
			return time.Time{}, err
		}
		strict, lenient = fs.strict, fs.lenient
	}

	t, err := strict.Parse(text)
	if err != nil && lenient != nil {
		lt, lerr := lenient.Parse(text)
		if lerr != nil {
			d.logger.Debug("lenient date parse failed",
				"text", text, "layout", lenient.Layout(), "error", lerr)
			return time.Time{}, err
		}
		d.logger.Debug("strict date parse failed, lenient layout accepted",
			"text", text, "layout", ts.Layout, "lenient", lenient.Layout())
		t, err = lt, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	if ts.UseCache {
		d.timestamps.Add(key, t)
	}
	return t, nil
}

// dayFormatters returns the formatters of a time-only layout with the
// missing date taken from key.
func (d *Decoder) dayFormatters(key dayKey, ts *datefmt.Timestamp, zone *time.Location) (dayFormatters, error) {
	fs, hit, err := d.formatters.GetOrAdd(key, func() (dayFormatters, error) {
		date := key.date
		d.logger.Debug("building day formatter", "layout", ts.Layout,
			"date", time.Date(date.year, date.month, date.day, 0, 0, 0, 0, zone).Format(time.DateOnly))
		fs := dayFormatters{
			strict: ts.Strict.WithDateDefaults(date.year, date.month, date.day).WithZone(zone),
		}
		if ts.Lenient != nil {
			fs.lenient = ts.Lenient.WithDateDefaults(date.year, date.month, date.day).WithZone(zone)
		}
		return fs, nil
	})
	d.metrics.CacheLookup(d.name, metrics.CacheFormatter, hit)
	return fs, err
}
