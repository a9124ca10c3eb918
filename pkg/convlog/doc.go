// Package convlog decodes log lines rendered by a log4j-style conversion
// pattern into structured events.
//
// This package allows you to:
//   - Compile a conversion pattern such as "%d{ISO8601} [%t] %-5p %c - %m%n"
//     into a line matcher
//   - Decode single lines into events whose fields carry their byte
//     offsets in the line
//   - Try several layouts in order with a [ParserChain]
//   - Load named layouts from YAML via the [layout] subpackage
//
// # Basic Usage
//
//	dec, err := convlog.New("%d{yyyy-MM-dd HH:mm:ss} %-5p %c{1}:%L - %m%n",
//	    convlog.WithDefaultZone(time.UTC),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ev, err := dec.Parse("2017-09-26 23:08:06 ERROR TestLog:49 - oops")
//	switch {
//	case err != nil:
//	    log.Printf("decode error: %v", err)
//	case ev == nil:
//	    // line does not follow the pattern
//	default:
//	    fmt.Println(ev.Timestamp, ev.Level.Value, ev.Message.Value)
//	}
//
// A line that does not match the pattern is not an error: Parse returns
// (nil, nil). A matched line whose timestamp or number cannot be read
// returns a [*DateParseError] or [*FieldParseError] and no event.
//
// # Directives
//
// Every directive becomes one capture group. Free text fields (%c, %t, %m
// and friends) match lazily when literal text follows them. Width hints
// such as %-5p or %.10c bound the length of the match. Date directives
// take a literal layout or a named one (ISO8601, ABSOLUTE, DEFAULT, ...)
// and an optional second group naming a time zone: %d{HH:mm:ss}{UTC}.
// Layouts without a year or day are dated "today" in the decoder zone.
//
// # Concurrency
//
// A [Decoder] is safe for concurrent use. It keeps two bounded caches: the
// timestamps of layouts without sub-second fields, and the per-day
// formatters of time-only layouts.
package convlog
