// Package watch follows log files and decodes new lines as they are
// written.
//
// A Watcher tails either one file (WithFile) or the newest file of a
// directory (WithLogDir), switching to a newer file when one appears.
// Every line goes through a [convlog.Parser], typically a
// [*convlog.Decoder] or a [*convlog.ParserChain] built from a layout file.
//
//	dec := convlog.MustNew("%d{ISO8601} [%t] %-5p %c - %m%n")
//	w, err := watch.New(dec,
//	    watch.WithLogDir("/var/log/app"),
//	    watch.WithReplayLastN(100),
//	    watch.WithExcludeLevels("DEBUG", "TRACE"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	events, errs, err := w.Watch(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for events != nil || errs != nil {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            events = nil
//	            continue
//	        }
//	        fmt.Println(ev.Level.Value, ev.Message.Value)
//	    case err, ok := <-errs:
//	        if !ok {
//	            errs = nil
//	            continue
//	        }
//	        log.Println(err)
//	    }
//	}
//
// Lines the parser rejects are reported as [*ParseError] on the error
// channel; file system failures as [*WatchError]. Neither stops the
// watcher.
package watch
