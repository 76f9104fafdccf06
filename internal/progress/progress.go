// Package progress tracks how far an import has got and renders the live
// throughput line.
package progress

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"csvtosql/internal/metrics"
)

// Summary is the running total of committed work.
type Summary struct {
	RowsInserted   int64
	BytesProcessed int64
	Batches        int
	Elapsed        time.Duration
}

// RowsPerSecond is throughput over Elapsed, or 0 before any time has passed.
func (s Summary) RowsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.RowsInserted) / s.Elapsed.Seconds()
}

// Reporter accumulates committed batches. It has a single writer (the
// loader) and is not safe for concurrent use.
//
// Every Committed call rewrites the live line on out; Finish ends it with a
// "Done!" line, or a "Stopped after" line when the load failed. A nil out
// disables rendering but still counts.
type Reporter struct {
	out     io.Writer
	printer *message.Printer
	now     func() time.Time

	started time.Time
	mark    time.Time
	sum     Summary
}

// New returns a Reporter writing to out with English digit grouping.
func New(out io.Writer) *Reporter {
	return &Reporter{
		out:     out,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// Start begins the throughput clock. Calling it again restarts nothing.
func (r *Reporter) Start() {
	if !r.started.IsZero() {
		return
	}
	r.started = r.now()
	r.mark = r.started
}

// Committed records one committed batch of rows carrying bytes of field data.
func (r *Reporter) Committed(rows int, bytes int64) {
	r.Start()
	now := r.now()

	r.sum.RowsInserted += int64(rows)
	r.sum.BytesProcessed += bytes
	r.sum.Batches++
	r.sum.Elapsed = now.Sub(r.started)

	metrics.IncCounter(metrics.BatchesTotal, 1, nil)
	metrics.IncCounter(metrics.RecordsTotal, float64(rows), metrics.Labels{"kind": "inserted"})
	metrics.IncCounter(metrics.BytesTotal, float64(bytes), nil)
	metrics.RecordStep("batch", "ok", now.Sub(r.mark))
	r.mark = now

	if r.out != nil {
		fmt.Fprint(r.out, "\r"+r.line("Inserted"))
	}
}

// Summary returns the totals so far.
func (r *Reporter) Summary() Summary {
	s := r.sum
	if !r.started.IsZero() {
		s.Elapsed = r.now().Sub(r.started)
	}
	return s
}

// Finish freezes Elapsed, prints the final line and returns the totals.
// cause is the error that ended the load, nil on success; the totals then
// only cover what was committed before it.
func (r *Reporter) Finish(cause error) Summary {
	r.Start()
	r.sum = r.Summary()
	if r.out != nil {
		prefix := ""
		if r.sum.Batches > 0 {
			prefix = "\n"
		}
		verb := "Done! Inserted"
		if cause != nil {
			verb = "Stopped after"
		}
		fmt.Fprint(r.out, prefix+r.line(verb)+"\n")
	}
	return r.sum
}

func (r *Reporter) line(verb string) string {
	return r.printer.Sprintf("%s %d rows (%d bytes)", verb, r.sum.RowsInserted, r.sum.BytesProcessed) +
		fmt.Sprintf(" at (%.2f rps)", r.sum.RowsPerSecond())
}
