package exporter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"rfmcli/internal/report"
)

const (
	reportTitle = "Customer Segmentation Analysis Report"
	emptyNotice = "No customers survived cleaning; no segmentation was produced."
)

var separator = strings.Repeat("=", 40)

// TextWriter renders the human-readable analysis report
type TextWriter struct {
	logger *slog.Logger
}

// NewTextWriter creates a text report writer
func NewTextWriter(logger *slog.Logger) *TextWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextWriter{logger: logger}
}

// WriteFile renders r into filePath, replacing any existing file
func (w *TextWriter) WriteFile(filePath string, r *report.Report) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := w.Write(file, r); err != nil {
		return err
	}

	w.logger.Info("Text report written",
		slog.String("file_path", filePath),
		slog.Bool("empty", r.Empty))
	return file.Close()
}

// Write renders r to out: a header block followed by the four report
// sections, each closed by a separator line
func (w *TextWriter) Write(out io.Writer, r *report.Report) error {
	bw := bufio.NewWriter(out)

	writeHeader(bw, r)

	fmt.Fprint(bw, "1. RFM Segmentation Summary:\n\n")
	if r.Empty {
		fmt.Fprintln(bw, emptyNotice)
	} else {
		writeCustomers(bw, r)
	}
	writeSeparator(bw)

	fmt.Fprint(bw, "2. Average Monetary Value (CLV Proxy) per RFM Segment:\n\n")
	if r.Empty {
		fmt.Fprintln(bw, emptyNotice)
	} else {
		writeSegments(bw, r)
	}
	writeSeparator(bw)

	fmt.Fprint(bw, "3. RFM Segment Distribution:\n\n")
	if r.Empty {
		fmt.Fprintln(bw, emptyNotice)
	} else {
		writeDistribution(bw, r)
	}
	writeSeparator(bw)

	fmt.Fprint(bw, "4. Actionable Insights and Recommendations (RFM-based):\n\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(bw, "- %s:\n%s\n\n", rec.Segment, rec.Text)
	}

	return bw.Flush()
}

func writeHeader(w io.Writer, r *report.Report) {
	fmt.Fprintln(w, reportTitle)
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Generated:      %s\n", formatTime(r.GeneratedAt, timestampLayout))
	if !r.Reference.IsZero() {
		fmt.Fprintf(w, "Reference date: %s\n", formatTime(r.Reference, timestampLayout))
	}
	c := r.Stats.Cleaning
	fmt.Fprintf(w, "Transactions:   %d read, %d without customer, %d cancelled, %d retained\n",
		c.Input, c.MissingCustomer, c.Cancelled, c.Retained)
	fmt.Fprintf(w, "Customers:      %d scored, %d dropped with non-positive monetary\n",
		r.Stats.ScoredCustomers, r.Stats.NonPositiveCustomers)
	if !r.Empty {
		fmt.Fprintf(w, "Total monetary: $%s\n", formatMoney(r.TotalMonetary))
	}
	for _, bins := range r.Bins {
		upper := make([]string, len(bins.Upper))
		for i, u := range bins.Upper {
			upper[i] = u.String()
		}
		fmt.Fprintf(w, "Quintile upper bounds (%s): %s\n", bins.Metric, strings.Join(upper, " | "))
	}

	writeSeparator(w)
}

func writeSeparator(w io.Writer) {
	fmt.Fprintf(w, "\n%s\n\n", separator)
}

func writeCustomers(w io.Writer, r *report.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CustomerID\tRecency (Days)\tFrequency (No. of Orders)\tMonetary ($)\tRFM Score\tSegment")
	for _, c := range r.Customers {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\n",
			c.CustomerID, c.RecencyDays, c.Frequency, formatMoney(c.Monetary), c.RFMScore(), c.Segment)
	}
	tw.Flush()
}

func writeSegments(w io.Writer, r *report.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Segment\tCustomers\tMean Monetary ($)")
	for _, s := range r.Segments {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Segment, s.CustomerCount, formatMoney(s.MeanMonetary))
	}
	tw.Flush()
}

func writeDistribution(w io.Writer, r *report.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Segment\tCustomers")
	for _, d := range r.Distribution {
		fmt.Fprintf(tw, "%s\t%d\n", d.Segment, d.Count)
	}
	tw.Flush()
}
