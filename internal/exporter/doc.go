// Package exporter writes the artifacts of an RFM run.
//
// TextWriter renders the four-section analysis report (customer table, mean
// monetary per segment, segment distribution, recommendations) behind a
// header block with the run's reference date and cleaning statistics.
//
// ChartWriter saves the segment distribution as an xlsx workbook with a
// clustered column chart, one bar per segment in descending count order.
//
// CSVWriter writes the per-customer table with a UTF-8 BOM for Excel;
// WriteParquet and WriteJSON produce the same data for analytics tooling.
//
// Exporter ties them together:
//
//	exp := exporter.NewExporter(paths, logger)
//	artifacts, err := exp.Export(ctx, rep)
package exporter
