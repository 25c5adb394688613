package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pevans/headlines"
	"github.com/pevans/headlines/catalog"
)

const (
	maxTitleWidth = 70
	maxTextWidth  = 60
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// printSummaries prints one row per completed run.
func printSummaries(w io.Writer, summaries []headlines.RunSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs completed.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Publisher", "Date", "Records", "Fetch Failures", "No Content", "Key"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Publisher, s.Date, s.Records, s.FetchFailures, s.ExtractionMisses, s.Key})
	}
	t.Render()
}

// printPartitions prints the catalog listing.
func printPartitions(w io.Writer, partitions []catalog.Partition) {
	if len(partitions) == 0 {
		fmt.Fprintln(w, "No partitions recorded.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Publisher", "Date", "Rows", "Enriched", "Run ID", "Created"})
	for _, p := range partitions {
		t.AppendRow(table.Row{p.Publisher, p.Date, p.Rows, p.Enriched, p.RunID.String(), p.CreatedAt.Local().Format("2006-01-02 15:04")})
	}
	t.AppendFooter(table.Row{"", "Total", len(partitions)})
	t.Render()
}

// printRecords prints a stored headline table, truncating long text.
func printRecords(w io.Writer, result *headlines.ResultTable) {
	if result.Len() == 0 {
		fmt.Fprintln(w, "No headlines in partition.")
		return
	}

	t := newTable(w)
	header := table.Row{"Category", "Headline", "Link"}
	if result.Enriched {
		header = append(header, "Text")
	}
	t.AppendHeader(header)

	for _, r := range result.Records {
		row := table.Row{r.Category, text.Trim(r.Headline, maxTitleWidth), r.Link}
		if result.Enriched {
			row = append(row, text.Trim(strings.ReplaceAll(r.FullText, "\n", " "), maxTextWidth))
		}
		t.AppendRow(row)
	}
	t.Render()
}
