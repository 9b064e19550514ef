package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/flavioaiello/resource-stubifier/pkg/config"
	"github.com/flavioaiello/resource-stubifier/pkg/report"
)

func printRecord(w io.Writer, record report.Record, format config.OutputFormat) error {
	switch format {
	case config.OutputJSON:
		out, err := record.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	case config.OutputYAML:
		out, err := record.ToYAML()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, out)
		return err
	default:
		return printTable(w, record)
	}
}

func printTable(w io.Writer, record report.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tPARENTS\tREPLACED\tPRESERVED\tCHECKED")
	for _, t := range record.Types {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
			t.Name, joinOrDash(t.Parents), joinOrDash(t.Replaced), joinOrDash(t.Preserved), t.Checked)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d discovered, %d skipped, %d types, %d methods replaced\n",
		record.Discovered, len(record.Skipped), len(record.Types), record.ReplacedCount())
	return err
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
