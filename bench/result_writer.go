package bench

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/squareup/blockexec/errors"
)

type ResultWriter interface {
	Write(summaries []*Summary) error
}

// SimpleLineResultWriter writes one line per benchmark
type SimpleLineResultWriter struct {
	out io.Writer
}

func NewSimpleLineResultWriter(out io.Writer) *SimpleLineResultWriter {
	return &SimpleLineResultWriter{out: out}
}

func (s *SimpleLineResultWriter) Write(summaries []*Summary) error {
	for _, summary := range summaries {
		inputRows, outputRows := summary.Rows()
		_, err := fmt.Fprintf(s.out, "%s: iterations=%d mean=%s min=%s max=%s input_rows=%d output_rows=%d rows_per_sec=%.0f\n",
			summary.Name, len(summary.Iterations), summary.Mean(), summary.Min(), summary.Max(), inputRows, outputRows,
			summary.RowsPerSecond())
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// TableResultWriter renders all benchmarks as a single table
type TableResultWriter struct {
	out io.Writer
}

func NewTableResultWriter(out io.Writer) *TableResultWriter {
	return &TableResultWriter{out: out}
}

func (t *TableResultWriter) Write(summaries []*Summary) error {
	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"benchmark", "iterations", "mean", "min", "max", "input rows", "output rows", "rows/s"})
	table.SetAutoFormatHeaders(false)
	table.SetRowLine(false)
	for _, summary := range summaries {
		inputRows, outputRows := summary.Rows()
		table.Append([]string{
			summary.Name,
			fmt.Sprintf("%d", len(summary.Iterations)),
			summary.Mean().String(),
			summary.Min().String(),
			summary.Max().String(),
			fmt.Sprintf("%d", inputRows),
			fmt.Sprintf("%d", outputRows),
			fmt.Sprintf("%.0f", summary.RowsPerSecond()),
		})
	}
	table.Render()
	return nil
}

// writeRows renders rows as a table, nulls as NULL
func writeRows(out io.Writer, columns []string, rows [][]interface{}) {
	table := tablewriter.NewWriter(out)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetRowLine(false)
	for _, row := range rows {
		line := make([]string, len(row))
		for i, v := range row {
			switch val := v.(type) {
			case nil:
				line[i] = "NULL"
			case []byte:
				line[i] = string(val)
			default:
				line[i] = fmt.Sprintf("%v", val)
			}
		}
		table.Append(line)
	}
	table.Render()
}
