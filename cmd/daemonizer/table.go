package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableSpec describes a rounded table. Short rows are padded with empty
// cells; an empty footer is omitted.
type tableSpec struct {
	headers []string
	rows    [][]string
	aligns  []columnAlignment
	footer  []string
}

func (s tableSpec) render() string {
	columns := len(s.headers)
	if columns == 0 {
		return ""
	}

	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault

	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.AppendHeader(padRow(s.headers, columns))
	for _, row := range s.rows {
		tw.AppendRow(padRow(row, columns))
	}
	if len(s.footer) > 0 {
		tw.AppendFooter(padRow(s.footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(s.aligns) && s.aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func padRow(cells []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range columns {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}
