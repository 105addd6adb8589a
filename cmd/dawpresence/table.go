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

const listColumnWidth = 60

// renderTable draws rows under headers with the rounded style, wrapping cells
// wider than listColumnWidth. Short rows are padded with empty cells.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return buildTable(headers, rows, aligns, listColumnWidth)
}

func buildTable(headers []string, rows [][]string, aligns []columnAlignment, widthMax int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    widthMax,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render() + "\n"
}

// renderKeyValues draws a two-column property table. Values are never wrapped
// so paths stay copyable.
func renderKeyValues(pairs [][2]string) string {
	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, []string{pair[0], pair[1]})
	}
	return buildTable([]string{"Field", "Value"}, rows, nil, 0)
}

func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range width {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
