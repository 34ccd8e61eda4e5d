// Package output renders CLI results as tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func Success(format string, a ...interface{}) {
	fmt.Printf("✓ "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "✗ "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	fmt.Printf(format+"\n", a...)
}

// JSON pretty-prints v to stdout.
func JSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows with aligned columns.
type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, 0, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				parts = append(parts, pad(cell, widths[i]))
			}
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(t.headers)

	sep := make([]string, len(t.headers))
	for i := range sep {
		sep[i] = strings.Repeat("-", widths[i])
	}
	printRow(sep)

	for _, row := range t.rows {
		printRow(row)
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
