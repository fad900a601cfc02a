// Package table prints simple tabular data to stdout. It backs the
// table output format of the show-config and list-languages
// commands.
package table

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/replit/scaninit/internal/util"
)

// Table is a list of header cells and rows of the same length.
// Construct one with New or FromStructs, fill it with AddRow, and
// output it with Print.
type Table struct {
	headers []string
	rows    [][]string
}

// New creates an empty table with the given headers, which must be
// unique.
func New(headers ...string) Table {
	seen := map[string]bool{}
	for _, header := range headers {
		if seen[header] {
			util.Panicf("duplicate table header: %s", header)
		}
		seen[header] = true
	}
	return Table{headers: headers}
}

// FromStructs creates a table from a slice of structs. Each field
// needs a "pretty" tag naming its column and must be a string or a
// []string; slices are joined with commas. Columns that are empty in
// every row are left out.
func FromStructs(structs interface{}) Table {
	sv := reflect.ValueOf(structs)
	st := reflect.TypeOf(structs).Elem()

	indices := []int{}
	headers := []string{}
	for i := 0; i < st.NumField(); i++ {
		for j := 0; j < sv.Len(); j++ {
			if sv.Index(j).Field(i).Len() > 0 {
				indices = append(indices, i)
				headers = append(headers, st.Field(i).Tag.Get("pretty"))
				break
			}
		}
	}

	t := New(headers...)
	for j := 0; j < sv.Len(); j++ {
		row := make([]string, 0, len(indices))
		for _, i := range indices {
			field := sv.Index(j).Field(i)
			switch field.Kind() {
			case reflect.String:
				row = append(row, field.String())
			case reflect.Slice:
				parts := make([]string, field.Len())
				for k := range parts {
					parts[k] = field.Index(k).String()
				}
				row = append(row, strings.Join(parts, ", "))
			default:
				util.Panicf("table.FromStructs: unsupported field type %s", field.Kind())
			}
		}
		t.AddRow(row...)
	}
	return t
}

// AddRow appends a row. It panics if the row does not have one cell
// per header.
func (t *Table) AddRow(row ...string) {
	if len(row) != len(t.headers) {
		util.Panicf(
			"wrong number of columns in table row (%d != %d)",
			len(row), len(t.headers),
		)
	}
	t.rows = append(t.rows, row)
}

// SortBy sorts the rows by the column with the given header, which
// must exist.
func (t *Table) SortBy(header string) {
	index := -1
	for i := range t.headers {
		if t.headers[i] == header {
			index = i
			break
		}
	}
	if index < 0 {
		util.Panicf("no such header: %s", header)
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		return t.rows[i][index] < t.rows[j][index]
	})
}

// Render lays out the table with aligned columns and returns it
// together with the width of its widest line.
func (t *Table) Render() (string, int) {
	widths := make([]int, len(t.headers))
	for j := range t.headers {
		widths[j] = len([]rune(t.headers[j]))
	}
	for _, row := range t.rows {
		for j, cell := range row {
			if n := len([]rune(cell)); n > widths[j] {
				widths[j] = n
			}
		}
	}

	pad := func(cells []string) string {
		fields := make([]string, len(cells))
		for j, cell := range cells {
			fields[j] = cell + strings.Repeat(" ", widths[j]-len([]rune(cell)))
		}
		return strings.TrimRight(strings.Join(fields, "   "), " ")
	}

	rules := make([]string, len(widths))
	for j, w := range widths {
		rules[j] = strings.Repeat("-", w)
	}
	lines := []string{pad(t.headers), pad(rules)}
	for _, row := range t.rows {
		lines = append(lines, pad(row))
	}
	return strings.Join(lines, "\n") + "\n", len([]rune(lines[1]))
}

// Print writes the table to stdout. If it is wider than the terminal
// and less is installed, it is shown through "less -S" instead.
func (t *Table) Print() {
	text, width := t.Render()
	printOrPage(text, width)
}

func printOrPage(text string, width int) {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < termWidth {
		fmt.Print(text)
		return
	}

	less, err := exec.LookPath("less")
	if err != nil {
		fmt.Print(text)
		return
	}

	util.ProgressMsg("less -S")

	cmd := exec.Cmd{
		Path: less,
		Args: []string{"less", "-S"},
		// Containers often lack a locale, so tell less the
		// charset directly.
		Env:    append(os.Environ(), "LESSCHARSET=utf-8"),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		util.Die("connecting pipe to pager stdin: %s", err)
	}
	if err := cmd.Start(); err != nil {
		util.Die("running pager: %s", err)
	}
	if _, err := io.WriteString(stdin, text); err != nil {
		util.Die("writing to pager: %s", err)
	}
	if err := stdin.Close(); err != nil {
		util.Die("closing pipe to pager stdin: %s", err)
	}
	if err := cmd.Wait(); err != nil {
		util.Die("running pager: %s", err)
	}
}
