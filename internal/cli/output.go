package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Output печатает результаты команд: данные в stdout, сообщения для
// человека в stderr. В JSON режиме таблицы и Text не печатаются.
type Output struct {
	asJSON bool
	data   io.Writer
	msgs   io.Writer
}

// NewOutput создаёт Output поверх os.Stdout и os.Stderr.
func NewOutput(asJSON bool) *Output {
	return NewOutputTo(asJSON, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными потоками данных и сообщений.
func NewOutputTo(asJSON bool, data, msgs io.Writer) *Output {
	return &Output{asJSON: asJSON, data: data, msgs: msgs}
}

// JSONMode возвращает true, если данные печатаются в JSON.
func (o *Output) JSONMode() bool {
	return o.asJSON
}

// Print печатает v в JSON режиме, иначе таблицу.
func (o *Output) Print(headers []string, rows [][]string, v any) {
	if o.asJSON {
		o.JSON(v)
		return
	}
	o.Table(headers, rows)
}

// Table печатает колонки, выровненные по ширине. Под заголовком идёт
// строка дефисов той же длины.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.data, 0, 0, 2, ' ', 0)

	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}

	writeRow(tw, headers)
	writeRow(tw, rule)
	for _, row := range rows {
		writeRow(tw, row)
	}
	tw.Flush()
}

// JSON печатает v с отступом в два пробела.
func (o *Output) JSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(o.msgs, "Error: encode output: %v\n", err)
		return
	}
	o.data.Write(append(b, '\n'))
}

// Text печатает s как есть. В JSON режиме ничего не печатает.
func (o *Output) Text(s string) {
	if !o.asJSON {
		io.WriteString(o.data, s)
	}
}

// Notef печатает сообщение в stderr.
func (o *Output) Notef(format string, args ...any) {
	fmt.Fprintf(o.msgs, format+"\n", args...)
}

func writeRow(w io.Writer, cells []string) {
	io.WriteString(w, strings.Join(cells, "\t")+"\n")
}
