package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/ablab/errs"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var lang language.Tag = language.English

// Render 定義輸出行為
type Render interface {
	Write(w io.Writer, r *Report) error
}

// 輸出格式名稱
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// RenderFor 依格式名稱取 Render
func RenderFor(format string) (Render, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatTable:
		return &TableRender{}, nil
	case FormatJSON:
		return &JSONRender{}, nil
	case FormatYAML, "yml":
		return &YAMLRender{}, nil
	default:
		return nil, errs.Warnf("unknown output format: %q", format)
	}
}

// Json渲染
type JSONRender struct{}

func (jr *JSONRender) Write(w io.Writer, r *Report) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLRender struct{}

func (yr *YAMLRender) Write(w io.Writer, r *Report) error {
	// 外層陣列維持展開，最內層的一維陣列輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// 表格渲染（終端機）
type TableRender struct{}

func (tr *TableRender) Write(w io.Writer, r *Report) error {
	p := message.NewPrinter(lang)
	head := map[string]string{
		"Client":       r.Client,
		"Run ID":       r.RunID.String(),
		"Target":       r.Target,
		"Distribution": r.Distribution,
		"Created":      r.CreatedAt.Format("2006-01-02 15:04:05 MST"),
	}
	keys := []string{"Client", "Run ID", "Target", "Distribution", "Created"}
	out := fmtTable(fmt.Sprintf("For client %s data follows %s distribution", r.Client, r.Distribution), keys, head)

	rows := make([][]string, 0, len(r.Summary))
	for _, s := range r.Summary {
		rows = append(rows, []string{s.Metric, fmtCell(p, s.Conversion), fmtCell(p, s.Revenue)})
	}
	out += fmtGrid("Summary", []string{"Metric", "Conversion", "Revenue"}, rows)

	rk := make([][]string, 0, len(r.Ranking.Candidates)+len(r.Ranking.Excluded))
	for _, c := range r.Ranking.Candidates {
		rk = append(rk, []string{c.Name, p.Sprintf("%.3f", c.AIC), p.Sprintf("%.3f", c.BIC)})
	}
	for _, e := range r.Ranking.Excluded {
		rk = append(rk, []string{e.Name, "excluded", e.Reason})
	}
	out += fmtGrid("Distribution fit", []string{"Distribution", "AIC", "BIC"}, rk)

	if len(r.Intervals) > 0 {
		iv := make([][]string, 0, len(r.Intervals))
		for _, i := range r.Intervals {
			iv = append(iv, []string{i.Variant, p.Sprintf("%.0f%%", 100*i.Prob), p.Sprintf("[%.4f, %.4f]", i.Low, i.High)})
		}
		out += fmtGrid("Revenue HDI", []string{"Variant", "Prob", "Interval"}, iv)
	}
	for _, warn := range r.Warnings {
		out += "warning: " + warn + "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

func fmtCell(p *message.Printer, v *float64) string {
	if v == nil {
		return "-"
	}
	return p.Sprintf("%.5f", *v)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2
	if extra := runewidth.StringWidth(title) - (maxKeyLen + maxValLen + 1); extra > 0 {
		maxValLen += extra
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

// fmtGrid 多欄表格，欄寬以顯示寬度計算
func fmtGrid(title string, header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	inner := len(widths) - 1
	for _, w := range widths {
		inner += w + 2
	}
	if tw := runewidth.StringWidth(title); tw > inner {
		widths[len(widths)-1] += tw - inner
		inner = tw
	}
	var b strings.Builder
	divider := "+"
	for _, w := range widths {
		divider += strings.Repeat("-", w+2) + "+"
	}
	divider += "\n"
	left := (inner - runewidth.StringWidth(title)) / 2
	b.WriteString("+" + strings.Repeat("-", inner) + "+\n")
	b.WriteString("|" + blank(left) + title + blank(inner-runewidth.StringWidth(title)-left) + "|\n")
	b.WriteString(divider)
	line := func(cells []string) {
		b.WriteString("|")
		for i, c := range cells {
			b.WriteString(" " + c + blank(widths[i]-runewidth.StringWidth(c)) + " |")
		}
		b.WriteString("\n")
	}
	line(header)
	b.WriteString(divider)
	for _, row := range rows {
		line(row)
	}
	b.WriteString(divider)
	return b.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

// styleReadableSequences 沒有子節點是 sequence 或 mapping 的 sequence 改為 flow style
func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		nested := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				nested = true
			}
			styleReadableSequences(c)
		}
		if !nested {
			n.Style = yaml.FlowStyle
		}
	}
}
