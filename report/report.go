// Package report renders loaded bonds and their valuations.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/bondval/records"
	"github.com/meenmo/bondval/utils"
	"github.com/meenmo/bondval/valuation"
)

// Format selects the rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat maps a configuration string onto a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "", "text":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// RuleWidth is the width of the dashed separator between table sections.
const RuleWidth = 50

// InvariantError is returned when records and results are not aligned.
type InvariantError struct {
	Records int
	Results int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("report: %d records but %d results", e.Records, e.Results)
}

// Printer writes reports to an io.Writer.
type Printer struct {
	w        io.Writer
	format   Format
	decimals int
	printer  *message.Printer
}

// Option configures a Printer.
type Option func(*Printer)

// WithFormat selects table, json or yaml output.
func WithFormat(f Format) Option {
	return func(p *Printer) {
		if f != "" {
			p.format = f
		}
	}
}

// WithPriceDecimals sets the number of decimals printed for prices in tables.
func WithPriceDecimals(n int) Option {
	return func(p *Printer) {
		if n >= 0 {
			p.decimals = n
		}
	}
}

// WithLocale formats table numbers for a BCP 47 locale (e.g. "pt-BR").
func WithLocale(tag language.Tag) Option {
	return func(p *Printer) {
		p.printer = message.NewPrinter(tag)
	}
}

// NewPrinter returns a table printer unless configured otherwise.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w, format: FormatTable, decimals: 4}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Print writes recs and their results. Nothing is written if the two slices
// differ in length.
func (p *Printer) Print(recs []records.BondRecord, results []valuation.Result) error {
	if len(recs) != len(results) {
		return &InvariantError{Records: len(recs), Results: len(results)}
	}
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows(recs, results))
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(rows(recs, results)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return p.table(recs, results)
	}
}

func (p *Printer) table(recs []records.BondRecord, results []valuation.Result) error {
	var b strings.Builder
	rule := strings.Repeat("-", RuleWidth)

	b.WriteString(rule + "\n")
	b.WriteString("id\tname\t  face_value\tterm\tcoupon_rate\t\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.FaceValue.String(), r.TermYears, p.rate(r.CouponRate))
	}
	b.WriteString(rule + "\n")

	for i, r := range recs {
		res := results[i]
		if res.Err != nil {
			fmt.Fprintf(&b, "Value after computing bond %s: error: %v\n", r.Name, res.Err)
			continue
		}
		fmt.Fprintf(&b, "Value after computing bond %s: %s\n", r.Name, p.price(res.CleanPrice))
	}
	b.WriteString(rule + "\n")

	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) price(v float64) string {
	if p.printer != nil {
		return p.printer.Sprintf("%.*f", p.decimals, v)
	}
	return strconv.FormatFloat(v, 'f', p.decimals, 64)
}

func (p *Printer) rate(v float64) string {
	if p.printer != nil {
		return p.printer.Sprint(v)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type row struct {
	ID           int     `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	FaceValue    string  `json:"face_value" yaml:"face_value"`
	TermYears    int     `json:"term_years" yaml:"term_years"`
	CouponRate   float64 `json:"coupon_rate" yaml:"coupon_rate"`
	CleanPrice   float64 `json:"clean_price" yaml:"clean_price"`
	QuotedClean  float64 `json:"quoted_clean" yaml:"quoted_clean"`
	DirtyPrice   float64 `json:"dirty_price" yaml:"dirty_price"`
	Accrued      float64 `json:"accrued" yaml:"accrued"`
	Yield        float64 `json:"yield" yaml:"yield"`
	IssueDate    string  `json:"issue_date,omitempty" yaml:"issue_date,omitempty"`
	MaturityDate string  `json:"maturity_date,omitempty" yaml:"maturity_date,omitempty"`
	Error        string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func rows(recs []records.BondRecord, results []valuation.Result) []row {
	out := make([]row, 0, len(recs))
	for i, r := range recs {
		res := results[i]
		rw := row{
			ID:         r.ID,
			Name:       r.Name,
			FaceValue:  r.FaceValue.String(),
			TermYears:  r.TermYears,
			CouponRate: r.CouponRate,
		}
		if res.Err != nil {
			rw.Error = res.Err.Error()
		} else {
			rw.CleanPrice = res.CleanPrice
			rw.QuotedClean = res.QuotedClean
			rw.DirtyPrice = res.DirtyPrice
			rw.Accrued = res.AccruedAmount
			rw.Yield = res.Yield
			rw.IssueDate = utils.FormatDate(res.IssueDate)
			rw.MaturityDate = utils.FormatDate(res.MaturityDate)
		}
		out = append(out, rw)
	}
	return out
}
