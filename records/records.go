// Package records loads bond descriptions from ';'-delimited text files.
//
// The first line of every file is a header and is always discarded. Each
// following non-blank line carries, in order:
//
//	id;name;faceValue;termYears;couponRate
package records

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/meenmo/bondval/logging"
)

const (
	// Delimiter separates fields on a line. Quoting is not supported.
	Delimiter = ";"
	// FieldCount is the number of fields every data line must carry.
	FieldCount = 5
	// MaxLineLength bounds a single input line, in bytes.
	MaxLineLength = 1 << 20
)

// Field names, used in ParseError.
const (
	FieldID         = "id"
	FieldName       = "name"
	FieldFaceValue  = "faceValue"
	FieldTermYears  = "termYears"
	FieldCouponRate = "couponRate"
)

var (
	// ErrSourceUnavailable wraps any failure to open or read the input.
	ErrSourceUnavailable = errors.New("bond source unavailable")
	// ErrSourceRead is returned when an opened source fails partway through,
	// e.g. a line longer than MaxLineLength.
	ErrSourceRead = errors.New("bond source read failed")
	// ErrFieldCount is the cause of a ParseError for a short or long line.
	ErrFieldCount = errors.New("wrong number of fields")
)

// BondRecord is one row of input. It is not modified after loading.
type BondRecord struct {
	ID         int
	Name       string
	FaceValue  decimal.Decimal
	TermYears  int
	CouponRate float64
	// Line is the 1-based line number in the source.
	Line int
}

// ErrorPolicy decides what happens after a bad line.
type ErrorPolicy string

const (
	// ErrorPolicyAbort stops at the first bad line.
	ErrorPolicyAbort ErrorPolicy = "abort"
	// ErrorPolicySkip records the error and moves on.
	ErrorPolicySkip ErrorPolicy = "skip"
)

// ParseError identifies a line that could not be turned into a BondRecord.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %s=%q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadResult is the outcome of reading a whole source.
type LoadResult struct {
	Records []BondRecord
	// Errors is only populated under ErrorPolicySkip.
	Errors []*ParseError
	// Lines counts every line read, header included.
	Lines int
}

type loader struct {
	policy ErrorPolicy
	log    logrus.FieldLogger
}

// Option configures Load and Parse.
type Option func(*loader)

// WithErrorPolicy sets the bad-line policy. Defaults to ErrorPolicyAbort.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(l *loader) {
		if p != "" {
			l.policy = p
		}
	}
}

// WithLogger attaches a logger for per-line diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *loader) {
		if log != nil {
			l.log = log
		}
	}
}

func newLoader(opts []Option) *loader {
	l := &loader{policy: ErrorPolicyAbort, log: logging.Discard()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads path. A file that cannot be opened yields ErrSourceUnavailable,
// so callers can tell "no bonds" from "no file".
func Load(path string, opts ...Option) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return &LoadResult{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return Parse(f, opts...)
}

// Parse reads records from r. Under ErrorPolicyAbort the first *ParseError is
// returned together with the records read before it.
func Parse(r io.Reader, opts ...Option) (*LoadResult, error) {
	l := newLoader(opts)
	res := &LoadResult{Records: []BondRecord{}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	for scanner.Scan() {
		res.Lines++
		if res.Lines == 1 {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, perr := parseLine(line, res.Lines)
		if perr != nil {
			l.log.WithFields(logrus.Fields{"line": perr.Line, "field": perr.Field}).Warn(perr.Error())
			if l.policy != ErrorPolicySkip {
				return res, perr
			}
			res.Errors = append(res.Errors, perr)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("%w: after line %d: %w", ErrSourceRead, res.Lines, err)
	}

	l.log.WithFields(logrus.Fields{
		"records": len(res.Records),
		"errors":  len(res.Errors),
		"lines":   res.Lines,
	}).Debug("bond records loaded")
	return res, nil
}

func parseLine(line string, lineNo int) (BondRecord, *ParseError) {
	fields := strings.Split(line, Delimiter)
	// A terminating ';' does not open another field.
	if len(fields) > 1 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) != FieldCount {
		return BondRecord{}, &ParseError{
			Line: lineNo,
			Err:  fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), FieldCount),
		}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	rec := BondRecord{Name: fields[1], Line: lineNo}
	var err error

	if rec.ID, err = strconv.Atoi(fields[0]); err != nil {
		return BondRecord{}, &ParseError{Line: lineNo, Field: FieldID, Value: fields[0], Err: err}
	}
	if rec.FaceValue, err = decimal.NewFromString(normalizeDecimal(fields[2])); err != nil {
		return BondRecord{}, &ParseError{Line: lineNo, Field: FieldFaceValue, Value: fields[2], Err: err}
	}
	if rec.TermYears, err = strconv.Atoi(fields[3]); err != nil {
		return BondRecord{}, &ParseError{Line: lineNo, Field: FieldTermYears, Value: fields[3], Err: err}
	}
	if rec.CouponRate, err = strconv.ParseFloat(normalizeDecimal(fields[4]), 64); err != nil {
		return BondRecord{}, &ParseError{Line: lineNo, Field: FieldCouponRate, Value: fields[4], Err: err}
	}
	return rec, nil
}

// normalizeDecimal accepts a decimal comma ("0,05") when no dot is present.
func normalizeDecimal(s string) string {
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

// FaceFloat returns the face value as a float64 for the pricing math.
func (r BondRecord) FaceFloat() float64 {
	f, _ := r.FaceValue.Float64()
	return f
}
