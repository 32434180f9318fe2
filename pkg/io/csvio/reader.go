package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/wdm0006/proxfill/pkg/frame"
)

type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 = ','
	SampleRows int  // for inference; default 100
	Strict     bool // if true, error on short/long records
}

type Reader struct {
	r   *csv.Reader
	opt ReaderOptions
	buf [][]string
}

// Open opens a CSV file and returns a Reader plus the underlying file,
// which the caller closes.
func Open(path string, opt ReaderOptions) (*Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return NewReaderFrom(f, opt), f, nil
}

// NewReaderFrom constructs a Reader from an arbitrary io.Reader (stdin, pipe).
func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	rr := csv.NewReader(r)
	if opt.Delimiter != 0 {
		rr.Comma = opt.Delimiter
	}
	return &Reader{r: rr, opt: opt}
}

// InferSchema reads the header (if present) and samples rows to determine
// column kinds. Sampled rows are buffered and replayed by ReadAll.
func (r *Reader) InferSchema() (frame.Schema, []string, error) {
	rec, err := r.r.Read()
	if err != nil {
		return frame.Schema{}, nil, err
	}
	var names []string
	if r.opt.HasHeader {
		names = make([]string, len(rec))
		for i := range rec {
			names[i] = strings.ToValidUTF8(rec[i], "?")
		}
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\uFEFF")
		}
		rec, err = r.r.Read()
		if err != nil {
			return frame.Schema{}, nil, err
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
	}

	sample := [][]string{append([]string(nil), rec...)}
	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for i := 1; i < max; i++ {
		rr, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return frame.Schema{}, nil, err
		}
		sample = append(sample, append([]string(nil), rr...))
	}

	kinds := inferKinds(sample)
	schema := frame.Schema{Columns: make([]frame.ColumnSchema, len(names))}
	for i := range names {
		schema.Columns[i] = frame.ColumnSchema{Name: names[i], Type: kinds[i], Nullable: true}
	}
	r.buf = append(r.buf, sample...)
	return schema, names, nil
}

// ReadAll loads the rest of the CSV into a Frame. Empty fields become
// nulls.
func (r *Reader) ReadAll(schema frame.Schema) (*frame.Frame, error) {
	f := frame.New(schema)
	appendRec := func(rec []string) error {
		f.AppendNullRow()
		row := f.Rows() - 1
		if r.opt.Strict && len(rec) != len(schema.Columns) {
			return fmt.Errorf("csv record at row %d: need %d fields, got %d", row, len(schema.Columns), len(rec))
		}
		for i, cs := range schema.Columns {
			if i >= len(rec) {
				continue
			}
			val := strings.ToValidUTF8(strings.TrimSpace(rec[i]), "?")
			if val == "" {
				continue
			}
			switch cs.Type {
			case frame.KindFloat:
				if x, err := strconv.ParseFloat(val, 64); err == nil {
					_ = f.SetCell(row, cs.Name, x)
				}
			case frame.KindInt:
				if x, err := strconv.ParseInt(val, 10, 64); err == nil {
					_ = f.SetCell(row, cs.Name, x)
				}
			case frame.KindBool:
				if x, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
					_ = f.SetCell(row, cs.Name, x)
				}
			default:
				_ = f.SetCell(row, cs.Name, val)
			}
		}
		return nil
	}

	for _, rec := range r.buf {
		if err := appendRec(rec); err != nil {
			return nil, err
		}
	}
	r.buf = nil
	for {
		rec, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := appendRec(rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReadFile opens path, infers a schema and loads the whole file.
func ReadFile(path string, opt ReaderOptions) (*frame.Frame, error) {
	r, f, err := Open(path, opt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	schema, _, err := r.InferSchema()
	if err != nil {
		return nil, err
	}
	return r.ReadAll(schema)
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(rows [][]string) []frame.Kind {
	if len(rows) == 0 {
		return nil
	}
	ncol := len(rows[0])
	kinds := make([]frame.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, str := 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			if numre.MatchString(v) {
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
				continue
			}
			switch strings.ToLower(v) {
			case "true", "false":
				boolean++
			default:
				str++
			}
		}
		switch {
		case str == 0 && num == 0 && boolean > 0:
			kinds[c] = frame.KindBool
		case str == 0 && boolean == 0 && num > 0 && integer == num:
			kinds[c] = frame.KindInt
		case str == 0 && boolean == 0 && num > 0:
			kinds[c] = frame.KindFloat
		default:
			kinds[c] = frame.KindString
		}
	}
	return kinds
}
