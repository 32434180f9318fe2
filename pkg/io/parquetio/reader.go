package parquetio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	parquet "github.com/segmentio/parquet-go"

	"github.com/wdm0006/proxfill/pkg/frame"
)

type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[map[string]any]
	schema frame.Schema
}

// OpenReader opens a Parquet file and infers a frame schema from its
// first sampleRows rows (default 100).
func OpenReader(path string, sampleRows int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := parquet.NewGenericReader[map[string]any](f)
	if sampleRows <= 0 {
		sampleRows = 100
	}
	rows := make([]map[string]any, sampleRows)
	for i := range rows {
		rows[i] = map[string]any{}
	}
	n, err := r.Read(rows)
	if err != nil && !strings.Contains(err.Error(), "EOF") {
		_ = r.Close()
		_ = f.Close()
		return nil, err
	}
	schema := inferSchema(rows[:n])
	// segmentio readers cannot unread; reopen from the start
	if err := r.Close(); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Reader{file: f, reader: parquet.NewGenericReader[map[string]any](f), schema: schema}, nil
}

func (r *Reader) Close() error {
	_ = r.reader.Close()
	return r.file.Close()
}

func (r *Reader) Schema() frame.Schema { return r.schema }

func (r *Reader) ReadAll() (*frame.Frame, error) {
	f := frame.New(r.schema)
	buf := make([]map[string]any, 1024)
	for {
		for i := range buf {
			buf[i] = map[string]any{}
		}
		n, err := r.reader.Read(buf)
		for i := 0; i < n; i++ {
			f.AppendNullRow()
			setRow(f, f.Rows()-1, buf[i])
		}
		if err != nil {
			if strings.Contains(err.Error(), "EOF") {
				break
			}
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return f, nil
}

// ReadFile loads a whole Parquet file into a Frame.
func ReadFile(path string) (*frame.Frame, error) {
	r, err := OpenReader(path, 0)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.ReadAll()
}

func inferSchema(rows []map[string]any) frame.Schema {
	keysSet := map[string]struct{}{}
	var keys []string
	for _, m := range rows {
		for k := range m {
			if _, seen := keysSet[k]; !seen {
				keysSet[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	kinds := make([]frame.Kind, len(keys))
	for i, k := range keys {
		nNum, nInt, nBool, nStr := 0, 0, 0, 0
		for _, m := range rows {
			v, ok := m[k]
			if !ok || v == nil {
				continue
			}
			switch t := v.(type) {
			case float64:
				nNum++
				if float64(int64(t)) == t {
					nInt++
				}
			case float32:
				nNum++
			case int, int32, int64:
				nNum++
				nInt++
			case bool:
				nBool++
			case string, []byte:
				nStr++
			default:
				nStr++
			}
		}
		switch {
		case nBool > 0 && nNum == 0 && nStr == 0:
			kinds[i] = frame.KindBool
		case nNum > 0 && nStr == 0 && nBool == 0:
			if nInt == nNum {
				kinds[i] = frame.KindInt
			} else {
				kinds[i] = frame.KindFloat
			}
		default:
			kinds[i] = frame.KindString
		}
	}
	schema := frame.Schema{Columns: make([]frame.ColumnSchema, len(keys))}
	for i, k := range keys {
		schema.Columns[i] = frame.ColumnSchema{Name: k, Type: kinds[i], Nullable: true}
	}
	return schema
}

func setRow(f *frame.Frame, row int, m map[string]any) {
	for _, cs := range f.Schema().Columns {
		v, ok := m[cs.Name]
		if !ok || v == nil {
			continue
		}
		switch cs.Type {
		case frame.KindFloat:
			switch t := v.(type) {
			case float64:
				_ = f.SetCell(row, cs.Name, t)
			case float32:
				_ = f.SetCell(row, cs.Name, float64(t))
			case int32:
				_ = f.SetCell(row, cs.Name, float64(t))
			case int64:
				_ = f.SetCell(row, cs.Name, float64(t))
			}
		case frame.KindInt:
			switch t := v.(type) {
			case int64:
				_ = f.SetCell(row, cs.Name, t)
			case int32:
				_ = f.SetCell(row, cs.Name, int64(t))
			case float64:
				_ = f.SetCell(row, cs.Name, int64(t))
			}
		case frame.KindBool:
			switch t := v.(type) {
			case bool:
				_ = f.SetCell(row, cs.Name, t)
			case string:
				if x, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(t))); err == nil {
					_ = f.SetCell(row, cs.Name, x)
				}
			}
		default:
			switch t := v.(type) {
			case string:
				_ = f.SetCell(row, cs.Name, t)
			case []byte:
				_ = f.SetCell(row, cs.Name, string(t))
			default:
				_ = f.SetCell(row, cs.Name, fmt.Sprintf("%v", t))
			}
		}
	}
}
