package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/pkg/log"
)

// DefaultIndex is the identifier column of the tournament files.
const DefaultIndex = "id"

// Prefixes of the columns narrowed to Float16 by default.
var defaultFloatPrefixes = []string{"feature", "target"}

// rows per Arrow record; cancellation is checked between records
const chunkRows = 4096

type loadConfig struct {
	index         string
	floatPrefixes []string
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithIndex sets the identifier column. The default is "id".
func WithIndex(name string) LoadOption {
	return func(c *loadConfig) { c.index = name }
}

// WithFloatPrefixes replaces the column name prefixes that select Float16
// columns. The default is "feature" and "target".
func WithFloatPrefixes(prefixes ...string) LoadOption {
	return func(c *loadConfig) { c.floatPrefixes = prefixes }
}

// Load reads a CSV file with a header row into a Table.
//
// Columns whose name begins with "feature" or "target" are parsed as
// Float16, every other column is kept as String. Empty numeric cells load
// as null and read back as NaN. The index column must exist and hold
// unique, non-empty values.
//
// Open and read failures are IOError kind; malformed content is ParseError
// kind.
func Load(path string, opts ...LoadOption) (*Table, error) {
	return LoadContext(context.Background(), path, opts...)
}

// LoadContext is Load with cancellation.
func LoadContext(ctx context.Context, path string, opts ...LoadOption) (t *Table, err error) {
	cfg := loadConfig{index: DefaultIndex, floatPrefixes: defaultFloatPrefixes}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := log.GetLoggerWithName("dataset.loader").With(log.PathKey, path)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", path, cerr)
		}
	}()

	t, err = readTable(ctx, path, f, cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, t.Len(),
		log.ColumnsKey, len(t.fields),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return t, nil
}

func readTable(ctx context.Context, path string, src io.Reader, cfg loadConfig) (*Table, error) {
	br := bufio.NewReader(src)
	headerLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errors.NewIOError("read", path, err)
	}
	if strings.TrimSpace(headerLine) == "" {
		return nil, errors.NewParseError(path, 1, "", "missing header row", errors.ErrUnexpectedEOF)
	}

	// tolerate a UTF-8 byte order mark
	headerLine = strings.TrimPrefix(headerLine, "\ufeff")
	schema, indexCol, err := headerSchema(path, headerLine, cfg)
	if err != nil {
		return nil, err
	}

	r := arrowcsv.NewReader(io.MultiReader(strings.NewReader(headerLine), br), schema,
		arrowcsv.WithHeader(true),
		arrowcsv.WithChunk(chunkRows),
		arrowcsv.WithNullReader(false, ""),
		arrowcsv.WithAllocator(pool),
	)
	defer r.Release()

	nCols := len(schema.Fields())
	chunks := make([][]arrow.Array, nCols)
	defer func() {
		for _, cs := range chunks {
			for _, c := range cs {
				c.Release()
			}
		}
	}()

	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
		// a chunk that failed to parse may still be yielded
		if !r.Next() || r.Err() != nil {
			break
		}
		rec := r.Record()
		for j := 0; j < nCols; j++ {
			col := rec.Column(j)
			col.Retain()
			chunks[j] = append(chunks[j], col)
		}
		rows += int(rec.NumRows())
	}
	if err := r.Err(); err != nil {
		return nil, readError(path, rows, err)
	}

	columns := make([]arrow.Array, nCols)
	for j, field := range schema.Fields() {
		col, err := concat(field.Type, chunks[j])
		if err != nil {
			for _, c := range columns[:j] {
				c.Release()
			}
			return nil, errors.Wrapf(err, "load %s: column %s", path, field.Name)
		}
		columns[j] = col
	}

	ids := make([]string, rows)
	idArr := columns[indexCol].(*array.String)
	for i := range ids {
		ids[i] = idArr.Value(i)
	}
	rowOf, err := indexRows(ids)
	if err != nil {
		for _, c := range columns {
			c.Release()
		}
		var ie *indexError
		if errors.As(err, &ie) {
			// one record per line after the header
			return nil, errors.NewParseError(path, ie.row+2, cfg.index, ie.reason, nil)
		}
		return nil, err
	}

	t := &Table{
		index:  cfg.index,
		byName: make(map[string]int, nCols),
		ids:    ids,
		rowOf:  rowOf,
		rows:   rows,
	}
	t.add(schema.Field(indexCol), columns[indexCol])
	for j, field := range schema.Fields() {
		if j == indexCol {
			continue
		}
		if a, ok := columns[j].(*array.Float16); ok {
			warnOverflow(field.Name, a)
		}
		t.add(field, columns[j])
	}
	return t, nil
}

// headerSchema parses the header line and types every column: Float16 for
// the float prefixes, String otherwise.
func headerSchema(path, line string, cfg loadConfig) (*arrow.Schema, int, error) {
	header, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, -1, csvError(path, err)
	}
	indexCol := -1
	seen := make(map[string]bool, len(header))
	fields := make([]arrow.Field, len(header))
	for j, name := range header {
		if seen[name] {
			return nil, -1, errors.NewParseError(path, 1, name, "duplicate column name", nil)
		}
		seen[name] = true
		fields[j] = arrow.Field{Name: name, Type: kindTypes[String]}
		if name == cfg.index {
			indexCol = j
			continue
		}
		if hasAnyPrefix(name, cfg.floatPrefixes) {
			fields[j] = arrow.Field{Name: name, Type: kindTypes[Float16], Nullable: true}
		}
	}
	if indexCol < 0 {
		return nil, -1, errors.NewParseError(path, 1, cfg.index, "index column not found", nil)
	}
	return arrow.NewSchema(fields, nil), indexCol, nil
}

// concat joins the record chunks of one column.
func concat(dt arrow.DataType, chunks []arrow.Array) (arrow.Array, error) {
	switch len(chunks) {
	case 0:
		b := array.NewBuilder(pool, dt)
		defer b.Release()
		return b.NewArray(), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	default:
		return array.Concatenate(chunks, pool)
	}
}

// warnOverflow reports values that became infinite when narrowed to half
// precision (|v| > 65504).
func warnOverflow(name string, a *array.Float16) {
	for i := 0; i < a.Len(); i++ {
		if !a.IsNull(i) && math.IsInf(float64(a.Value(i).Float32()), 0) {
			errors.Warn(errors.NewDataConversionWarning("float64", "float16", "column "+name+" overflows float16"))
			return
		}
	}
}

// readError classifies a failure of the Arrow CSV reader. rows is the
// number of rows decoded before the failing record.
func readError(path string, rows int, err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		first := rows + 2
		return errors.NewParseError(path, 0, "",
			fmt.Sprintf("invalid number %s in lines %d-%d", strconv.Quote(numErr.Num), first, first+chunkRows-1), err)
	}
	if errors.Is(err, arrowcsv.ErrMismatchFields) {
		return errors.NewParseError(path, 0, "", "malformed record", err)
	}
	return csvError(path, err)
}

func csvError(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewParseError(path, pe.Line, "", "malformed record", pe.Err)
	}
	return errors.NewIOError("read", path, err)
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
