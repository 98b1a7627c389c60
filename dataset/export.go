package dataset

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/pkg/log"
)

// WriteColumn writes the identifiers and one numeric column of t to path as
// a two-column CSV with header "id,<name>", one row per table row in table
// order. The header says "id" whatever the table's index column is called.
// An existing file is overwritten. Floats use the shortest representation
// that round-trips and NaN is written as an empty cell.
func WriteColumn(path string, t *Table, name string) (err error) {
	values, err := t.Float64s(name)
	if err != nil {
		return errors.Wrapf(err, "WriteColumn %s", strconv.Quote(name))
	}
	start := time.Now()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: DefaultIndex, Type: arrow.BinaryTypes.String},
		{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	ids := newStringArray(t.IDs())
	defer ids.Release()
	b := array.NewFloat64Builder(pool)
	defer b.Release()
	b.Reserve(len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	col := b.NewArray()
	defer col.Release()

	rec := array.NewRecord(schema, []arrow.Array{ids, col}, int64(t.Len()))
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", path, cerr)
		}
	}()

	w := arrowcsv.NewWriter(f, schema, arrowcsv.WithHeader(true), arrowcsv.WithNullWriter(""))
	if err := w.Write(rec); err != nil {
		return errors.NewIOError("write", path, err)
	}
	if err := w.Flush(); err != nil {
		return errors.NewIOError("flush", path, err)
	}

	log.GetLoggerWithName("dataset.exporter").Debug("Column exported",
		log.OperationKey, log.OperationExport,
		log.PathKey, path,
		log.SamplesKey, t.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}
