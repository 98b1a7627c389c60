// Package dataset holds the columnar table the pipeline works on, together
// with its CSV loader and exporter. Columns are Apache Arrow arrays.
package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numerai/pkg/errors"
)

// pool is the allocator behind every column built by this package.
var pool = memory.NewGoAllocator()

// Kind is the element type of a column.
type Kind int

const (
	// String is the default type of a loaded column.
	String Kind = iota
	// Float16 holds feature and target values at half precision.
	Float16
	// Float64 holds derived columns such as predictions.
	Float64
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Float16:
		return "float16"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// arrow type of each Kind
var kindTypes = map[Kind]arrow.DataType{
	String:  arrow.BinaryTypes.String,
	Float16: arrow.FixedWidthTypes.Float16,
	Float64: arrow.PrimitiveTypes.Float64,
}

func kindOf(dt arrow.DataType) Kind {
	switch dt.ID() {
	case arrow.FLOAT16:
		return Float16
	case arrow.FLOAT64:
		return Float64
	default:
		return String
	}
}

// Table is an ordered set of rows indexed by a unique identifier column.
// Columns are Arrow arrays of equal length; null float cells read as NaN.
type Table struct {
	index   string
	fields  []arrow.Field
	columns []arrow.Array
	byName  map[string]int
	ids     []string
	rowOf   map[string]int
	rows    int
}

// NewTable creates a table whose index column is named index and holds ids.
// Ids must be non-empty and unique.
func NewTable(index string, ids []string) (*Table, error) {
	rowOf, err := indexRows(ids)
	if err != nil {
		return nil, errors.NewValueError("NewTable", fmt.Sprintf("%s: %v", index, err))
	}
	t := &Table{
		index:  index,
		byName: make(map[string]int),
		ids:    ids,
		rowOf:  rowOf,
		rows:   len(ids),
	}
	t.add(arrow.Field{Name: index, Type: arrow.BinaryTypes.String}, newStringArray(ids))
	return t, nil
}

// indexRows maps every id to its row. The error names the first empty or
// repeated id.
func indexRows(ids []string) (map[string]int, error) {
	rowOf := make(map[string]int, len(ids))
	for i, id := range ids {
		if id == "" {
			return nil, &indexError{row: i, reason: "missing index value"}
		}
		if _, dup := rowOf[id]; dup {
			return nil, &indexError{row: i, reason: fmt.Sprintf("duplicate index value %q", id)}
		}
		rowOf[id] = i
	}
	return rowOf, nil
}

type indexError struct {
	row    int
	reason string
}

func (e *indexError) Error() string { return fmt.Sprintf("row %d: %s", e.row, e.reason) }

func (t *Table) add(f arrow.Field, arr arrow.Array) {
	if i, ok := t.byName[f.Name]; ok {
		t.columns[i].Release()
		t.fields[i] = f
		t.columns[i] = arr
		return
	}
	t.byName[f.Name] = len(t.columns)
	t.fields = append(t.fields, f)
	t.columns = append(t.columns, arr)
}

func (t *Table) checkLen(op, name string, n int) error {
	if n != t.rows {
		return errors.NewValueError(op, fmt.Sprintf("column %q has %d values, table has %d rows", name, n, t.rows))
	}
	if name == t.index {
		return errors.NewValueError(op, fmt.Sprintf("column %q is the index", name))
	}
	return nil
}

// AddStrings adds or replaces a String column.
func (t *Table) AddStrings(name string, values []string) error {
	if err := t.checkLen("AddStrings", name, len(values)); err != nil {
		return err
	}
	t.add(arrow.Field{Name: name, Type: kindTypes[String]}, newStringArray(values))
	return nil
}

// AddFloat16 adds or replaces a Float16 column, narrowing values to half
// precision. NaN is stored as null.
func (t *Table) AddFloat16(name string, values []float32) error {
	if err := t.checkLen("AddFloat16", name, len(values)); err != nil {
		return err
	}
	b := array.NewFloat16Builder(pool)
	defer b.Release()
	b.Reserve(len(values))
	for _, v := range values {
		if math.IsNaN(float64(v)) {
			b.AppendNull()
			continue
		}
		b.Append(float16.New(v))
	}
	t.add(arrow.Field{Name: name, Type: kindTypes[Float16], Nullable: true}, b.NewArray())
	return nil
}

// SetFloat64 adds or replaces a derived Float64 column. The values must
// cover every row exactly once.
func (t *Table) SetFloat64(name string, values []float64) error {
	if err := t.checkLen("SetFloat64", name, len(values)); err != nil {
		return err
	}
	b := array.NewFloat64Builder(pool)
	defer b.Release()
	b.AppendValues(values, nil)
	t.add(arrow.Field{Name: name, Type: kindTypes[Float64]}, b.NewArray())
	return nil
}

// Release frees the column buffers. The table must not be used afterwards.
func (t *Table) Release() {
	for _, c := range t.columns {
		c.Release()
	}
	t.columns = nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Index returns the name of the identifier column.
func (t *Table) Index() string { return t.index }

// IDs returns the identifiers in row order.
func (t *Table) IDs() []string { return t.ids }

// Row returns the position of id.
func (t *Table) Row(id string) (int, bool) {
	i, ok := t.rowOf[id]
	return i, ok
}

// Schema returns the Arrow schema of the table, index first.
func (t *Table) Schema() *arrow.Schema {
	return arrow.NewSchema(append([]arrow.Field(nil), t.fields...), nil)
}

// Columns returns the column names in table order, index first.
func (t *Table) Columns() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Kind returns the type of the named column.
func (t *Table) Kind(name string) (Kind, bool) {
	i, ok := t.byName[name]
	if !ok {
		return 0, false
	}
	return kindOf(t.fields[i].Type), true
}

// Column returns the Arrow array of the named column. The array is owned by
// the table.
func (t *Table) Column(name string) (arrow.Array, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

func (t *Table) mustColumn(op, name string) (arrow.Array, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, errors.NewValueError(op, fmt.Sprintf("no column %q", name))
	}
	return c, nil
}

// Strings returns the values of a String column. Null cells are "".
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.mustColumn("Strings", name)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*array.String)
	if !ok {
		return nil, errors.NewValueError("Strings", fmt.Sprintf("column %q is %s", name, kindOf(c.DataType())))
	}
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.Value(i)
	}
	return out, nil
}

// Float64s returns a numeric column widened to float64, null cells as NaN.
// Float64 columns are returned without copying and must not be modified.
func (t *Table) Float64s(name string) ([]float64, error) {
	c, err := t.mustColumn("Float64s", name)
	if err != nil {
		return nil, err
	}
	switch a := c.(type) {
	case *array.Float64:
		return a.Float64Values(), nil
	case *array.Float16:
		out := make([]float64, a.Len())
		for i := range out {
			out[i] = float16At(a, i)
		}
		return out, nil
	default:
		return nil, errors.NewValueError("Float64s", fmt.Sprintf("column %q is %s", name, kindOf(c.DataType())))
	}
}

func float16At(a *array.Float16, i int) float64 {
	if a.IsNull(i) {
		return math.NaN()
	}
	return float64(a.Value(i).Float32())
}

// Matrix packs the named numeric columns into a rows × len(names) matrix.
func (t *Table) Matrix(names []string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, errors.NewValueError("Matrix", "no columns selected")
	}
	if t.rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Matrix")
	}
	m := mat.NewDense(t.rows, len(names), nil)
	raw := m.RawMatrix()
	for j, name := range names {
		c, err := t.mustColumn("Matrix", name)
		if err != nil {
			return nil, err
		}
		switch a := c.(type) {
		case *array.Float16:
			for i := 0; i < t.rows; i++ {
				raw.Data[i*raw.Stride+j] = float16At(a, i)
			}
		case *array.Float64:
			for i, v := range a.Float64Values() {
				raw.Data[i*raw.Stride+j] = v
			}
		default:
			return nil, errors.NewValueError("Matrix", fmt.Sprintf("column %q is %s", name, kindOf(c.DataType())))
		}
	}
	return m, nil
}

// Subset returns a new table holding the given rows, in the given order.
// Column data is copied.
func (t *Table) Subset(rows []int) (*Table, error) {
	subIDs := make([]string, len(rows))
	for k, r := range rows {
		if r < 0 || r >= t.rows {
			return nil, errors.NewValueError("Subset", fmt.Sprintf("row %d out of range [0,%d)", r, t.rows))
		}
		subIDs[k] = t.ids[r]
	}
	sub, err := NewTable(t.index, subIDs)
	if err != nil {
		return nil, err
	}
	for i, f := range t.fields {
		if f.Name == t.index {
			continue
		}
		sub.add(f, take(t.columns[i], rows))
	}
	return sub, nil
}

// take copies the given rows of arr into a new array of the same type.
func take(arr arrow.Array, rows []int) arrow.Array {
	b := array.NewBuilder(pool, arr.DataType())
	defer b.Release()
	b.Reserve(len(rows))
	switch a := arr.(type) {
	case *array.String:
		sb := b.(*array.StringBuilder)
		for _, r := range rows {
			if a.IsNull(r) {
				sb.AppendNull()
			} else {
				sb.Append(a.Value(r))
			}
		}
	case *array.Float16:
		fb := b.(*array.Float16Builder)
		for _, r := range rows {
			if a.IsNull(r) {
				fb.AppendNull()
			} else {
				fb.Append(a.Value(r))
			}
		}
	case *array.Float64:
		fb := b.(*array.Float64Builder)
		for _, r := range rows {
			if a.IsNull(r) {
				fb.AppendNull()
			} else {
				fb.Append(a.Value(r))
			}
		}
	default:
		panic(fmt.Sprintf("dataset: unsupported column type %s", arr.DataType()))
	}
	return b.NewArray()
}

// Filter returns the rows whose String column equals value.
func (t *Table) Filter(name, value string) (*Table, error) {
	values, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	var rows []int
	for i, v := range values {
		if v == value {
			rows = append(rows, i)
		}
	}
	return t.Subset(rows)
}

// Group is the set of rows sharing one label of a grouping column.
type Group struct {
	Label string
	Rows  []int
}

// Groups partitions the rows by the String column name. Groups are sorted by
// label and rows keep table order. Rows with an empty label belong to no
// group.
func (t *Table) Groups(name string) ([]Group, error) {
	values, err := t.Strings(name)
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int)
	var groups []Group
	for i, v := range values {
		if v == "" {
			continue
		}
		g, ok := pos[v]
		if !ok {
			g = len(groups)
			pos[v] = g
			groups = append(groups, Group{Label: v})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].Label < groups[b].Label })
	return groups, nil
}

func newStringArray(values []string) arrow.Array {
	b := array.NewStringBuilder(pool)
	defer b.Release()
	b.AppendValues(values, nil)
	return b.NewArray()
}
