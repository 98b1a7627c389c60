package dataset

import "strings"

// FeaturePrefix marks the model input columns.
const FeaturePrefix = "feature"

// FeatureNames returns the names of the columns beginning with "feature",
// in table column order.
func FeatureNames(t *Table) []string {
	return ColumnsWithPrefix(t, FeaturePrefix)
}

// ColumnsWithPrefix returns the column names of t that begin with prefix,
// in table column order.
func ColumnsWithPrefix(t *Table, prefix string) []string {
	var names []string
	for _, f := range t.fields {
		if strings.HasPrefix(f.Name, prefix) {
			names = append(names, f.Name)
		}
	}
	return names
}
