package serializer

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// builtins returns the converter table every new registry starts from. The
// matrix types are registered in both pointer and value form so a
// dereferenced matrix dispatches the same way.
func (r *Registry) builtins() map[reflect.Type]ConverterFunc {
	return map[reflect.Type]ConverterFunc{
		reflect.TypeOf((*mat.Dense)(nil)):     convertDense,
		reflect.TypeOf(mat.Dense{}):           convertDenseValue,
		reflect.TypeOf((*mat.VecDense)(nil)):  convertVecDense,
		reflect.TypeOf(mat.VecDense{}):        convertVecDenseValue,
		reflect.TypeOf(time.Time{}):           convertTime,
		reflect.TypeOf(json.Number("")):       convertNumber,
		reflect.TypeOf(dataframe.DataFrame{}): r.convertFrame,
	}
}

// convertDense flattens a dense matrix into a row-major number sequence. The
// shape is discarded, so the conversion is lossy for anything but a single
// row or column.
func convertDense(v any) (any, error) {
	m := v.(*mat.Dense)
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out, nil
}

func convertDenseValue(v any) (any, error) {
	m := v.(mat.Dense)
	return convertDense(&m)
}

func convertVecDense(v any) (any, error) {
	vec := v.(*mat.VecDense)
	out := make([]float64, vec.Len())
	for i := range out {
		out[i] = vec.AtVec(i)
	}
	return out, nil
}

func convertVecDenseValue(v any) (any, error) {
	vec := v.(mat.VecDense)
	return convertVecDense(&vec)
}

// convertTime normalizes to UTC before formatting. The original offset is not
// recoverable from the output.
func convertTime(v any) (any, error) {
	return v.(time.Time).UTC().Format(time.RFC3339), nil
}

// convertNumber turns a json.Number into a native number, preferring the
// integer representation when the value is integral.
func convertNumber(v any) (any, error) {
	n := v.(json.Number)
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", n.String(), err)
	}
	return f, nil
}

// convertFrame renders a dataframe as one map per row, preserving row order
// and running every cell value back through the registry.
func (r *Registry) convertFrame(v any) (any, error) {
	df := v.(dataframe.DataFrame)
	if df.Err != nil {
		return nil, fmt.Errorf("dataframe error: %w", df.Err)
	}

	rows := make([]any, 0, df.Nrow())
	for _, record := range df.Maps() {
		row := make(map[string]any, len(record))
		for column, cell := range record {
			converted, err := r.Convert(cell)
			if err != nil {
				return nil, err
			}
			row[column] = converted
		}
		rows = append(rows, row)
	}
	return rows, nil
}
