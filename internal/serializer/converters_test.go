package serializer

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"
)

func TestConvertDenseFlattensRowMajor(t *testing.T) {
	registry := NewRegistry()

	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	got, err := registry.Convert(m)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	want := []float64{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected row-major flattening %v, got %v", want, got)
	}
}

func TestConvertDenseByValue(t *testing.T) {
	registry := NewRegistry()

	m := *mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	got, err := registry.Convert(m)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if want := []float64{1, 2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestConvertVecDenseByValue(t *testing.T) {
	registry := NewRegistry()

	vec := *mat.NewVecDense(2, []float64{5, 6})
	got, err := registry.Convert(vec)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if want := []float64{5, 6}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestConvertVecDense(t *testing.T) {
	registry := NewRegistry()

	got, err := registry.Convert(mat.NewVecDense(3, []float64{1, 2, 3}))
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if want := []float64{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestConvertTimeNormalizesToUTC(t *testing.T) {
	registry := NewRegistry()

	zone := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2023, 12, 18, 13, 0, 0, 0, zone)

	got, err := registry.Convert(ts)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if got != "2023-12-18T10:00:00Z" {
		t.Fatalf("expected UTC-normalized timestamp, got %v", got)
	}
}

func TestConvertFramePreservesRowsAndColumns(t *testing.T) {
	registry := NewRegistry()

	frame := dataframe.New(
		series.New([]int{1, 2}, series.Int, "a"),
		series.New([]int{3, 4}, series.Int, "b"),
	)

	got, err := registry.Convert(frame)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	want := []any{
		map[string]any{"a": 1, "b": 3},
		map[string]any{"a": 2, "b": 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestConvertFrameMixedCellTypes(t *testing.T) {
	registry := NewRegistry()

	frame := dataframe.New(
		series.New([]string{"x", "y"}, series.String, "name"),
		series.New([]float64{1.5, 2.5}, series.Float, "score"),
	)

	got, err := registry.Convert(frame)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	rows := got.([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0].(map[string]any)
	if first["name"] != "x" || first["score"] != 1.5 {
		t.Fatalf("unexpected first row: %v", first)
	}
}

func TestConvertNumber(t *testing.T) {
	registry := NewRegistry()

	got, err := registry.Convert(json.Number("42.42"))
	if err != nil || got != 42.42 {
		t.Fatalf("expected 42.42, got %v, %v", got, err)
	}

	got, err = registry.Convert(json.Number("7"))
	if err != nil || got != int64(7) {
		t.Fatalf("expected int64(7), got %v, %v", got, err)
	}

	if _, err := registry.Convert(json.Number("not-a-number")); err == nil {
		t.Fatalf("expected error for malformed number")
	}
}

func TestMarshalMixedPayload(t *testing.T) {
	registry := NewRegistry()

	payload := map[string]any{
		"array":     mat.NewDense(1, 3, []float64{1, 2, 3}),
		"number":    json.Number("42.42"),
		"timestamp": time.Date(2023, 12, 18, 10, 0, 0, 0, time.UTC),
	}
	body, err := registry.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var decoded struct {
		Array     []float64 `json:"array"`
		Number    float64   `json:"number"`
		Timestamp string    `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !reflect.DeepEqual(decoded.Array, []float64{1, 2, 3}) {
		t.Fatalf("unexpected array: %v", decoded.Array)
	}
	if decoded.Number != 42.42 {
		t.Fatalf("unexpected number: %v", decoded.Number)
	}
	if decoded.Timestamp != "2023-12-18T10:00:00Z" {
		t.Fatalf("unexpected timestamp: %s", decoded.Timestamp)
	}
}
