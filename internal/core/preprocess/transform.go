// Package preprocess turns feature vectors into the numeric layout consumed by classifiers.
package preprocess

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"rabies-risk-service/internal/core/domain"
)

// NumericScale holds standardization statistics for one numeric attribute.
type NumericScale struct {
	Field string  `json:"field"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// CategoryBlock is the one-hot vocabulary of one categorical attribute.
type CategoryBlock struct {
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
}

// FittedTransform is immutable after Fit. Apply produces the standardized
// numerics followed by one one-hot block per categorical attribute.
type FittedTransform struct {
	Numeric     []NumericScale  `json:"numeric"`
	Categorical []CategoryBlock `json:"categorical"`
}

// Fit computes population mean and standard deviation for numeric attributes
// and the sorted set of observed values for categorical attributes.
func Fit(vectors []domain.FeatureVector) (*FittedTransform, error) {
	if len(vectors) == 0 {
		return nil, domain.TrainingError("preprocess: no training vectors")
	}

	t := &FittedTransform{}
	column := make([]float64, len(vectors))
	for _, f := range domain.Schema {
		if f.IsNumeric() {
			for i, v := range vectors {
				column[i] = v.Numeric(f.Name)
			}
			mean, std := stat.PopMeanStdDev(column, nil)
			// constant column: leave values centred but unscaled
			if std == 0 {
				std = 1
			}
			t.Numeric = append(t.Numeric, NumericScale{Field: f.Name, Mean: mean, Std: std})
			continue
		}

		seen := make(map[string]struct{})
		for _, v := range vectors {
			seen[v.Category(f.Name)] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		t.Categorical = append(t.Categorical, CategoryBlock{Field: f.Name, Categories: cats})
	}

	return t, nil
}

// Width is the length of vectors produced by Apply.
func (t *FittedTransform) Width() int {
	n := len(t.Numeric)
	for _, b := range t.Categorical {
		n += len(b.Categories)
	}
	return n
}

// FeatureNames labels each output column, e.g. "Age" or "PEP=No".
func (t *FittedTransform) FeatureNames() []string {
	names := make([]string, 0, t.Width())
	for _, s := range t.Numeric {
		names = append(names, s.Field)
	}
	for _, b := range t.Categorical {
		for _, c := range b.Categories {
			names = append(names, b.Field+"="+c)
		}
	}
	return names
}

// Apply encodes v. A categorical value absent from the fitted vocabulary
// fails with domain.ErrUnknownCategory.
func (t *FittedTransform) Apply(v domain.FeatureVector) ([]float64, error) {
	out := make([]float64, t.Width())
	i := 0
	for _, s := range t.Numeric {
		out[i] = (v.Numeric(s.Field) - s.Mean) / s.Std
		i++
	}
	for _, b := range t.Categorical {
		value := v.Category(b.Field)
		hit := -1
		for j, c := range b.Categories {
			if c == value {
				hit = j
				break
			}
		}
		if hit < 0 {
			return nil, &domain.UnknownCategoryError{Field: b.Field, Value: value}
		}
		out[i+hit] = 1
		i += len(b.Categories)
	}
	return out, nil
}

// ApplyAll encodes every vector, stopping at the first failure.
func (t *FittedTransform) ApplyAll(vectors []domain.FeatureVector) ([][]float64, error) {
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		row, err := t.Apply(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// Validate checks a decoded transform against the attribute schema.
func (t *FittedTransform) Validate() error {
	var numeric, categorical int
	for _, f := range domain.Schema {
		if f.IsNumeric() {
			numeric++
		} else {
			categorical++
		}
	}
	if len(t.Numeric) != numeric || len(t.Categorical) != categorical {
		return fmt.Errorf("transform covers %d numeric and %d categorical fields, want %d and %d",
			len(t.Numeric), len(t.Categorical), numeric, categorical)
	}
	for _, s := range t.Numeric {
		spec, ok := domain.LookupField(s.Field)
		if !ok || !spec.IsNumeric() {
			return fmt.Errorf("transform field %q is not a numeric attribute", s.Field)
		}
		if s.Std <= 0 {
			return fmt.Errorf("transform field %q has non-positive std %v", s.Field, s.Std)
		}
	}
	for _, b := range t.Categorical {
		spec, ok := domain.LookupField(b.Field)
		if !ok || spec.IsNumeric() {
			return fmt.Errorf("transform field %q is not a categorical attribute", b.Field)
		}
		if len(b.Categories) == 0 {
			return fmt.Errorf("transform field %q has an empty vocabulary", b.Field)
		}
	}
	return nil
}
