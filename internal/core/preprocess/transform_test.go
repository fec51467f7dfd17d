package preprocess

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/synth"
)

func vector(age int, hours float64, location domain.LocationRisk, pep domain.PEPStatus) domain.FeatureVector {
	return domain.FeatureVector{
		Age:               age,
		LocationRisk:      location,
		AnimalType:        domain.AnimalDog,
		BiteSeverity:      domain.BiteMinor,
		VaccinationStatus: domain.PatientUnvaccinated,
		PEP:               pep,
		TimeSinceExposure: hours,
		WoundLocation:     domain.WoundUpperBody,
		AnimalVaccination: domain.AnimalUnknown,
	}
}

func TestFit_Statistics(t *testing.T) {
	vectors := []domain.FeatureVector{
		vector(10, 0, domain.LocationHigh, domain.PEPNo),
		vector(20, 10, domain.LocationLow, domain.PEPYes),
		vector(30, 20, domain.LocationHigh, domain.PEPNo),
	}

	ft, err := Fit(vectors)
	require.NoError(t, err)

	require.Len(t, ft.Numeric, 2)
	assert.Equal(t, domain.FieldAge, ft.Numeric[0].Field)
	assert.InDelta(t, 20.0, ft.Numeric[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(200.0/3.0), ft.Numeric[0].Std, 1e-12)
	assert.Equal(t, domain.FieldTimeSinceExposure, ft.Numeric[1].Field)
	assert.InDelta(t, 10.0, ft.Numeric[1].Mean, 1e-12)

	require.Len(t, ft.Categorical, 7)
	assert.Equal(t, CategoryBlock{Field: domain.FieldLocationRisk, Categories: []string{"High", "Low"}}, ft.Categorical[0])
	assert.Equal(t, []string{"No", "Yes"}, ft.Categorical[4].Categories)
	assert.Equal(t, []string{"Dog"}, ft.Categorical[1].Categories)

	// 2 numerics + High/Low + Dog + Minor + Unvaccinated + No/Yes + Upper Body + Unknown
	assert.Equal(t, 11, ft.Width())
	assert.Len(t, ft.FeatureNames(), ft.Width())
	assert.Equal(t, "Location_Risk=High", ft.FeatureNames()[2])
	assert.NoError(t, ft.Validate())
}

func TestFit_Empty(t *testing.T) {
	_, err := Fit(nil)
	assert.ErrorIs(t, err, domain.ErrTrainingFailed)
}

func TestFit_ConstantColumnNotScaled(t *testing.T) {
	vectors := []domain.FeatureVector{
		vector(40, 5, domain.LocationHigh, domain.PEPNo),
		vector(40, 15, domain.LocationHigh, domain.PEPNo),
	}
	ft, err := Fit(vectors)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ft.Numeric[0].Std)

	row, err := ft.Apply(vectors[0])
	require.NoError(t, err)
	assert.Equal(t, 0.0, row[0])
}

func TestApply_Layout(t *testing.T) {
	vectors := []domain.FeatureVector{
		vector(10, 0, domain.LocationHigh, domain.PEPNo),
		vector(30, 20, domain.LocationLow, domain.PEPYes),
	}
	ft, err := Fit(vectors)
	require.NoError(t, err)

	row, err := ft.Apply(vectors[1])
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 0, 1, 1, 1, 1, 0, 1, 1, 1}, row)

	row, err = ft.Apply(vectors[0])
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, 1, 0, 1, 1, 1, 1, 0, 1, 1}, row)
}

func TestApply_UnknownCategory(t *testing.T) {
	ft, err := Fit([]domain.FeatureVector{vector(10, 0, domain.LocationHigh, domain.PEPNo)})
	require.NoError(t, err)

	_, err = ft.Apply(vector(10, 0, domain.LocationMedium, domain.PEPNo))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownCategory))

	var uc *domain.UnknownCategoryError
	require.True(t, errors.As(err, &uc))
	assert.Equal(t, domain.FieldLocationRisk, uc.Field)
	assert.Equal(t, "Medium", uc.Value)
}

func TestApply_Deterministic(t *testing.T) {
	examples := synth.NewSampler(3).Examples(300)
	vectors := make([]domain.FeatureVector, len(examples))
	for i, ex := range examples {
		vectors[i] = ex.Features
	}
	ft, err := Fit(vectors)
	require.NoError(t, err)

	for _, v := range vectors[:20] {
		a, err := ft.Apply(v)
		require.NoError(t, err)
		b, err := ft.Apply(v)
		require.NoError(t, err)
		for i := range a {
			assert.Equal(t, math.Float64bits(a[i]), math.Float64bits(b[i]))
		}
	}
}

func TestFittedTransform_JSONRoundTrip(t *testing.T) {
	examples := synth.NewSampler(5).Examples(200)
	vectors := make([]domain.FeatureVector, len(examples))
	for i, ex := range examples {
		vectors[i] = ex.Features
	}
	ft, err := Fit(vectors)
	require.NoError(t, err)

	data, err := json.Marshal(ft)
	require.NoError(t, err)
	var loaded FittedTransform
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.NoError(t, loaded.Validate())

	rows, err := ft.ApplyAll(vectors)
	require.NoError(t, err)
	again, err := loaded.ApplyAll(vectors)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestValidate_RejectsBrokenTransform(t *testing.T) {
	ft := &FittedTransform{Numeric: []NumericScale{{Field: domain.FieldAge, Std: 1}}}
	assert.Error(t, ft.Validate())
}
