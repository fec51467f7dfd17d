package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]any {
	return map[string]any{
		"Age":                 30,
		"Location_Risk":       "High",
		"Animal_Type":         "Dog",
		"Bite_Severity":       "Major",
		"Vaccination_Status":  "Unvaccinated",
		"PEP":                 "No",
		"Time_Since_Exposure": 60.0,
		"Wound_Location":      "Head/Neck",
		"Animal_Vaccination":  "Unvaccinated",
	}
}

func TestParseFeatures_Valid(t *testing.T) {
	fv, err := ParseFeatures(validRaw())
	require.NoError(t, err)

	assert.Equal(t, 30, fv.Age)
	assert.Equal(t, LocationHigh, fv.LocationRisk)
	assert.Equal(t, AnimalDog, fv.AnimalType)
	assert.Equal(t, BiteMajor, fv.BiteSeverity)
	assert.Equal(t, PatientUnvaccinated, fv.VaccinationStatus)
	assert.Equal(t, PEPNo, fv.PEP)
	assert.Equal(t, 60.0, fv.TimeSinceExposure)
	assert.Equal(t, WoundHeadNeck, fv.WoundLocation)
	assert.Equal(t, AnimalUnvaccinated, fv.AnimalVaccination)
	assert.NoError(t, fv.Validate())
}

func TestParseFeatures_NumericForms(t *testing.T) {
	raw := validRaw()
	raw["Age"] = "42"
	raw["Time_Since_Exposure"] = json.Number("12.5")

	fv, err := ParseFeatures(raw)
	require.NoError(t, err)
	assert.Equal(t, 42, fv.Age)
	assert.Equal(t, 12.5, fv.TimeSinceExposure)

	raw["Age"] = 42.0
	fv, err = ParseFeatures(raw)
	require.NoError(t, err)
	assert.Equal(t, 42, fv.Age)
}

func TestParseFeatures_Violations(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		drop  bool
	}{
		{name: "negative age", field: "Age", value: -1},
		{name: "age too large", field: "Age", value: 150},
		{name: "fractional age", field: "Age", value: 30.5},
		{name: "age wrong type", field: "Age", value: true},
		{name: "age not numeric", field: "Age", value: "thirty"},
		{name: "exposure too large", field: "Time_Since_Exposure", value: 720.5},
		{name: "exposure negative", field: "Time_Since_Exposure", value: -0.1},
		{name: "exposure NaN", field: "Time_Since_Exposure", value: "NaN"},
		{name: "unknown location", field: "Location_Risk", value: "Extreme"},
		{name: "case sensitive", field: "PEP", value: "yes"},
		{name: "category wrong type", field: "Animal_Type", value: 3},
		{name: "missing wound", field: "Wound_Location", drop: true},
		{name: "nil vaccination", field: "Animal_Vaccination", value: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			if tt.drop {
				delete(raw, tt.field)
			} else {
				raw[tt.field] = tt.value
			}

			_, err := ParseFeatures(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaViolation))

			var sv *SchemaViolationError
			require.True(t, errors.As(err, &sv))
			assert.Equal(t, tt.field, sv.Field)
		})
	}
}

func TestParseFeatures_UnknownAttribute(t *testing.T) {
	raw := validRaw()
	raw["Zip_Code"] = "12345"

	_, err := ParseFeatures(raw)
	var sv *SchemaViolationError
	require.True(t, errors.As(err, &sv))
	assert.Equal(t, "Zip_Code", sv.Field)
}

func TestParseFeatures_BoundaryValuesAccepted(t *testing.T) {
	raw := validRaw()
	raw["Age"] = 0
	raw["Time_Since_Exposure"] = 720
	_, err := ParseFeatures(raw)
	assert.NoError(t, err)

	raw["Age"] = 100
	raw["Time_Since_Exposure"] = 0
	_, err = ParseFeatures(raw)
	assert.NoError(t, err)
}

func TestFeatureVector_AttributesRoundTrip(t *testing.T) {
	fv, err := ParseFeatures(validRaw())
	require.NoError(t, err)

	again, err := ParseFeatures(fv.Attributes())
	require.NoError(t, err)
	assert.Equal(t, fv, again)
}

func TestFeatureVector_ValidateRejectsZeroValue(t *testing.T) {
	err := FeatureVector{}.Validate()
	var sv *SchemaViolationError
	require.True(t, errors.As(err, &sv))
	assert.Equal(t, FieldLocationRisk, sv.Field)
}

func TestRiskLabel_Ordering(t *testing.T) {
	assert.True(t, RiskLow < RiskMedium)
	assert.True(t, RiskMedium < RiskHigh)
	assert.Equal(t, []RiskLabel{RiskLow, RiskMedium, RiskHigh}, Labels())

	for _, l := range Labels() {
		parsed, err := ParseRiskLabel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}

	_, err := ParseRiskLabel("Severe")
	assert.Error(t, err)
}

func TestPersistedPercentage(t *testing.T) {
	assert.Equal(t, 98.0, PersistedPercentage(99.7))
	assert.Equal(t, 98.0, PersistedPercentage(100))
	assert.Equal(t, 98.0, PersistedPercentage(98))
	assert.Equal(t, 71.25, PersistedPercentage(71.25))
}

func TestNewPredictionRecord(t *testing.T) {
	result := &PredictionResult{Label: RiskHigh, Percentage: 99.5, PersistedPercentage: 98}

	_, err := NewPredictionRecord(uuid.Nil, "{}", result)
	assert.ErrorIs(t, err, ErrMissingUserID)

	userID := uuid.New()
	rec, err := NewPredictionRecord(userID, "{}", result)
	require.NoError(t, err)
	assert.Equal(t, userID, rec.UserID)
	assert.Equal(t, RiskHigh, rec.RiskLevel)
	assert.Equal(t, 98.0, rec.Percentage)
	assert.NotEqual(t, uuid.Nil, rec.ID)
}
