package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// Attribute Names
// ============================================================================

const (
	FieldAge               = "Age"
	FieldLocationRisk      = "Location_Risk"
	FieldAnimalType        = "Animal_Type"
	FieldBiteSeverity      = "Bite_Severity"
	FieldVaccinationStatus = "Vaccination_Status"
	FieldPEP               = "PEP"
	FieldTimeSinceExposure = "Time_Since_Exposure"
	FieldWoundLocation     = "Wound_Location"
	FieldAnimalVaccination = "Animal_Vaccination"
)

// ============================================================================
// Value Objects
// ============================================================================

type LocationRisk string

const (
	LocationHigh   LocationRisk = "High"
	LocationMedium LocationRisk = "Medium"
	LocationLow    LocationRisk = "Low"
)

type AnimalType string

const (
	AnimalDog      AnimalType = "Dog"
	AnimalCat      AnimalType = "Cat"
	AnimalWildlife AnimalType = "Wildlife"
	AnimalNone     AnimalType = "None"
)

type BiteSeverity string

const (
	BiteNone  BiteSeverity = "None"
	BiteMinor BiteSeverity = "Minor"
	BiteMajor BiteSeverity = "Major"
)

// VaccinationStatus is the human patient's rabies vaccination status.
type VaccinationStatus string

const (
	PatientVaccinated   VaccinationStatus = "Vaccinated"
	PatientUnvaccinated VaccinationStatus = "Unvaccinated"
	PatientPartial      VaccinationStatus = "Partial"
)

// PEPStatus records whether post-exposure prophylaxis was given.
type PEPStatus string

const (
	PEPYes PEPStatus = "Yes"
	PEPNo  PEPStatus = "No"
)

type WoundLocation string

const (
	WoundHeadNeck  WoundLocation = "Head/Neck"
	WoundUpperBody WoundLocation = "Upper Body"
	WoundLowerBody WoundLocation = "Lower Body"
	WoundNone      WoundLocation = "None"
)

type AnimalVaccination string

const (
	AnimalVaccinated   AnimalVaccination = "Vaccinated"
	AnimalUnvaccinated AnimalVaccination = "Unvaccinated"
	AnimalUnknown      AnimalVaccination = "Unknown"
)

// ============================================================================
// Schema
// ============================================================================

type FieldKind string

const (
	KindInteger     FieldKind = "integer"
	KindNumber      FieldKind = "number"
	KindCategorical FieldKind = "categorical"
)

// FieldSpec describes one attribute and its valid domain.
type FieldSpec struct {
	Name   string
	Kind   FieldKind
	Min    float64
	Max    float64
	Values []string
}

// IsNumeric reports whether the field is standardized rather than one-hot encoded.
func (f FieldSpec) IsNumeric() bool {
	return f.Kind == KindInteger || f.Kind == KindNumber
}

// Allows reports whether value belongs to a categorical field's domain.
func (f FieldSpec) Allows(value string) bool {
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Schema lists the attributes in training data column order.
var Schema = []FieldSpec{
	{Name: FieldAge, Kind: KindInteger, Min: 0, Max: 100},
	{Name: FieldLocationRisk, Kind: KindCategorical, Values: []string{"High", "Medium", "Low"}},
	{Name: FieldAnimalType, Kind: KindCategorical, Values: []string{"Dog", "Cat", "Wildlife", "None"}},
	{Name: FieldBiteSeverity, Kind: KindCategorical, Values: []string{"None", "Minor", "Major"}},
	{Name: FieldVaccinationStatus, Kind: KindCategorical, Values: []string{"Vaccinated", "Unvaccinated", "Partial"}},
	{Name: FieldPEP, Kind: KindCategorical, Values: []string{"Yes", "No"}},
	{Name: FieldTimeSinceExposure, Kind: KindNumber, Min: 0, Max: 720},
	{Name: FieldWoundLocation, Kind: KindCategorical, Values: []string{"Head/Neck", "Upper Body", "Lower Body", "None"}},
	{Name: FieldAnimalVaccination, Kind: KindCategorical, Values: []string{"Vaccinated", "Unvaccinated", "Unknown"}},
}

// FieldNames returns the attribute names in schema order.
func FieldNames() []string {
	names := make([]string, len(Schema))
	for i, f := range Schema {
		names[i] = f.Name
	}
	return names
}

// LookupField returns the definition of the named field.
func LookupField(name string) (FieldSpec, bool) {
	for _, f := range Schema {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// ============================================================================
// Feature Vector
// ============================================================================

// FeatureVector describes a single exposure incident. Build it with ParseFeatures
// or validate a literal with Validate before handing it to a model.
type FeatureVector struct {
	Age               int               `json:"Age"`
	LocationRisk      LocationRisk      `json:"Location_Risk"`
	AnimalType        AnimalType        `json:"Animal_Type"`
	BiteSeverity      BiteSeverity      `json:"Bite_Severity"`
	VaccinationStatus VaccinationStatus `json:"Vaccination_Status"`
	PEP               PEPStatus         `json:"PEP"`
	TimeSinceExposure float64           `json:"Time_Since_Exposure"`
	WoundLocation     WoundLocation     `json:"Wound_Location"`
	AnimalVaccination AnimalVaccination `json:"Animal_Vaccination"`
}

// Numeric returns the value of a numeric attribute.
func (v FeatureVector) Numeric(name string) float64 {
	switch name {
	case FieldAge:
		return float64(v.Age)
	case FieldTimeSinceExposure:
		return v.TimeSinceExposure
	}
	return math.NaN()
}

// Category returns the value of a categorical attribute.
func (v FeatureVector) Category(name string) string {
	switch name {
	case FieldLocationRisk:
		return string(v.LocationRisk)
	case FieldAnimalType:
		return string(v.AnimalType)
	case FieldBiteSeverity:
		return string(v.BiteSeverity)
	case FieldVaccinationStatus:
		return string(v.VaccinationStatus)
	case FieldPEP:
		return string(v.PEP)
	case FieldWoundLocation:
		return string(v.WoundLocation)
	case FieldAnimalVaccination:
		return string(v.AnimalVaccination)
	}
	return ""
}

// Attributes returns the vector as a raw attribute mapping.
func (v FeatureVector) Attributes() map[string]any {
	attrs := make(map[string]any, len(Schema))
	for _, f := range Schema {
		if f.IsNumeric() {
			if f.Kind == KindInteger {
				attrs[f.Name] = int(v.Numeric(f.Name))
			} else {
				attrs[f.Name] = v.Numeric(f.Name)
			}
			continue
		}
		attrs[f.Name] = v.Category(f.Name)
	}
	return attrs
}

// Validate checks every attribute against its domain.
func (v FeatureVector) Validate() error {
	for _, f := range Schema {
		if f.IsNumeric() {
			if err := checkRange(f, v.Numeric(f.Name)); err != nil {
				return err
			}
			continue
		}
		c := v.Category(f.Name)
		if !f.Allows(c) {
			return schemaViolation(f.Name, "value %q is not one of %s", c, strings.Join(f.Values, ", "))
		}
	}
	return nil
}

// ParseFeatures validates a raw attribute mapping and builds a FeatureVector.
// Numbers may arrive as Go numeric types, json.Number or numeric strings.
func ParseFeatures(raw map[string]any) (FeatureVector, error) {
	var unknown []string
	for k := range raw {
		if _, ok := LookupField(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return FeatureVector{}, schemaViolation(unknown[0], "is not a known attribute")
	}

	numbers := make(map[string]float64, 2)
	categories := make(map[string]string, len(Schema))
	for _, f := range Schema {
		value, ok := raw[f.Name]
		if !ok || value == nil {
			return FeatureVector{}, schemaViolation(f.Name, "is required")
		}

		if f.IsNumeric() {
			n, ok := toFloat(value)
			if !ok {
				return FeatureVector{}, schemaViolation(f.Name, "must be a number, got %T", value)
			}
			if f.Kind == KindInteger && n != math.Trunc(n) {
				return FeatureVector{}, schemaViolation(f.Name, "must be an integer, got %v", n)
			}
			if err := checkRange(f, n); err != nil {
				return FeatureVector{}, err
			}
			numbers[f.Name] = n
			continue
		}

		s, ok := value.(string)
		if !ok {
			return FeatureVector{}, schemaViolation(f.Name, "must be a string, got %T", value)
		}
		if !f.Allows(s) {
			return FeatureVector{}, schemaViolation(f.Name, "value %q is not one of %s", s, strings.Join(f.Values, ", "))
		}
		categories[f.Name] = s
	}

	return FeatureVector{
		Age:               int(numbers[FieldAge]),
		LocationRisk:      LocationRisk(categories[FieldLocationRisk]),
		AnimalType:        AnimalType(categories[FieldAnimalType]),
		BiteSeverity:      BiteSeverity(categories[FieldBiteSeverity]),
		VaccinationStatus: VaccinationStatus(categories[FieldVaccinationStatus]),
		PEP:               PEPStatus(categories[FieldPEP]),
		TimeSinceExposure: numbers[FieldTimeSinceExposure],
		WoundLocation:     WoundLocation(categories[FieldWoundLocation]),
		AnimalVaccination: AnimalVaccination(categories[FieldAnimalVaccination]),
	}, nil
}

func checkRange(f FieldSpec, n float64) error {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return schemaViolation(f.Name, "must be a finite number")
	}
	if n < f.Min || n > f.Max {
		return schemaViolation(f.Name, "must be between %s and %s, got %s", fmtNum(f.Min), fmtNum(f.Max), fmtNum(n))
	}
	return nil
}

func fmtNum(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// String renders the vector for logs and error messages.
func (v FeatureVector) String() string {
	return fmt.Sprintf("Age=%d Location_Risk=%s Animal_Type=%s Bite_Severity=%s Vaccination_Status=%s PEP=%s Time_Since_Exposure=%g Wound_Location=%s Animal_Vaccination=%s",
		v.Age, v.LocationRisk, v.AnimalType, v.BiteSeverity, v.VaccinationStatus, v.PEP, v.TimeSinceExposure, v.WoundLocation, v.AnimalVaccination)
}
