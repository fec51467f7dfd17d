package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/synth"
)

const header = "Age,Location_Risk,Animal_Type,Bite_Severity,Vaccination_Status,PEP,Time_Since_Exposure,Wound_Location,Animal_Vaccination,Risk_Level"

func TestWriteRead(t *testing.T) {
	examples := synth.NewSampler(3).Examples(250)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, examples))
	assert.True(t, strings.HasPrefix(buf.String(), header+"\n"))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, examples, got)
}

func TestWriteReadFile(t *testing.T) {
	examples := synth.NewSampler(4).Examples(20)
	path := filepath.Join(t.TempDir(), "data", "rabies.csv")

	require.NoError(t, WriteFile(path, examples))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, examples, got)
}

func TestRead_ColumnsByName(t *testing.T) {
	input := "Risk_Level,PEP,Age,Location_Risk,Animal_Type,Bite_Severity,Vaccination_Status,Time_Since_Exposure,Wound_Location,Animal_Vaccination\n" +
		"High,No,30,High,Dog,Major,Unvaccinated,60,Head/Neck,Unvaccinated\n"

	got, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.RiskHigh, got[0].Label)
	assert.Equal(t, 30, got[0].Features.Age)
	assert.Equal(t, domain.PEPNo, got[0].Features.PEP)
	assert.Equal(t, 60.0, got[0].Features.TimeSinceExposure)
}

func TestRead_BadRow(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{"age out of range", "130,High,Dog,Major,Unvaccinated,No,60,Head/Neck,Unvaccinated,High", domain.FieldAge},
		{"fractional age", "30.5,High,Dog,Major,Unvaccinated,No,60,Head/Neck,Unvaccinated,High", domain.FieldAge},
		{"bad category", "30,High,Bat,Major,Unvaccinated,No,60,Head/Neck,Unvaccinated,High", domain.FieldAnimalType},
		{"empty exposure", "30,High,Dog,Major,Unvaccinated,No,,Head/Neck,Unvaccinated,High", domain.FieldTimeSinceExposure},
		{"bad label", "30,High,Dog,Major,Unvaccinated,No,60,Head/Neck,Unvaccinated,Extreme", LabelColumn},
	}

	good := "40,Low,Cat,Minor,Vaccinated,Yes,2,Lower Body,Vaccinated,Low"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := header + "\n" + good + "\n" + tt.row + "\n"
			_, err := Read(strings.NewReader(input))

			var sv *domain.SchemaViolationError
			require.ErrorAs(t, err, &sv)
			assert.Equal(t, tt.field, sv.Field)
			assert.Contains(t, err.Error(), "line 3")
		})
	}
}

func TestRead_BadHeader(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("Age,Location_Risk\n30,High\n"))
	assert.ErrorContains(t, err, "missing column")

	_, err = Read(strings.NewReader(header + ",Notes\n"))
	assert.ErrorContains(t, err, `unknown column "Notes"`)

	_, err = Read(strings.NewReader(header + ",Age\n"))
	assert.ErrorContains(t, err, "duplicate column")
}

func TestRead_RaggedRow(t *testing.T) {
	input := header + "\n30,High,Dog\n"
	_, err := Read(strings.NewReader(input))
	assert.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
