// Package dataset reads and writes the tabular training data file: the nine
// feature columns followed by a Risk_Level label column.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"rabies-risk-service/internal/core/domain"
)

// LabelColumn holds the synthesized RiskLabel.
const LabelColumn = "Risk_Level"

// Header is the column order written by Write.
func Header() []string {
	return append(domain.FieldNames(), LabelColumn)
}

// Read parses a training data file. Columns are matched by header name; a bad
// row fails with its line number and the schema error for the offending field.
func Read(r io.Reader) ([]domain.TrainingExample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("training data is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var examples []domain.TrainingExample
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		ex, err := parseRow(record, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, ex)
	}

	log.WithField("rows", len(examples)).Debug("training data read")
	return examples, nil
}

// Write emits examples with a header row.
func Write(w io.Writer, examples []domain.TrainingExample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, 0, len(domain.Schema)+1)
	for _, ex := range examples {
		row = row[:0]
		for _, f := range domain.Schema {
			if f.IsNumeric() {
				row = append(row, strconv.FormatFloat(ex.Features.Numeric(f.Name), 'g', -1, 64))
				continue
			}
			row = append(row, ex.Features.Category(f.Name))
		}
		row = append(row, ex.Label.String())
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadFile reads the training data file at path.
func ReadFile(path string) ([]domain.TrainingExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()

	examples, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}

// WriteFile writes examples to path, creating parent directories.
func WriteFile(path string, examples []domain.TrainingExample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create training data: %w", err)
	}
	if err := Write(f, examples); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close training data: %w", err)
	}

	log.WithFields(log.Fields{
		"path": path,
		"rows": len(examples),
	}).Info("training data written")
	return nil
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		if _, ok := domain.LookupField(name); !ok && name != LabelColumn {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		columns[name] = i
	}
	for _, name := range Header() {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return columns, nil
}

func parseRow(record []string, columns map[string]int) (domain.TrainingExample, error) {
	raw := make(map[string]any, len(domain.Schema))
	for _, f := range domain.Schema {
		raw[f.Name] = record[columns[f.Name]]
	}
	fv, err := domain.ParseFeatures(raw)
	if err != nil {
		return domain.TrainingExample{}, err
	}

	label, err := domain.ParseRiskLabel(record[columns[LabelColumn]])
	if err != nil {
		return domain.TrainingExample{}, &domain.SchemaViolationError{Field: LabelColumn, Reason: err.Error()}
	}
	return domain.TrainingExample{Features: fv, Label: label}, nil
}
