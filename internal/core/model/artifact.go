package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"rabies-risk-service/internal/core/classifier"
	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/preprocess"
)

// FormatVersion is bumped whenever the artifact layout changes.
const FormatVersion = 1

type envelope struct {
	FormatVersion int             `json:"format_version"`
	Checksum      string          `json:"checksum"`
	Payload       json.RawMessage `json:"payload"`
}

type payload struct {
	Metadata       Metadata                    `json:"metadata"`
	Transform      *preprocess.FittedTransform `json:"transform"`
	ClassifierKind string                      `json:"classifier_kind"`
	Classifier     json.RawMessage             `json:"classifier"`
}

// encode writes m as a single artifact. The payload is covered by a SHA-256 checksum.
func (m *TrainedModel) encode(w io.Writer) error {
	clf, err := json.Marshal(m.Classifier)
	if err != nil {
		return fmt.Errorf("marshal classifier: %w", err)
	}
	body, err := json.Marshal(payload{
		Metadata:       m.Metadata,
		Transform:      m.Transform,
		ClassifierKind: m.Classifier.Kind(),
		Classifier:     clf,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	sum := sha256.Sum256(body)
	return json.NewEncoder(w).Encode(envelope{
		FormatVersion: FormatVersion,
		Checksum:      hex.EncodeToString(sum[:]),
		Payload:       body,
	})
}

func decode(r io.Reader) (*TrainedModel, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d", env.FormatVersion)
	}
	sum := sha256.Sum256(env.Payload)
	if hex.EncodeToString(sum[:]) != env.Checksum {
		return nil, fmt.Errorf("checksum mismatch")
	}

	var p payload
	dec := json.NewDecoder(bytes.NewReader(env.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	clf, err := classifier.Decode(p.ClassifierKind, p.Classifier)
	if err != nil {
		return nil, err
	}
	m := &TrainedModel{Metadata: p.Metadata, Transform: p.Transform, Classifier: clf}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes the artifact to path via a temporary file and rename.
func (m *TrainedModel) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}

	log.WithFields(log.Fields{
		"path":       path,
		"model_id":   m.Metadata.ID,
		"classifier": m.Metadata.ClassifierKind,
	}).Info("model artifact saved")
	return nil
}

// Load reads the artifact at path. A missing or corrupt file is reported as
// domain.ErrArtifactLoad; serving must not start in that case.
func Load(path string) (*TrainedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ArtifactLoadError(path, err)
	}
	defer f.Close()

	m, err := decode(f)
	if err != nil {
		return nil, domain.ArtifactLoadError(path, err)
	}

	log.WithFields(log.Fields{
		"path":       path,
		"model_id":   m.Metadata.ID,
		"classifier": m.Metadata.ClassifierKind,
		"features":   m.Transform.Width(),
	}).Info("model artifact loaded")
	return m, nil
}
