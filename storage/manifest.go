package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RunManifest records what one pipeline invocation read and produced.
type RunManifest struct {
	Id        string `json:"id"`
	InputPath string `json:"input_path"`
	Status    string `json:"status"`

	ScannedRows  int64 `json:"scanned_rows"`
	SentinelRows int64 `json:"sentinel_rows"`
	RejectedRows int64 `json:"rejected_rows"`
	TrainRows    int64 `json:"train_rows"`
	TestRows     int64 `json:"test_rows"`

	TrainPath      string `json:"train_path"`
	TestPath       string `json:"test_path"`
	QuarantinePath string `json:"quarantine_path,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func NewRunManifestFromBytes(data []byte) (*RunManifest, error) {
	manifest := &RunManifest{}
	err := json.Unmarshal(data, manifest)
	if err != nil {
		return nil, err
	}

	if ifErr := manifest.Validate(); ifErr != nil {
		return nil, ifErr
	}
	return manifest, nil
}

func (obj *RunManifest) ToBytes() ([]byte, error) {
	return json.Marshal(obj)
}

func (obj *RunManifest) Validate() error {
	if obj.Id == "" {
		return fmt.Errorf("%w: id is required", ErrManifestInvalid)
	}
	if obj.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrManifestInvalid)
	}
	if obj.Status != RunStatusSucceeded && obj.Status != RunStatusFailed {
		return fmt.Errorf("%w: unknown status %q", ErrManifestInvalid, obj.Status)
	}

	counts := []struct {
		name  string
		value int64
	}{
		{"scanned_rows", obj.ScannedRows},
		{"sentinel_rows", obj.SentinelRows},
		{"rejected_rows", obj.RejectedRows},
		{"train_rows", obj.TrainRows},
		{"test_rows", obj.TestRows},
	}
	for _, count := range counts {
		if count.value < 0 {
			return fmt.Errorf("%w: %s must be positive", ErrManifestInvalid, count.name)
		}
	}

	if obj.Status == RunStatusSucceeded {
		if obj.TrainPath == "" || obj.TestPath == "" {
			return fmt.Errorf("%w: output paths are required on success", ErrManifestInvalid)
		}
		if obj.FinishedAt.Before(obj.StartedAt) {
			return fmt.Errorf("%w: finished before it started", ErrManifestInvalid)
		}
	}
	return nil
}
