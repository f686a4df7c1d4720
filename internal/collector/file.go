package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/opsmetrics/doratracker/internal/dora"
)

// FileSource reads evidence records from JSON or YAML files, typically
// exported by an external collection job. Format is chosen by extension:
// .yaml/.yml parse as YAML, everything else as JSON.
type FileSource struct {
	deploymentsPath string
	incidentsPath   string
}

// NewFileSource creates a source backed by the given record files. Either
// path may be empty, in which case that record type collects as empty.
func NewFileSource(deploymentsPath, incidentsPath string) *FileSource {
	return &FileSource{
		deploymentsPath: deploymentsPath,
		incidentsPath:   incidentsPath,
	}
}

func (s *FileSource) Name() string {
	return "file"
}

// CollectDeployments reads and filters deployment records. Records whose
// timestamp parses and falls outside the window are dropped; records with
// missing or unparseable timestamps are kept so the calculator can apply
// its own defaults.
func (s *FileSource) CollectDeployments(ctx context.Context, start, end time.Time) ([]dora.DeploymentRecord, error) {
	if s.deploymentsPath == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []dora.DeploymentRecord
	if err := readRecords(s.deploymentsPath, &records); err != nil {
		return nil, fmt.Errorf("failed to read deployments from %s: %w", s.deploymentsPath, err)
	}

	var filtered []dora.DeploymentRecord
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if t, ok := dora.NormalizeTime(r.Timestamp); ok {
			if t.Before(start) || t.After(end) {
				continue
			}
		}
		filtered = append(filtered, r)
	}

	return filtered, nil
}

// CollectIncidents reads and filters incident records with the same window
// semantics as CollectDeployments.
func (s *FileSource) CollectIncidents(ctx context.Context, start, end time.Time) ([]dora.IncidentRecord, error) {
	if s.incidentsPath == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []dora.IncidentRecord
	if err := readRecords(s.incidentsPath, &records); err != nil {
		return nil, fmt.Errorf("failed to read incidents from %s: %w", s.incidentsPath, err)
	}

	var filtered []dora.IncidentRecord
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if t, ok := dora.NormalizeTime(r.Timestamp); ok {
			if t.Before(start) || t.After(end) {
				continue
			}
		}
		filtered = append(filtered, r)
	}

	return filtered, nil
}

// readRecords unmarshals a whole record file into out, which must be a
// pointer to a slice.
func readRecords(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	}

	return nil
}
