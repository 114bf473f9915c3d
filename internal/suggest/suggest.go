// Package suggest obtains mapping candidates from an external suggestion
// service. Candidates are advisory input only: the pipeline validates every
// one of them before execution, so this package never filters or scores.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/mapping"
	"github.com/dbsmedya/migrion/internal/profiler"
	"github.com/dbsmedya/migrion/internal/types"
)

// Service produces mapping candidates for a profiled source dataset and a
// target schema.
type Service interface {
	Suggest(ctx context.Context, report *profiler.QualityReport, schema *types.Schema, samples []types.Record) ([]mapping.Candidate, error)
}

// request is the JSON body sent to the suggestion service: the profiled
// source fields, the target schema, and a few sample records for context.
type request struct {
	SourceFields []sourceField  `json:"source_fields"`
	TargetFields []targetField  `json:"target_fields"`
	SampleData   []types.Record `json:"sample_data,omitempty"`
}

type sourceField struct {
	Name         string  `json:"name"`
	InferredType string  `json:"inferred_type"`
	Completeness float64 `json:"completeness"`
	Uniqueness   float64 `json:"uniqueness"`
}

type targetField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// response mirrors the service's mapping payload. Fields the validator does
// not consume (unmapped field lists, transformation notes) are ignored.
type response struct {
	Mappings []mapping.Candidate `json:"mappings"`
}

// HTTPClient calls a suggestion service over HTTP.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTP creates a client from the suggest config.
func NewHTTP(cfg *config.SuggestConfig) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("suggest service URL is not configured")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Suggest posts the source profile and target schema and decodes the
// returned candidates. Candidates come back in service order, untouched.
func (c *HTTPClient) Suggest(ctx context.Context, report *profiler.QualityReport, schema *types.Schema, samples []types.Record) ([]mapping.Candidate, error) {
	if len(samples) > 5 {
		samples = samples[:5]
	}

	req := request{SampleData: samples}
	for _, fp := range report.Profiles {
		req.SourceFields = append(req.SourceFields, sourceField{
			Name:         fp.Name,
			InferredType: string(fp.InferredType),
			Completeness: fp.Completeness,
			Uniqueness:   fp.Uniqueness,
		})
	}
	for _, spec := range schema.Fields {
		req.TargetFields = append(req.TargetFields, targetField{
			Name:     spec.Name,
			Type:     spec.Type,
			Required: spec.Required,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode suggestion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build suggestion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("suggestion service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("suggestion service returned %s: %s", resp.Status, snippet)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion response: %w", err)
	}
	return out.Mappings, nil
}

// LoadCandidatesFile reads candidates from a JSON file. The file may hold
// either a bare candidate array or the full service response shape.
func LoadCandidatesFile(path string) ([]mapping.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates file: %w", err)
	}

	var candidates []mapping.Candidate
	if err := json.Unmarshal(data, &candidates); err == nil {
		return candidates, nil
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse candidates file %s: %w", path, err)
	}
	return out.Mappings, nil
}

// Static serves a fixed candidate list. Dry runs and tests use it in place
// of the real service.
type Static struct {
	Candidates []mapping.Candidate
	Err        error
}

func (s Static) Suggest(context.Context, *profiler.QualityReport, *types.Schema, []types.Record) ([]mapping.Candidate, error) {
	return s.Candidates, s.Err
}
