package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/profiler"
	"github.com/dbsmedya/migrion/internal/types"
)

func testReport() *profiler.QualityReport {
	return &profiler.QualityReport{
		Dataset:     "legacy_customers",
		RecordCount: 3,
		Profiles: []profiler.FieldProfile{
			{Name: "cust_no", InferredType: types.TypeString, Completeness: 1, Uniqueness: 1},
			{Name: "email", InferredType: types.TypeString, Completeness: 0.9, Uniqueness: 1, PIILikely: true},
		},
	}
}

func testSchema() *types.Schema {
	return &types.Schema{
		Name: "customers",
		Fields: []types.FieldSpec{
			{Name: "id", Type: "varchar", Required: true},
			{Name: "email", Type: "varchar", Required: false},
		},
	}
}

func TestHTTPClient_Suggest(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"mappings": [
				{"source_field": "cust_no", "target_field": "id", "transform": "direct", "confidence": 0.95, "explanation": "identifier"},
				{"source_field": "email", "target_field": "email", "transform": "normalize", "confidence": 0.9}
			],
			"unmapped_source_fields": [],
			"unmapped_target_fields": []
		}`))
	}))
	defer srv.Close()

	client, err := NewHTTP(&config.SuggestConfig{URL: srv.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	samples := []types.Record{{"cust_no": "C-1", "email": "a@example.com"}}
	candidates, err := client.Suggest(context.Background(), testReport(), testSchema(), samples)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "cust_no", candidates[0].SourceField)
	assert.Equal(t, "id", candidates[0].TargetField)
	assert.Equal(t, 0.95, candidates[0].Confidence)
	assert.Equal(t, "identifier", candidates[0].Rationale)

	// The request carried the profile and the schema.
	require.Len(t, got.SourceFields, 2)
	assert.Equal(t, "cust_no", got.SourceFields[0].Name)
	require.Len(t, got.TargetFields, 2)
	assert.True(t, got.TargetFields[0].Required)
	assert.Len(t, got.SampleData, 1)
}

func TestHTTPClient_TruncatesSamples(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"mappings": []}`))
	}))
	defer srv.Close()

	client, err := NewHTTP(&config.SuggestConfig{URL: srv.URL})
	require.NoError(t, err)

	samples := make([]types.Record, 20)
	for i := range samples {
		samples[i] = types.Record{"cust_no": "x"}
	}
	_, err = client.Suggest(context.Background(), testReport(), testSchema(), samples)
	require.NoError(t, err)
	assert.Len(t, got.SampleData, 5)
}

func TestHTTPClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewHTTP(&config.SuggestConfig{URL: srv.URL})
	require.NoError(t, err)

	_, err = client.Suggest(context.Background(), testReport(), testSchema(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewHTTP_RequiresURL(t *testing.T) {
	_, err := NewHTTP(&config.SuggestConfig{})
	assert.Error(t, err)
}

func TestLoadCandidatesFile(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(bare, []byte(`[
		{"source_field": "a", "target_field": "b", "confidence": 0.5}
	]`), 0o644))

	candidates, err := LoadCandidatesFile(bare)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].SourceField)

	wrapped := filepath.Join(dir, "wrapped.json")
	require.NoError(t, os.WriteFile(wrapped, []byte(`{
		"mappings": [{"source_field": "a", "target_field": "b", "confidence": 0.5}]
	}`), 0o644))

	candidates, err = LoadCandidatesFile(wrapped)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	_, err = LoadCandidatesFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`not json`), 0o644))
	_, err = LoadCandidatesFile(broken)
	assert.Error(t, err)
}
