package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvidence(t *testing.T) {
	evidence, err := parseEvidence([]string{
		`{"trace_id":"tr-1","rationale":"retry storm","supports":true}`,
		`{"trace_id":"tr-2","rationale":"clean run","supports":false}`,
	})
	require.NoError(t, err)
	require.Len(t, evidence, 2)
	assert.Equal(t, "tr-1", evidence[0].TraceID)
	assert.True(t, evidence[0].Supports)
	assert.False(t, evidence[1].Supports)
}

func TestParseEvidence_BadJSON(t *testing.T) {
	_, err := parseEvidence([]string{`{"trace_id":`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
}

func TestParseIssueEvidence(t *testing.T) {
	evidence, err := parseIssueEvidence([]string{
		`{"trace_id":"tr-1","rationale":"87s end-to-end"}`,
	})
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, "87s end-to-end", evidence[0].Rationale)
}

func TestParseKeyValues(t *testing.T) {
	kv, err := parseKeyValues([]string{"owner=payments", "ticket=INC-4821"}, "metadata")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"owner": "payments", "ticket": "INC-4821"}, kv)

	kv, err = parseKeyValues(nil, "metadata")
	require.NoError(t, err)
	assert.Nil(t, kv)

	_, err = parseKeyValues([]string{"no-separator"}, "metadata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--metadata entry 1")
}

func TestParseMetricValues(t *testing.T) {
	kv, err := parseMetricValues([]string{"p99_ms=870.5", "error_rate=0.12"})
	require.NoError(t, err)
	assert.Equal(t, 870.5, kv["p99_ms"])
	assert.Equal(t, 0.12, kv["error_rate"])

	_, err = parseMetricValues([]string{"p99_ms=fast"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "very long…", truncate("very long string", 10))
}

func TestTableRendersHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	table(&buf, []string{"A", "B"}, [][]string{{"one", "two"}})
	out := buf.String()
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "one")
}
