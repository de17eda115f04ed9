package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	schemePath := filepath.Join(dir, "demo.scheme")
	require.NoError(t, os.WriteFile(schemePath, []byte("{1983}->1.99\n"), 0644))

	path := writeScenarioFile(t, dir, `
name: smoke
description: "One scan, one expectation"
scheme: demo.scheme
scans:
  - item: "1983"
    expect:
      total: 1.99
assertions:
  - type: final_total
    value: 1.99
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", scenario.Name)
	assert.Equal(t, schemePath, scenario.Scheme, "scheme resolved relative to scenario file")
	require.Len(t, scenario.Scans, 1)
	require.NotNil(t, scenario.Scans[0].Expect)
	assert.Equal(t, 1.99, *scenario.Scans[0].Expect.Total)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeScenarioFile(t, dir, `
name: typo
description: "assertion instead of assertions"
scheme: demo.scheme
scans:
  - item: "1983"
assertion:
  - type: final_total
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "d"
scheme: demo.scheme
scans:
  - item: "1983"
`,
			wantErr: "name is required",
		},
		{
			name: "missing scheme",
			content: `
name: s
description: "d"
scans:
  - item: "1983"
`,
			wantErr: "scheme is required",
		},
		{
			name: "empty scans",
			content: `
name: s
description: "d"
scheme: demo.scheme
scans: []
`,
			wantErr: "scans list is required",
		},
		{
			name: "scan without item",
			content: `
name: s
description: "d"
scheme: demo.scheme
scans:
  - expect:
      total: 1.00
`,
			wantErr: "item is required",
		},
		{
			name: "rule_fired without rule",
			content: `
name: s
description: "d"
scheme: demo.scheme
scans:
  - item: "1983"
assertions:
  - type: rule_fired
`,
			wantErr: "requires rule",
		},
		{
			name: "unknown assertion type",
			content: `
name: s
description: "d"
scheme: demo.scheme
scans:
  - item: "1983"
assertions:
  - type: trace_contains
`,
			wantErr: "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenarioFile(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioDir_LoadsAll(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(scenarios), 4)
}

func TestLoadScenarioDir_EmptyDir(t *testing.T) {
	_, err := LoadScenarioDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenarios found")
}
