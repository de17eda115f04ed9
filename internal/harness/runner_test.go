package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllBundledScenariosPass(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_TraceCoversEveryMutation(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "bundle-discount.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, "scan", result.Trace[0].Type)
	assert.Equal(t, "scan", result.Trace[1].Type)
	assert.Equal(t, "firing", result.Trace[2].Type)
	assert.Equal(t, "Bundle", result.Trace[2].RuleName)
	assert.Equal(t, []string{"6732", "4900"}, result.Trace[2].Consumed)

	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq, "logical clock gapless")
	}
	assert.Equal(t, 2.50, result.FinalTotal)
	assert.Equal(t, "golden-bundle", result.SessionToken)
}

func TestRun_FailedExpectationIsReportedNotFatal(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong-total",
		Description: "deliberately wrong expectation",
		Scheme:      filepath.Join("testdata", "schemes", "demo.scheme"),
		Scans: []ScanStep{
			{Item: "1983", Expect: &ExpectClause{Total: floatPtr(9.99)}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalTotal, Value: 9.99},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRun_UnexpectedUnknownFailsTheStep(t *testing.T) {
	scenario := &Scenario{
		Name:        "surprise-unknown",
		Description: "a scan expected to be accepted is unknown",
		Scheme:      filepath.Join("testdata", "schemes", "demo.scheme"),
		Scans: []ScanStep{
			{Item: "0000", Expect: &ExpectClause{Total: floatPtr(0)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected accepted scan")
}

func TestRun_SchemeWithDiagnosticsIsAnError(t *testing.T) {
	schemePath := filepath.Join(t.TempDir(), "broken.scheme")
	require.NoError(t, os.WriteFile(schemePath, []byte("{1983}->not-a-number\n"), 0644))

	scenario := &Scenario{
		Name:        "broken-scheme",
		Description: "scheme that fails to load cleanly",
		Scheme:      schemePath,
		Scans:       []ScanStep{{Item: "1983"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diagnostics")
}

func floatPtr(v float64) *float64 { return &v }
