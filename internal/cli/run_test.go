package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posworks/tally/internal/testutil"
)

func demoScheme(t *testing.T) string {
	t.Helper()
	return testutil.WriteScheme(t,
		"{1983}->1.99",
		"{4900}->2.00",
		"{8873}->2.49",
		"{6732}->1.00",
		"{0923}->5.75",
		"{Bundle}->{6732}{4900}=2.50",
	)
}

func TestRun_TextOutput(t *testing.T) {
	schemePath := demoScheme(t)
	scansPath := testutil.WriteScans(t,
		"1983", "4900", "8873", "6732", "0923", "1983", "1983", "1983")

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{schemePath, scansPath, "--session", "test-run"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Bundle")
	assert.Contains(t, output, "Total: 18.70")
}

func TestRun_JSONOutput(t *testing.T) {
	schemePath := demoScheme(t)
	scansPath := testutil.WriteScans(t, "6732", "4900", "junk")

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{schemePath, scansPath, "--session", "test-run"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test-run", data["session_token"])
	assert.Equal(t, 2.5, data["total"])
	assert.Equal(t, float64(2), data["scans"])
	assert.Equal(t, float64(1), data["firings"])
	assert.Equal(t, float64(1), data["unknowns"])
	assert.Equal(t, float64(4), data["events"], "2 scans + 1 firing + 1 unknown")
	assert.NotEmpty(t, data["scheme_fingerprint"])
}

func TestRun_ScansFromStdin(t *testing.T) {
	schemePath := demoScheme(t)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("1983\n# comment\n\n1983\n"))
	cmd.SetArgs([]string{schemePath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Total: 3.98")
}

func TestRun_SchemeNotFound(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.scheme")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_WritesAuditTrail(t *testing.T) {
	schemePath := demoScheme(t)
	scansPath := testutil.WriteScans(t, "6732", "4900")
	dbPath := filepath.Join(t.TempDir(), "audit.db")

	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{schemePath, scansPath, "--db", dbPath, "--session", "audited"})

	require.NoError(t, cmd.Execute())

	buf := &bytes.Buffer{}
	trace := NewTraceCommand(&RootOptions{Format: "text"})
	trace.SetOut(buf)
	trace.SetErr(&bytes.Buffer{})
	trace.SetArgs([]string{"--db", dbPath, "--session", "audited"})

	require.NoError(t, trace.Execute())
	output := buf.String()
	assert.Contains(t, output, "Session audited")
	assert.Contains(t, output, "Bundle")
	assert.Contains(t, output, "2 scans, 1 firings, 0 unknown")
	assert.Contains(t, output, "final total 2.50")
}
