package scheme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posworks/tally/internal/catalog"
	"github.com/posworks/tally/internal/expr"
)

func parseLines(t *testing.T, lines ...string) (*Scheme, []Diagnostic) {
	t.Helper()
	s, diags, err := Parse(strings.NewReader(strings.Join(lines, "\n")), expr.New())
	require.NoError(t, err)
	return s, diags
}

func TestParse_Items(t *testing.T) {
	s, diags := parseLines(t,
		"# today's scheme",
		"",
		"{1983}->1.99",
		"{8873} -> 2.49",
		"{C1}->0.5",
	)
	assert.Empty(t, diags)

	toothbrush, ok := s.Item("1983")
	require.True(t, ok)
	assert.Equal(t, catalog.KindProduct, toothbrush.Kind())
	assert.Equal(t, 1.99, toothbrush.IntrinsicValue())

	milk, ok := s.Item("8873")
	require.True(t, ok)
	assert.Equal(t, 2.49, milk.IntrinsicValue())

	coupon, ok := s.Item("C1")
	require.True(t, ok)
	assert.Equal(t, catalog.KindCoupon, coupon.Kind())
	assert.Equal(t, 0.0, coupon.IntrinsicValue())
	assert.Equal(t, 0.5, coupon.NominalValue())
}

func TestParse_ItemValueIsAnExpression(t *testing.T) {
	s, diags := parseLines(t, "{0923}->3.00*2")
	assert.Empty(t, diags)

	wine, ok := s.Item("0923")
	require.True(t, ok)
	assert.Equal(t, 6.00, wine.IntrinsicValue())
}

func TestParse_BundleRule(t *testing.T) {
	s, diags := parseLines(t,
		"{6732}->1.00",
		"{4900}->2.00",
		"{Bundle}->{6732}{4900}=2.50",
	)
	assert.Empty(t, diags)

	rules := s.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "Bundle", rules[0].Name())
	assert.Equal(t, 2.50, rules[0].TargetAmount())
	assert.Equal(t, -0.50, rules[0].Adjustment())
	assert.True(t, s.ExistsInRule("6732"))
	assert.True(t, s.ExistsInRule("4900"))
}

func TestParse_RuleExpressionSubstitutesNominalValues(t *testing.T) {
	s, diags := parseLines(t,
		"{8873}->2.49",
		"{C1}->0.5",
		"{MilkCoupon}->{8873}{C1}={8873}*{C1}",
	)
	assert.Empty(t, diags)

	rules := s.Rules()
	require.Len(t, rules, 1)
	// Target 2.49*0.5 = 1.245; prior sum excludes the coupon: 2.49.
	assert.Equal(t, 1.245, rules[0].TargetAmount())
	assert.Equal(t, -1.25, rules[0].Adjustment())
}

func TestParse_RepeatedItemRequiresMultipleUnits(t *testing.T) {
	s, diags := parseLines(t,
		"{1983}->1.99",
		"{TwoFor}->{1983}{1983}=3.00",
	)
	assert.Empty(t, diags)

	rules := s.Rules()
	require.Len(t, rules, 1)
	assert.Len(t, rules[0].RequiredItems(), 2)
	assert.Equal(t, -0.98, rules[0].Adjustment())
}

func TestParse_Diagnostics(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		wantCode string
		wantLine int
	}{
		{
			name:     "missing separator",
			lines:    []string{"{1983} 1.99"},
			wantCode: CodeMalformedEntry,
			wantLine: 1,
		},
		{
			name:     "missing brace group in key",
			lines:    []string{"1983->1.99"},
			wantCode: CodeMalformedEntry,
			wantLine: 1,
		},
		{
			name:     "bad expression",
			lines:    []string{"{1983}->one ninety nine"},
			wantCode: CodeMalformedEntry,
			wantLine: 1,
		},
		{
			name:     "rule references unknown item",
			lines:    []string{"{1983}->1.99", "{Bundle}->{1983}{9999}=2.50"},
			wantCode: CodeUnknownItem,
			wantLine: 2,
		},
		{
			name:     "rule expression references unknown item",
			lines:    []string{"{1983}->1.99", "{Half}->{1983}={9999}*0.5"},
			wantCode: CodeUnknownItem,
			wantLine: 2,
		},
		{
			name:     "rule with no items",
			lines:    []string{"{Empty}->=2.50"},
			wantCode: CodeDefinitionError,
			wantLine: 1,
		},
		{
			name:     "duplicate item id",
			lines:    []string{"{1983}->1.99", "{1983}->2.99"},
			wantCode: CodeDefinitionError,
			wantLine: 2,
		},
		{
			name:     "duplicate rule name",
			lines:    []string{"{1983}->1.99", "{R}->{1983}=1.50", "{R}->{1983}=1.00"},
			wantCode: CodeDefinitionError,
			wantLine: 3,
		},
		{
			name:     "coupon fraction out of range",
			lines:    []string{"{C9}->1.5"},
			wantCode: CodeDefinitionError,
			wantLine: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := parseLines(t, tt.lines...)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.wantCode, diags[0].Code)
			assert.Equal(t, tt.wantLine, diags[0].Line)
		})
	}
}

func TestParse_SkippedLinesDoNotAbortLoading(t *testing.T) {
	s, diags := parseLines(t,
		"{1983}->1.99",
		"garbage line",
		"{4900}->2.00",
		"{Bundle}->{4900}{9999}=2.50",
		"{Pair}->{1983}{4900}=3.50",
	)
	assert.Len(t, diags, 2)

	_, ok := s.Item("1983")
	assert.True(t, ok)
	_, ok = s.Item("4900")
	assert.True(t, ok)
	require.Len(t, s.Rules(), 1)
	assert.Equal(t, "Pair", s.Rules()[0].Name())
}

func TestParse_FirstDeclarationWinsOnDuplicates(t *testing.T) {
	s, _ := parseLines(t,
		"{1983}->1.99",
		"{1983}->9.99",
	)
	it, ok := s.Item("1983")
	require.True(t, ok)
	assert.Equal(t, 1.99, it.IntrinsicValue())
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Line: 3, Code: CodeUnknownItem, Message: `unknown item "9999"`}
	assert.Equal(t, `line 3 [UNKNOWN_ITEM]: unknown item "9999"`, d.String())
}
