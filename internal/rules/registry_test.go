package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digimosa/gdpr-scan/internal/models"
)

func TestDefaultsCompile(t *testing.T) {
	reg, err := Load(Defaults())
	require.NoError(t, err)
	assert.Equal(t, len(Defaults()), reg.Len())

	for _, r := range reg.AllRules() {
		assert.NotNil(t, r.Matcher.Regexp(), "rule %s has no compiled matcher", r.ID)
		assert.Equal(t, originBuiltin, r.Origin)
		assert.True(t, r.RiskLevel.Valid(), "rule %s", r.ID)
	}
}

func TestAllRulesSortedByID(t *testing.T) {
	reg, err := Load(Defaults())
	require.NoError(t, err)

	all := reg.AllRules()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	dutch := reg.RulesForCategory(models.CategoryDutch)
	require.NotEmpty(t, dutch)
	for _, r := range dutch {
		assert.Equal(t, models.CategoryDutch, r.Category)
	}

	_, ok := reg.Rule("bsn")
	assert.True(t, ok)
	_, ok = reg.Rule("does-not-exist")
	assert.False(t, ok)
}

func TestCustomRuleOverridesDefault(t *testing.T) {
	doc := []byte(`
rules:
  - id: email
    category: PII
    matcher:
      regex: '[a-z]+@corp\.example'
    risk_level: high
    confidence_base: 0.7
`)
	reg, err := Load(Defaults(), BytesSource{Label: "custom.yaml", Data: doc})
	require.NoError(t, err)
	assert.Equal(t, len(Defaults()), reg.Len())

	r, ok := reg.Rule("email")
	require.True(t, ok)
	assert.Equal(t, `[a-z]+@corp\.example`, r.Matcher.Pattern)
	assert.Equal(t, models.RiskHigh, r.RiskLevel)
	assert.Equal(t, "custom.yaml", r.Origin)
	assert.InDelta(t, 0.7, r.ConfidenceBase, 1e-9)
}

func TestLastSourceWins(t *testing.T) {
	first := BytesSource{Label: "a", Data: []byte(`[{id: x, category: secret, matcher: 'aaa'}]`)}
	second := BytesSource{Label: "b", Data: []byte(`[{id: x, category: secret, matcher: 'bbb'}]`)}

	reg, err := Load(nil, first, second)
	require.NoError(t, err)
	r, ok := reg.Rule("x")
	require.True(t, ok)
	assert.Equal(t, "bbb", r.Matcher.Pattern)
	assert.Equal(t, "b", r.Origin)
}

func TestInvalidRulesAreSkipped(t *testing.T) {
	doc := []byte(`
- id: good
  category: dutch-specific
  matcher: {literals: [huisarts]}
- id: no_matcher
  category: PII
- category: PII
  matcher: 'abc'
- id: bad_regex
  category: secret
  matcher: '([a-z'
- id: bad_category
  category: finance
  matcher: 'abc'
- id: two_matchers
  category: PII
  matcher: {regex: 'abc', checksum: bsn}
- id: bad_checksum
  category: PII
  matcher: {checksum: crc32}
`)
	reg, err := Load(nil, BytesSource{Label: "mixed", Data: doc})
	require.NotNil(t, reg)
	require.Error(t, err)

	var le *RuleLoadError
	require.True(t, errors.As(err, &le))
	assert.False(t, le.Fatal)

	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Rule("good")
	assert.True(t, ok)

	for _, id := range []string{"no_matcher", "bad_regex", "bad_category", "two_matchers", "bad_checksum"} {
		assert.Contains(t, err.Error(), id)
	}
}

func TestUnreadableSourceIsFatal(t *testing.T) {
	reg, err := Load(Defaults(), FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Nil(t, reg)
	require.Error(t, err)

	var le *RuleLoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, le.Fatal)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestUnparseableSourceIsFatal(t *testing.T) {
	reg, err := Load(nil, BytesSource{Data: []byte("rules: [unterminated")})
	assert.Nil(t, reg)
	require.Error(t, err)
}

func TestJSONRuleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	doc := `{"rules": [{"id": "employee_id", "category": "dutch-specific",
	  "matcher": {"regex": "EMP-[0-9]{6}"}, "region_tags": ["UAVG", "GDPR-Art88"], "unknown_field": true}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	reg, err := Load(nil, FileSource{Path: path})
	require.NoError(t, err)

	r, ok := reg.Rule("employee_id")
	require.True(t, ok)
	assert.Equal(t, []string{"GDPR-Art88", "UAVG"}, r.RegionTags)
	assert.Equal(t, "EMPLOYEE_ID", r.Type)
	assert.Equal(t, models.RiskMedium, r.RiskLevel)
	assert.True(t, r.Matcher.Regexp().MatchString("id EMP-123456"))
}

func TestMatcherVariants(t *testing.T) {
	doc := []byte(`
- {id: a, category: PII, matcher: 'foo[0-9]+'}
- {id: b, category: dutch, matcher: {checksum: bsn}}
- {id: c, category: secrets, matcher: {entropy: 4.2}}
- {id: d, category: ai, matcher: {literals: [DeepFace, face.recognize]}}
`)
	reg, err := Load(nil, BytesSource{Data: doc})
	require.NoError(t, err)

	tests := []struct {
		id       string
		kind     MatcherKind
		category models.Category
		input    string
	}{
		{"a", MatchRegex, models.CategoryPII, "foo42"},
		{"b", MatchChecksum, models.CategoryDutch, "bsn 111222333"},
		{"c", MatchEntropy, models.CategorySecret, "token Zx9Qw2Lm8Rt5Yp3Vb7Nc"},
		{"d", MatchLiteral, models.CategoryAIPattern, "import deepface"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, ok := reg.Rule(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.kind, r.Matcher.Kind)
			assert.Equal(t, tt.category, r.Category)
			assert.True(t, r.Matcher.Regexp().MatchString(tt.input))
		})
	}

	c, _ := reg.Rule("c")
	assert.InDelta(t, 4.2, c.MinEntropy, 1e-9)
	assert.Equal(t, defaultEntropyMinLength, c.MinLength)

	b, _ := reg.Rule("b")
	assert.Equal(t, ChecksumBSN, b.Checksum)

	d, _ := reg.Rule("d")
	assert.False(t, d.Matcher.Regexp().MatchString("faceXrecognize"), "literal dots must be escaped")
}

func TestLiteralSource(t *testing.T) {
	src := LiteralSource{ID: "project_codenames", Values: []string{"Project Tulip", " ", "Zeeland"}}
	reg, err := Load(nil, src)
	require.NoError(t, err)

	r, ok := reg.Rule("project_codenames")
	require.True(t, ok)
	assert.Equal(t, models.CategoryPII, r.Category)
	assert.Equal(t, []string{"Project Tulip", "Zeeland"}, r.Literals())
	assert.True(t, r.Matcher.Regexp().MatchString("see project tulip notes"))

	empty, err := Load(nil, LiteralSource{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestSpecificityOrdering(t *testing.T) {
	reg, err := Load(Defaults())
	require.NoError(t, err)

	get := func(id string) PatternRule {
		r, ok := reg.Rule(id)
		require.True(t, ok, id)
		return r
	}
	assert.Greater(t, get("bsn").Specificity(), get("credit_card").Specificity())
	assert.Greater(t, get("credit_card").Specificity(), get("stripe_secret_key").Specificity())
	assert.Greater(t, get("stripe_secret_key").Specificity(), get("national_id_field").Specificity())
	assert.Greater(t, get("national_id_field").Specificity(), get("generic_api_key").Specificity())
	assert.Greater(t, get("generic_api_key").Specificity(), get("high_entropy_token").Specificity())
}

func TestRegistryDoesNotShareInput(t *testing.T) {
	in := []PatternRule{{ID: "x", Category: models.CategoryPII, Matcher: Regex("abc"), RegionTags: []string{"GDPR-Art5"}}}
	reg, err := Load(in)
	require.NoError(t, err)

	in[0].RegionTags[0] = "mutated"
	r, _ := reg.Rule("x")
	assert.Equal(t, []string{"GDPR-Art5"}, r.RegionTags)
}
