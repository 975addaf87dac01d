package urimatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateMatch(t *testing.T) {
	tests := []struct {
		name     string
		template string
		uri      string
		want     map[string]string
		ok       bool
	}{
		{"single var", "file:///{name}", "file:///readme.md", map[string]string{"name": "readme.md"}, true},
		{"two vars", "db://{table}/{id}", "db://users/42", map[string]string{"table": "users", "id": "42"}, true},
		{"var does not cross slash", "file:///{name}", "file:///a/b", nil, false},
		{"empty segment", "file:///{name}", "file:///", nil, false},
		{"literal mismatch", "notes://{id}", "files://1", nil, false},
		{"anchored end", "notes://{id}", "notes://1?x=1", map[string]string{"id": "1?x=1"}, true},
		{"trailing literal", "notes://{id}/body", "notes://1/body", map[string]string{"id": "1"}, true},
		{"trailing literal missing", "notes://{id}/body", "notes://1", nil, false},
		{"regex chars are literal", "a.b://{x}", "aXb://y", nil, false},
		{"dot matches literally", "a.b://{x}", "a.b://y", map[string]string{"x": "y"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Compile(tt.template)
			require.NoError(t, err)
			vars, ok := tmpl.Match(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, vars)
		})
	}
}

func TestCompileRejects(t *testing.T) {
	for _, tmpl := range []string{"", "file:///{+path}", "q://x{?a,b}", "file:///{name"} {
		_, err := Compile(tmpl)
		assert.ErrorIs(t, err, ErrInvalidTemplate, "template %q", tmpl)
	}
}

func TestVarnames(t *testing.T) {
	tmpl, err := Compile("db://{table}/{id}")
	require.NoError(t, err)
	assert.Equal(t, []string{"table", "id"}, tmpl.Varnames())
	assert.Equal(t, "db://{table}/{id}", tmpl.String())
}

func TestMatcherFirstRegisteredWins(t *testing.T) {
	var m Matcher[string]
	require.NoError(t, m.Add("notes://{id}", "by-id"))
	require.NoError(t, m.Add("notes://{slug}", "by-slug"))

	v, vars, ok := m.Match("notes://7")
	require.True(t, ok)
	assert.Equal(t, "by-id", v)
	assert.Equal(t, map[string]string{"id": "7"}, vars)

	_, _, ok = m.Match("other://7")
	assert.False(t, ok)
}

func TestMatcherReplaceKeepsPosition(t *testing.T) {
	var m Matcher[int]
	require.NoError(t, m.Add("a://{x}", 1))
	require.NoError(t, m.Add("a://{y}", 2))
	require.NoError(t, m.Add("a://{x}", 3))
	assert.Equal(t, 2, m.Len())

	v, _, ok := m.Match("a://z")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	m.Reset()
	assert.Equal(t, 0, m.Len())
}
