// Package urimatch matches concrete resource URIs against an ordered list of
// simple (level 1) URI templates and extracts the template variables.
package urimatch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/yosida95/uritemplate/v3"
)

// ErrInvalidTemplate is returned for templates that do not parse or use
// expressions beyond simple {name} substitution.
var ErrInvalidTemplate = errors.New("invalid uri template")

var (
	exprRe    = regexp.MustCompile(`\{([^{}]*)\}`)
	varnameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Template is a compiled URI template.
type Template struct {
	raw   string
	names []string
	re    *regexp.Regexp
}

// Compile parses template. Every {name} expression matches one non-empty
// path segment; all other characters match literally.
func Compile(template string) (*Template, error) {
	if template == "" {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidTemplate)
	}
	parsed, err := uritemplate.New(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, template, err)
	}

	var pattern strings.Builder
	pattern.WriteByte('^')
	names := make([]string, 0, len(parsed.Varnames()))
	last := 0
	for _, loc := range exprRe.FindAllStringSubmatchIndex(template, -1) {
		name := template[loc[2]:loc[3]]
		if !varnameRe.MatchString(name) {
			return nil, fmt.Errorf("%w: %q: unsupported expression {%s}", ErrInvalidTemplate, template, name)
		}
		if err := literal(&pattern, template[last:loc[0]]); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, template, err)
		}
		pattern.WriteString(`([^/]+)`)
		names = append(names, name)
		last = loc[1]
	}
	if err := literal(&pattern, template[last:]); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, template, err)
	}
	pattern.WriteByte('$')

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, template, err)
	}
	return &Template{raw: template, names: names, re: re}, nil
}

func literal(b *strings.Builder, s string) error {
	if strings.ContainsAny(s, "{}") {
		return errors.New("unbalanced braces")
	}
	b.WriteString(regexp.QuoteMeta(s))
	return nil
}

// String returns the template source.
func (t *Template) String() string { return t.raw }

// Varnames lists the template's variables in order of appearance.
func (t *Template) Varnames() []string { return append([]string(nil), t.names...) }

// Match reports whether uri fits the template and, if so, returns the
// extracted variables. A variable repeated in the template keeps its last
// captured value.
func (t *Template) Match(uri string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}
	vars := make(map[string]string, len(t.names))
	for i, name := range t.names {
		vars[name] = m[i+1]
	}
	return vars, true
}

type entry[V any] struct {
	tmpl  *Template
	value V
}

// Matcher holds templates in registration order. It is safe for concurrent
// use.
type Matcher[V any] struct {
	mu      sync.RWMutex
	entries []entry[V]
}

// Add compiles template and appends it. Adding a template that is already
// present replaces its value in place.
func (m *Matcher[V]) Add(template string, value V) error {
	t, err := Compile(template)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].tmpl.raw == template {
			m.entries[i] = entry[V]{tmpl: t, value: value}
			return nil
		}
	}
	m.entries = append(m.entries, entry[V]{tmpl: t, value: value})
	return nil
}

// Match returns the value of the first template that matches uri.
func (m *Matcher[V]) Match(uri string) (V, map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if vars, ok := e.tmpl.Match(uri); ok {
			return e.value, vars, true
		}
	}
	var zero V
	return zero, nil, false
}

// Len reports the number of templates.
func (m *Matcher[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Reset removes every template.
func (m *Matcher[V]) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}
