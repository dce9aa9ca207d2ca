// Package contenttype decides whether a Content-Type header selects XML
// processing.
package contenttype

import (
	"fmt"
	"regexp"
	"strings"
)

// MIMEType is the Content-Type set on encoded request bodies.
const MIMEType = "application/xml"

// Header is the canonical Content-Type header name.
const Header = "Content-Type"

// Default patterns.
const (
	// RequestPattern accepts application/xml and vendor types such as
	// application/vnd.myapp.v1+xml.
	RequestPattern = `^application/(vnd\..+\+)?xml$`

	// ResponsePattern accepts any media type ending in xml.
	ResponsePattern = `\bxml$`
)

// Matcher tests a normalized media type.
type Matcher interface {
	Match(mediaType string) bool
	String() string
}

// Exact matches one media type, ignoring case.
type Exact string

// Match implements Matcher.
func (e Exact) Match(mediaType string) bool {
	return strings.EqualFold(string(e), mediaType)
}

func (e Exact) String() string {
	return fmt.Sprintf("%q", string(e))
}

// Regexp matches media types containing a pattern match.
type Regexp struct {
	re *regexp.Regexp
}

// MustRegexp compiles pattern and panics on error. Use it for constants.
func MustRegexp(pattern string) Regexp {
	return Regexp{re: regexp.MustCompile(pattern)}
}

// NewRegexp compiles pattern.
func NewRegexp(pattern string) (Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regexp{}, fmt.Errorf("invalid content type pattern %q: %w", pattern, err)
	}
	return Regexp{re: re}, nil
}

// Match implements Matcher.
func (r Regexp) Match(mediaType string) bool {
	return r.re != nil && r.re.MatchString(mediaType)
}

func (r Regexp) String() string {
	if r.re == nil {
		return "/<nil>/"
	}
	return "/" + r.re.String() + "/"
}

// Spec is a set of matchers. An empty Spec matches every content type.
type Spec []Matcher

// RequestSpec returns the default spec of the request transform: an absent
// header or an XML media type.
func RequestSpec() Spec {
	return Spec{Exact(""), MustRegexp(RequestPattern)}
}

// ResponseSpec returns the default spec of the response transform.
func ResponseSpec() Spec {
	return Spec{MustRegexp(ResponsePattern)}
}

// Parse builds a Spec from exact media types followed by regular
// expressions.
func Parse(exact, patterns []string) (Spec, error) {
	spec := make(Spec, 0, len(exact)+len(patterns))
	for _, e := range exact {
		spec = append(spec, Exact(Normalize(e)))
	}
	for _, p := range patterns {
		re, err := NewRegexp(p)
		if err != nil {
			return nil, err
		}
		spec = append(spec, re)
	}
	return spec, nil
}

// Applies reports whether header satisfies the spec.
func (s Spec) Applies(header string) bool {
	if len(s) == 0 {
		return true
	}
	mediaType := Normalize(header)
	for _, m := range s {
		if m.Match(mediaType) {
			return true
		}
	}
	return false
}

func (s Spec) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Applies reports whether header satisfies spec.
func Applies(header string, spec Spec) bool {
	return spec.Applies(header)
}

// Normalize strips media type parameters and surrounding whitespace.
func Normalize(header string) string {
	if i := strings.IndexByte(header, ';'); i >= 0 {
		header = header[:i]
	}
	return strings.TrimSpace(header)
}
