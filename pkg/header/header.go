// Package header extracts the dependency declaration embedded in the
// leading comment block of a GenVM contract (the "magic header").
//
// The declaration is a JSON document inside the comments, either
//
//	# { "Depends": "py-genlayer:test" }
//
// or, for multiple dependencies, an ordered sequence
//
//	# { "Seq": [
//	#   { "Depends": "py-genlayer:0.2.0" },
//	#   { "Depends": "py-genlayer-std:4a5b..." }
//	# ] }
//
// Absence of a header is not an error: it yields an empty declaration,
// which downstream components treat as unrestricted ("latest") operation.
package header

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrHeader indicates a magic header that is present but malformed.
var ErrHeader = errors.New("malformed contract header")

// Dependency is a single "package:value" entry from the magic header.
type Dependency struct {
	Package string `json:"package"`
	Value   string `json:"value"`
}

// Declaration is the ordered list of dependencies declared by a contract,
// in source encounter order. A contract without a header has an empty
// declaration.
type Declaration []Dependency

// Values returns the raw dependency values in declared order.
func (d Declaration) Values() []string {
	vals := make([]string, 0, len(d))
	for _, dep := range d {
		vals = append(vals, dep.Value)
	}
	return vals
}

// headerDoc mirrors the JSON document embedded in the comment block.
// Exactly one of Depends or Seq is expected.
type headerDoc struct {
	Depends string `json:"Depends"`
	Seq     []struct {
		Depends string `json:"Depends"`
	} `json:"Seq"`
}

// Parse extracts the dependency declaration from contract source.
// A missing header returns an empty declaration and no error; a header
// that is present but does not parse as the expected structure returns
// an error wrapping ErrHeader.
func Parse(source string) (Declaration, error) {
	body := leadingCommentBody(source)
	if body == "" {
		return nil, nil
	}

	blob, found := extractDocument(body)
	if !found {
		return nil, nil
	}

	var doc headerDoc
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeader, err)
	}

	if doc.Depends != "" && doc.Seq != nil {
		return nil, fmt.Errorf("%w: both Depends and Seq present", ErrHeader)
	}

	var raws []string
	switch {
	case doc.Depends != "":
		raws = []string{doc.Depends}
	case doc.Seq != nil:
		for _, entry := range doc.Seq {
			raws = append(raws, entry.Depends)
		}
	default:
		return nil, fmt.Errorf("%w: document has no Depends field", ErrHeader)
	}

	decl := make(Declaration, 0, len(raws))
	for _, raw := range raws {
		dep, err := splitDependency(raw)
		if err != nil {
			return nil, err
		}
		decl = append(decl, dep)
	}
	return decl, nil
}

// splitDependency splits a "name:value" string at the first colon.
func splitDependency(raw string) (Dependency, error) {
	name, value, ok := strings.Cut(raw, ":")
	if !ok || name == "" || value == "" {
		return Dependency{}, fmt.Errorf("%w: dependency %q is not name:value", ErrHeader, raw)
	}
	return Dependency{Package: name, Value: value}, nil
}

// leadingCommentBody collects the leading comment lines of the source with
// their comment markers stripped, joined by newlines. Scanning stops at the
// first non-blank, non-comment line.
func leadingCommentBody(source string) string {
	var lines []string
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		lines = append(lines, strings.TrimPrefix(trimmed, "#"))
	}
	return strings.Join(lines, "\n")
}

// extractDocument finds the first balanced JSON object in the body that
// mentions a Depends or Seq key. Comments that contain neither are not a
// header; brace-balanced extraction keeps multi-line Seq documents intact.
func extractDocument(body string) (string, bool) {
	for start := 0; start < len(body); {
		open := strings.Index(body[start:], "{")
		if open < 0 {
			return "", false
		}
		open += start
		blob, ok := balancedObject(body[open:])
		if !ok {
			// Unterminated object: if it names a dependency key it is a
			// broken header, surface it for the JSON decoder to reject.
			rest := body[open:]
			if strings.Contains(rest, `"Depends"`) || strings.Contains(rest, `"Seq"`) {
				return rest, true
			}
			return "", false
		}
		if strings.Contains(blob, `"Depends"`) || strings.Contains(blob, `"Seq"`) {
			return blob, true
		}
		start = open + len(blob)
	}
	return "", false
}

// balancedObject returns the prefix of s forming a balanced JSON object.
// Braces inside string literals are ignored.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
