// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

type (
	// Rule is one substitution applied to a header's text.
	// Find is an RE2 pattern and Replace a template that may reference
	// submatches ($1, ${name}). With Literal set, Find is matched as plain
	// text and Replace is inserted verbatim.
	Rule struct {
		Find        string
		Replace     string
		Occurrences int
		Literal     bool
	}

	// Entry names a header, relative to the patch base directory, and the
	// rules applied to it in order.
	Entry struct {
		Path  string
		Rules []Rule
	}

	// Registry is the ordered, immutable table of entries the engine works on.
	// Entries are processed in declaration order.
	Registry struct {
		entries []Entry
	}
)

// NewRegistry builds a registry from entries, kept in the given order.
func NewRegistry(entries ...Entry) Registry {
	cloned := make([]Entry, len(entries))
	for i, e := range entries {
		cloned[i] = Entry{Path: e.Path, Rules: slices.Clone(e.Rules)}
	}
	return Registry{entries: cloned}
}

// DefaultRegistry returns the fixes the HTMLayout headers need to compile
// with gcc: both headers forward-declare structs that are later used
// without the struct keyword.
func DefaultRegistry() Registry {
	return NewRegistry(
		Entry{
			Path: "htmlayout_dom.h",
			Rules: []Rule{
				{
					Find:        "struct htmlayout_dom_element;",
					Replace:     "typedef struct htmlayout_dom_element {} htmlayout_dom_element;",
					Occurrences: 1,
				},
			},
		},
		Entry{
			Path: "htmlayout_behavior.h",
			Rules: []Rule{
				{
					Find:        "struct EXCHANGE_PARAMS;",
					Replace:     "typedef struct EXCHANGE_PARAMS EXCHANGE_PARAMS;",
					Occurrences: 1,
				},
			},
		},
	)
}

// Entries returns a copy of the registry's entries in processing order.
func (r Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{Path: e.Path, Rules: slices.Clone(e.Rules)}
	}
	return out
}

// Len returns the number of entries.
func (r Registry) Len() int { return len(r.entries) }

// Validate checks that every path is relative, clean and unique and that
// every rule compiles with Occurrences >= 1.
func (r Registry) Validate() error {
	seen := make(map[string]bool, len(r.entries))
	for i, e := range r.entries {
		if e.Path == "" || filepath.IsAbs(e.Path) || filepath.Clean(e.Path) != e.Path || strings.HasPrefix(e.Path, "..") {
			return fmt.Errorf("%w: entry[%d]: path %q must be clean and relative", ErrInvalidRegistry, i, e.Path)
		}
		if seen[e.Path] {
			return fmt.Errorf("%w: entry[%d]: duplicate path %q", ErrInvalidRegistry, i, e.Path)
		}
		seen[e.Path] = true

		if len(e.Rules) == 0 {
			return fmt.Errorf("%w: entry %q has no rules", ErrInvalidRegistry, e.Path)
		}
		for j, rule := range e.Rules {
			if rule.Occurrences < 1 {
				return fmt.Errorf("%w: %s rule[%d]: occurrences must be >= 1, got %d", ErrInvalidRegistry, e.Path, j, rule.Occurrences)
			}
			if _, err := rule.compile(); err != nil {
				return fmt.Errorf("%w: %s rule[%d]: %w", ErrInvalidRegistry, e.Path, j, err)
			}
		}
	}
	return nil
}

func (r Rule) compile() (*regexp.Regexp, error) {
	pattern := r.Find
	if r.Literal {
		pattern = regexp.QuoteMeta(r.Find)
	}
	return regexp.Compile(pattern)
}

// apply replaces at most r.Occurrences matches in text and returns the new
// text along with the number of matches replaced.
func (r Rule) apply(text string) (string, int, error) {
	re, err := r.compile()
	if err != nil {
		return "", 0, err
	}

	matches := re.FindAllStringSubmatchIndex(text, r.Occurrences)
	if len(matches) == 0 {
		return text, 0, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m[0]])
		if r.Literal {
			sb.WriteString(r.Replace)
		} else {
			sb.Write(re.ExpandString(nil, r.Replace, text, m))
		}
		last = m[1]
	}
	sb.WriteString(text[last:])

	return sb.String(), len(matches), nil
}

// transform runs every rule of e over text in order. A rule that matches
// fewer than its Occurrences yields a *RuleMismatchError.
func (e Entry) transform(text string) (string, error) {
	for _, rule := range e.Rules {
		next, n, err := rule.apply(text)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrInvalidRegistry, e.Path, err)
		}
		if n < rule.Occurrences {
			return "", &RuleMismatchError{Path: e.Path, Find: rule.Find, Want: rule.Occurrences, Got: n}
		}
		text = next
	}
	return text, nil
}
