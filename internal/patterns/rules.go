package patterns

import "regexp"

// Kind distinguishes literal rules from pattern rules.
type Kind int

const (
	KindLiteral Kind = iota
	KindPattern
)

func (k Kind) String() string {
	if k == KindLiteral {
		return "literal"
	}
	return "pattern"
}

// Rule is a pure predicate over trimmed token text.
type Rule interface {
	Name() string
	Kind() Kind
	Match(text string) bool
}

// LiteralName is the rule name reported for every user literal.
const LiteralName = "literal"

type literalRule struct {
	value string
}

// Literal returns a rule matching text exactly equal to value (case-sensitive).
func Literal(value string) Rule { return &literalRule{value: value} }

func (r *literalRule) Name() string           { return LiteralName }
func (r *literalRule) Kind() Kind             { return KindLiteral }
func (r *literalRule) Match(text string) bool { return text == r.value }

type regexRule struct {
	name    string
	pattern *regexp.Regexp
}

// Regex returns a rule named name that matches when pattern matches text.
// Anchoring is the caller's business; builtin patterns are prefix-anchored.
func Regex(name string, pattern *regexp.Regexp) Rule {
	return &regexRule{name: name, pattern: pattern}
}

func (r *regexRule) Name() string           { return r.name }
func (r *regexRule) Kind() Kind             { return KindPattern }
func (r *regexRule) Match(text string) bool { return r.pattern.MatchString(text) }
