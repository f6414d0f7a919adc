package patterns

import "strings"

// Options selects which rules a Catalog holds.
type Options struct {
	Mail  bool
	Phone bool
	IPv4  bool
	IPv6  bool
	// All enables every builtin regardless of the individual flags.
	All bool
	// Strings are literal values; each is trimmed and empties are dropped.
	Strings []string
}

// Enabled reports whether the builtin b is selected.
func (o Options) Enabled(b Builtin) bool {
	if o.All {
		return true
	}
	switch b {
	case Mail:
		return o.Mail
	case Phone:
		return o.Phone
	case IPv4:
		return o.IPv4
	case IPv6:
		return o.IPv6
	}
	return false
}

// Enable turns on the builtin b.
func (o *Options) Enable(b Builtin) {
	switch b {
	case Mail:
		o.Mail = true
	case Phone:
		o.Phone = true
	case IPv4:
		o.IPv4 = true
	case IPv6:
		o.IPv6 = true
	}
}

// Catalog is an immutable, ordered list of rules: literals first in the
// order supplied, then builtins in BuiltinOrder.
type Catalog struct {
	rules []Rule
}

// Build returns the catalog for opts. The same options always produce the
// same rules in the same order.
func Build(opts Options) Catalog {
	rules := make([]Rule, 0, len(opts.Strings)+len(BuiltinOrder))

	seen := make(map[string]bool, len(opts.Strings))
	for _, s := range opts.Strings {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		rules = append(rules, Literal(s))
	}

	for _, b := range BuiltinOrder {
		if opts.Enabled(b) {
			rules = append(rules, Regex(string(b), builtinPatterns[b]))
		}
	}

	return Catalog{rules: rules}
}

// Match returns the first rule in catalog order that matches text.
// text is expected to be already trimmed.
func (c Catalog) Match(text string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Match(text) {
			return r, true
		}
	}
	return nil, false
}

// Rules returns a copy of the rules in evaluation order.
func (c Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Names returns the rule names in evaluation order.
func (c Catalog) Names() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// Len returns the number of rules.
func (c Catalog) Len() int { return len(c.rules) }

// Empty reports whether the catalog has no rules at all.
func (c Catalog) Empty() bool { return len(c.rules) == 0 }

// ParseStrings splits a comma-separated literal list. Items are trimmed and
// empty items dropped.
func ParseStrings(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
