package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Builtin identifies one of the predefined sensitive-data shapes.
type Builtin string

const (
	Mail  Builtin = "mail"
	Phone Builtin = "phone"
	IPv4  Builtin = "ipv4"
	IPv6  Builtin = "ipv6"
)

// BuiltinOrder is the fixed evaluation order of builtin rules.
var BuiltinOrder = []Builtin{Mail, IPv6, IPv4, Phone}

// ParseBuiltin maps a rule name (case-insensitive) to its Builtin.
func ParseBuiltin(name string) (Builtin, error) {
	switch b := Builtin(strings.ToLower(strings.TrimSpace(name))); b {
	case Mail, Phone, IPv4, IPv6:
		return b, nil
	default:
		return "", fmt.Errorf("unknown pattern: %q (must be mail, phone, ipv4 or ipv6)", name)
	}
}

// Email: dot-atom or quoted local part, then a hostname or a bracketed
// address literal. Only lowercase letters are accepted.
const (
	mailAtom   = "[a-z0-9!#$%&'*+/=?^_`{|}~-]"
	mailQuoted = `"(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21\x23-\x5b\x5d-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])*"`
	mailLocal  = `(?:` + mailAtom + `+(?:\.` + mailAtom + `+)*|` + mailQuoted + `)`
	mailHost   = `(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?`
	mailOctet  = `(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`
	mailLitTag = `[a-z0-9-]*[a-z0-9]:(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21-\x5a\x53-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])+`
	mailLit    = `\[(?:` + mailOctet + `\.){3}(?:` + mailOctet + `|` + mailLitTag + `)\]`
	mailExpr   = mailLocal + `@(?:` + mailHost + `|` + mailLit + `)`
)

// French numbers: +33 or 0, then 1+2+2+2+2 digits with optional space or
// dot separators.
const phoneExpr = `(?:\+33|0)\d(?:\.|\s)?\d{2}(?:\.|\s)?\d{2}(?:\.|\s)?\d{2}(?:\.|\s)?\d{2}`

const portExpr = `(?::(?:[0-9]|[1-9][0-9]{1,3}|[1-5][0-9]{4}|6[0-4][0-9]{3}|65[0-4][0-9]{2}|655[0-2][0-9]|6553[0-5]))?`

const (
	ipv4Octet = `(?:\d|[1-9]\d|1\d\d|2[0-4]\d|25[0-5])`
	ipv4Expr  = `(?:` + ipv4Octet + `\.){3}` + ipv4Octet + portExpr
)

const (
	h16       = `[0-9A-Fa-f]{1,4}`
	ipv6Octet = `\b(?:25[0-5]|1\d{2}|2[0-4]\d|\d{1,2})\b`
	ipv6V4    = `(?:` + ipv6Octet + `\.){3}` + ipv6Octet
	ipv6Addr  = `(?:` +
		`(?:` + h16 + `:){7}` + h16 +
		`|(?:` + h16 + `:){6}:` + h16 +
		`|(?:` + h16 + `:){5}:(?:` + h16 + `:)?` + h16 +
		`|(?:` + h16 + `:){4}:(?:` + h16 + `:){0,2}` + h16 +
		`|(?:` + h16 + `:){3}:(?:` + h16 + `:){0,3}` + h16 +
		`|(?:` + h16 + `:){2}:(?:` + h16 + `:){0,4}` + h16 +
		`|(?:` + h16 + `:){6}` + ipv6V4 +
		`|(?:` + h16 + `:){0,5}:` + ipv6V4 +
		`|::(?:` + h16 + `:){0,5}` + ipv6V4 +
		`|` + h16 + `::(?:` + h16 + `:){0,5}` + h16 +
		`|::(?:` + h16 + `:){0,6}` + h16 +
		`|(?:` + h16 + `:){1,7}:` +
		`)`
	ipv6Expr = ipv6Addr + `|\[` + ipv6Addr + `\]` + portExpr
)

// Builtin patterns are anchored at the start of the token only: a token is
// sensitive when it begins with a value of the given shape.
var builtinPatterns = map[Builtin]*regexp.Regexp{
	Mail:  prefix(mailExpr),
	Phone: prefix(phoneExpr),
	IPv4:  prefix(ipv4Expr),
	IPv6:  prefix(ipv6Expr),
}

func prefix(expr string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + expr + `)`)
}
