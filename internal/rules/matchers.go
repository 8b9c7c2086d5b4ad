package rules

import (
	"regexp"
	"strings"

	"github.com/joshsymonds/mailexpiry/internal/gmailctl"
)

var angleBracketRe = regexp.MustCompile(`^[<\s]*(.*?)[>\s]*$`)

const listIDMatchGroups = 2

// buildGroups returns the criteria as OR branches. The dedicated fields are
// ANDed into every branch of the query.
func buildGroups(c gmailctl.FilterCriteria) ([][]matcher, bool) {
	var base []matcher
	if strings.TrimSpace(c.From) != "" {
		base = append(base, matcher{kind: matcherFrom, values: splitCandidates(c.From)})
	}
	if strings.TrimSpace(c.To) != "" {
		base = append(base, matcher{kind: matcherTo, values: splitCandidates(c.To)})
	}
	if strings.TrimSpace(c.Subject) != "" {
		base = append(base, matcher{kind: matcherSubject, values: splitCandidates(c.Subject)})
	}
	if strings.TrimSpace(c.List) != "" {
		base = append(base, matcher{kind: matcherList, values: []string{normalizeListID(c.List)}})
	}
	if strings.TrimSpace(c.Query) == "" {
		if len(base) == 0 {
			return nil, false
		}
		return [][]matcher{base}, true
	}
	branches, ok := parseQuery(c.Query)
	if !ok {
		return nil, false
	}
	groups := make([][]matcher, 0, len(branches))
	for _, branch := range branches {
		group := append(append([]matcher(nil), base...), branch...)
		groups = append(groups, group)
	}
	return groups, true
}

// parseQuery understands plain from:/to:/subject:/list: tokens joined by
// implicit AND and top-level OR. A single pair of parentheses around the
// whole query is allowed. Anything else, including negation or OR inside
// nested parentheses, makes the whole rule unevaluable.
func parseQuery(query string) ([][]matcher, bool) {
	query = stripOuterParens(strings.TrimSpace(query))
	var (
		branches [][]matcher
		current  []matcher
		depth    int
	)
	for _, raw := range strings.Fields(query) {
		tok := strings.Trim(raw, "()\"'")
		if strings.EqualFold(tok, "OR") {
			if depth != 0 || len(current) == 0 {
				return nil, false
			}
			branches = append(branches, current)
			current = nil
			continue
		}
		depth += strings.Count(raw, "(") - strings.Count(raw, ")")
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "-") {
			return nil, false
		}
		m, ok := matcherFromToken(tok)
		if !ok {
			return nil, false
		}
		current = append(current, m)
	}
	if len(current) == 0 {
		return nil, false
	}
	return append(branches, current), true
}

// stripOuterParens removes one pair of parentheses enclosing all of q.
func stripOuterParens(q string) string {
	if !strings.HasPrefix(q, "(") || !strings.HasSuffix(q, ")") {
		return q
	}
	depth := 0
	for i, r := range q {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(q)-1 {
				return q
			}
		}
	}
	return strings.TrimSpace(q[1 : len(q)-1])
}

func matcherFromToken(token string) (matcher, bool) {
	prefixes := []struct {
		prefix string
		kind   matcherKind
	}{
		{"from:", matcherFrom},
		{"to:", matcherTo},
		{"subject:", matcherSubject},
		{"list:", matcherList},
	}
	lower := strings.ToLower(token)
	for _, p := range prefixes {
		if !strings.HasPrefix(lower, p.prefix) {
			continue
		}
		rest := token[len(p.prefix):]
		if p.kind == matcherList {
			val := normalizeListID(rest)
			if val == "" {
				return matcher{}, false
			}
			return matcher{kind: matcherList, values: []string{val}}, true
		}
		vals := splitCandidates(rest)
		if len(vals) == 0 {
			return matcher{}, false
		}
		return matcher{kind: p.kind, values: vals}, true
	}
	return matcher{}, false
}

func splitCandidates(raw string) []string {
	replacer := strings.NewReplacer(",", " ", ";", " ", "|", " ")
	raw = strings.TrimSpace(replacer.Replace(raw))
	if raw == "" {
		return nil
	}
	parts := strings.Fields(raw)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.Trim(part, "\"'()"))
		if part == "" || part == "or" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func containsAny(header string, values []string) bool {
	header = strings.ToLower(header)
	for _, val := range values {
		if strings.Contains(header, val) {
			return true
		}
	}
	return false
}

func matchListID(raw string, values []string) bool {
	listID := normalizeListID(raw)
	if listID == "" {
		return false
	}
	for _, val := range values {
		if strings.Contains(listID, val) {
			return true
		}
	}
	return false
}

// normalizeListID strips the display name, angle brackets and quotes from a
// List-Id header value, e.g. `"Go Nuts" <golang-nuts.googlegroups.com>`.
func normalizeListID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if i := strings.LastIndex(raw, "<"); i > 0 {
		raw = raw[i:]
	}
	if matches := angleBracketRe.FindStringSubmatch(raw); len(matches) == listIDMatchGroups {
		raw = matches[1]
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ">")
	raw = strings.TrimPrefix(raw, "<")
	raw = strings.Trim(raw, "\" ")
	return strings.ToLower(raw)
}
