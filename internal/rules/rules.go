// Package rules replays compiled gmailctl filters against message headers to
// predict which user labels the filters apply. Gmail runs filters on
// delivery, but a message fetched in the same pass can still show the label
// set from before filtering.
package rules

import (
	"strings"

	"github.com/joshsymonds/mailexpiry/internal/gmail"
	"github.com/joshsymonds/mailexpiry/internal/gmailctl"
)

type matcherKind int

const (
	matcherFrom matcherKind = iota
	matcherTo
	matcherSubject
	matcherList
)

type matcher struct {
	kind   matcherKind
	values []string
}

func (m matcher) matches(msg gmail.Message) bool {
	switch m.kind {
	case matcherFrom:
		return containsAny(msg.Header("from"), m.values)
	case matcherTo:
		return containsAny(msg.Header("to"), m.values)
	case matcherSubject:
		return containsAny(msg.Header("subject"), m.values)
	case matcherList:
		return matchListID(msg.Header("list-id"), m.values)
	default:
		return false
	}
}

// Rule is one compiled filter.
type Rule struct {
	Name      string
	Labels    []string
	Evaluable bool
	groups    [][]matcher // OR of ANDs
}

// Matches reports whether every criterion of some OR branch of r holds for
// msg. Unevaluable rules never match.
func (r Rule) Matches(msg gmail.Message) bool {
	if !r.Evaluable {
		return false
	}
	for _, group := range r.groups {
		if allMatch(group, msg) {
			return true
		}
	}
	return false
}

func allMatch(group []matcher, msg gmail.Message) bool {
	for _, m := range group {
		if !m.matches(msg) {
			return false
		}
	}
	return true
}

// Set is an ordered collection of compiled rules.
type Set struct {
	Rules []Rule
}

// Compile turns a gmailctl export into rules. labelsByID resolves label IDs
// that the export itself does not name.
func Compile(export gmailctl.Export, labelsByID map[gmail.LabelID]string) *Set {
	labelNames := make(map[string]string, len(labelsByID)+len(export.Labels))
	for id, name := range labelsByID {
		labelNames[string(id)] = name
	}
	for _, lbl := range export.Labels {
		if lbl.ID != "" && lbl.Name != "" {
			labelNames[lbl.ID] = lbl.Name
		}
	}
	set := &Set{Rules: make([]Rule, 0, len(export.Filters))}
	for _, filt := range export.Filters {
		groups, evaluable := buildGroups(filt.Criteria)
		set.Rules = append(set.Rules, Rule{
			Name:      ruleName(filt),
			Labels:    addedLabels(filt.Action, labelNames),
			Evaluable: evaluable,
			groups:    groups,
		})
	}
	return set
}

// Matching returns the rules that match msg, in rule order. A nil Set
// matches nothing.
func (s *Set) Matching(msg gmail.Message) []Rule {
	if s == nil {
		return nil
	}
	var out []Rule
	for _, r := range s.Rules {
		if r.Matches(msg) {
			out = append(out, r)
		}
	}
	return out
}

// AppliedLabels returns the names of labels that matching rules add to msg,
// in rule order and without duplicates.
func (s *Set) AppliedLabels(msg gmail.Message) []string {
	return LabelsOf(s.Matching(msg))
}

// LabelsOf collects the labels of matched rules without duplicates.
func LabelsOf(matched []Rule) []string {
	var out []string
	for _, r := range matched {
		for _, lbl := range r.Labels {
			out = appendIfMissing(out, lbl)
		}
	}
	return out
}

// NamesOf returns the names of matched rules.
func NamesOf(matched []Rule) []string {
	if len(matched) == 0 {
		return nil
	}
	out := make([]string, 0, len(matched))
	for _, r := range matched {
		out = append(out, r.Name)
	}
	return out
}

func ruleName(filt gmailctl.Filter) string {
	if name := strings.TrimSpace(filt.Name); name != "" {
		return name
	}
	if id := strings.TrimSpace(filt.ID); id != "" {
		return id
	}
	return describeCriteria(filt.Criteria)
}

// System labels (STARRED, IMPORTANT, CATEGORY_*) carry no name in the export
// and are skipped.
func addedLabels(action gmailctl.FilterAction, labelNames map[string]string) []string {
	var labels []string
	for _, id := range action.AddLabelIDs {
		if name, ok := labelNames[id]; ok && name != "" {
			labels = appendIfMissing(labels, name)
		}
	}
	return labels
}

func describeCriteria(c gmailctl.FilterCriteria) string {
	switch {
	case c.From != "":
		return "from:" + strings.TrimSpace(c.From)
	case c.List != "":
		return "list:" + strings.TrimSpace(c.List)
	case c.Subject != "":
		return "subject:" + strings.TrimSpace(c.Subject)
	case c.Query != "":
		return strings.TrimSpace(c.Query)
	default:
		return "gmailctl-rule"
	}
}

func appendIfMissing(slice []string, val string) []string {
	for _, existing := range slice {
		if existing == val {
			return slice
		}
	}
	return append(slice, val)
}
