package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/mailexpiry/internal/gmail"
	"github.com/joshsymonds/mailexpiry/internal/gmailctl"
)

func testExport() gmailctl.Export {
	return gmailctl.Export{
		Filters: []gmailctl.Filter{
			{
				Name:     "shipping",
				Criteria: gmailctl.FilterCriteria{From: "ship-confirm@amazon.com, auto-confirm@amazon.com"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_ship"}, RemoveLabelIDs: []string{"INBOX"}},
			},
			{
				Criteria: gmailctl.FilterCriteria{List: "<golang-nuts.googlegroups.com>"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_digest", "STARRED"}},
			},
			{
				Name:     "github",
				Criteria: gmailctl.FilterCriteria{Query: "from:notifications@github.com subject:pull"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_gh"}},
			},
			{
				Name:     "negated",
				Criteria: gmailctl.FilterCriteria{Query: "-from:boss@example.com"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_ship"}},
			},
			{
				Name:     "duplicate shipping",
				Criteria: gmailctl.FilterCriteria{Subject: "shipped"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_ship"}},
			},
		},
		Labels: []gmailctl.Label{
			{ID: "Label_ship", Name: "shipping"},
			{ID: "Label_digest", Name: "lists/weekly digest"},
		},
	}
}

func TestCompile(t *testing.T) {
	set := Compile(testExport(), map[gmail.LabelID]string{"Label_gh": "dev/github"})
	require.Len(t, set.Rules, 5)

	assert.Equal(t, "shipping", set.Rules[0].Name)
	assert.Equal(t, "list:<golang-nuts.googlegroups.com>", set.Rules[1].Name)
	assert.Equal(t, []string{"lists/weekly digest"}, set.Rules[1].Labels)
	assert.Equal(t, []string{"dev/github"}, set.Rules[2].Labels)
	assert.False(t, set.Rules[3].Evaluable)
}

func TestAppliedLabels(t *testing.T) {
	set := Compile(testExport(), map[gmail.LabelID]string{"Label_gh": "dev/github"})

	tests := []struct {
		name    string
		headers map[string]string
		want    []string
	}{
		{
			name:    "sender match",
			headers: map[string]string{"from": "Amazon <Ship-Confirm@amazon.com>", "subject": "Your order"},
			want:    []string{"shipping"},
		},
		{
			name: "labels deduplicated across rules",
			headers: map[string]string{
				"from":    "auto-confirm@amazon.com",
				"subject": "Your package has shipped",
			},
			want: []string{"shipping"},
		},
		{
			name:    "list id with display name",
			headers: map[string]string{"list-id": `"golang-nuts" <golang-nuts.googlegroups.com>`},
			want:    []string{"lists/weekly digest"},
		},
		{
			name: "query requires every token",
			headers: map[string]string{
				"from":    "notifications@github.com",
				"subject": "Re: [repo] Fix (pull request #12)",
			},
			want: []string{"dev/github"},
		},
		{
			name:    "query partial match",
			headers: map[string]string{"from": "notifications@github.com", "subject": "Issue opened"},
			want:    nil,
		},
		{
			name:    "no match",
			headers: map[string]string{"from": "friend@example.org"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			got := set.AppliedLabels(gmail.Message{Headers: tc.headers})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAppliedLabelsQueryAlternatives(t *testing.T) {
	export := gmailctl.Export{
		Filters: []gmailctl.Filter{
			{
				Name:     "alerts",
				Criteria: gmailctl.FilterCriteria{Query: "from:a@x.com OR from:b@y.com"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_alerts"}},
			},
			{
				Name:     "wrapped",
				Criteria: gmailctl.FilterCriteria{Query: "(subject:invoice OR subject:receipt)", To: "me@example.com"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_bills"}},
			},
			{
				Name:     "nested",
				Criteria: gmailctl.FilterCriteria{Query: "(from:c@z.com OR from:d@z.com) subject:ping"},
				Action:   gmailctl.FilterAction{AddLabelIDs: []string{"Label_alerts"}},
			},
		},
		Labels: []gmailctl.Label{
			{ID: "Label_alerts", Name: "alerts"},
			{ID: "Label_bills", Name: "bills"},
		},
	}
	set := Compile(export, nil)
	require.Len(t, set.Rules, 3)
	assert.False(t, set.Rules[2].Evaluable)

	tests := []struct {
		name    string
		headers map[string]string
		want    []string
	}{
		{name: "left alternative", headers: map[string]string{"from": "a@x.com"}, want: []string{"alerts"}},
		{name: "right alternative", headers: map[string]string{"from": "B@y.com"}, want: []string{"alerts"}},
		{name: "neither alternative", headers: map[string]string{"from": "c@z.com", "subject": "ping"}, want: nil},
		{
			name:    "field criteria apply to every alternative",
			headers: map[string]string{"to": "me@example.com", "subject": "Your receipt"},
			want:    []string{"bills"},
		},
		{
			name:    "alternative without field criteria",
			headers: map[string]string{"to": "other@example.com", "subject": "Your receipt"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, set.AppliedLabels(gmail.Message{Headers: tc.headers}))
		})
	}
}

func TestParseQueryRejectsMalformedAlternatives(t *testing.T) {
	for _, q := range []string{"OR from:a@x.com", "from:a@x.com OR", "from:a@x.com OR OR from:b@y.com"} {
		_, ok := parseQuery(q)
		assert.False(t, ok, q)
	}
}

func TestMatchingNames(t *testing.T) {
	set := Compile(testExport(), nil)
	matched := set.Matching(gmail.Message{Headers: map[string]string{
		"from":    "auto-confirm@amazon.com",
		"subject": "Your package has shipped",
	}})
	assert.Equal(t, []string{"shipping", "duplicate shipping"}, NamesOf(matched))
	assert.Equal(t, []string{"shipping"}, LabelsOf(matched))
	assert.Nil(t, NamesOf(nil))
}

func TestNilSet(t *testing.T) {
	var set *Set
	assert.Nil(t, set.AppliedLabels(gmail.Message{Headers: map[string]string{"from": "x"}}))
}

func TestNormalizeListID(t *testing.T) {
	assert.Equal(t, "alerts.example.com", normalizeListID("<Alerts.Example.com>"))
	assert.Equal(t, "golang-nuts.googlegroups.com", normalizeListID(`"Go" <golang-nuts.googlegroups.com>`))
	assert.Equal(t, "plain.example.net", normalizeListID(" plain.example.net "))
	assert.Empty(t, normalizeListID(""))
}
