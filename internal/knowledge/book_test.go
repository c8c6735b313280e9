package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
)

func defaultSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	book, err := New("", zap.NewNop())
	require.NoError(t, err)
	return book.Snapshot()
}

func TestNew_Defaults(t *testing.T) {
	snap := defaultSnapshot(t)

	assert.Len(t, snap.Procedures, 4)
	assert.Len(t, snap.Issues, 9)

	dept, ok := snap.DepartmentByID("cmwssb")
	require.True(t, ok)
	assert.Equal(t, "Chennai Metro Water Supply and Sewerage Board", dept.Name)

	triggers := snap.Triggers()
	assert.Contains(t, triggers, "apply")
	assert.Contains(t, triggers, "certificate")
	assert.Contains(t, triggers, "pothole")
}

func TestMatchProcedure(t *testing.T) {
	snap := defaultSnapshot(t)

	tests := []struct {
		name        string
		query       string
		wantID      string
		wantAction  bool
		wantMatched bool
	}{
		{
			name:        "exact service and action",
			query:       "How to apply for birth certificate?",
			wantID:      "birth_certificate",
			wantAction:  true,
			wantMatched: true,
		},
		{
			name:        "service only",
			query:       "birth certificate details",
			wantID:      "birth_certificate",
			wantAction:  false,
			wantMatched: true,
		},
		{
			name:        "longer phrase outranks shorter",
			query:       "new water connection process",
			wantID:      "water_connection_new",
			wantAction:  true,
			wantMatched: true,
		},
		{
			name:        "tax payment",
			query:       "how do I pay property tax",
			wantID:      "property_tax_payment",
			wantAction:  true,
			wantMatched: true,
		},
		{
			name:        "street light complaint",
			query:       "street light not working in my area",
			wantID:      "street_light_repair",
			wantAction:  true,
			wantMatched: true,
		},
		{
			name:        "no service term",
			query:       "weather forecast tomorrow",
			wantMatched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := snap.MatchProcedure(engine.NewQuery(tt.query))
			require.Equal(t, tt.wantMatched, ok)
			if !tt.wantMatched {
				return
			}
			assert.Equal(t, tt.wantID, match.Procedure.ID)
			assert.Equal(t, tt.wantAction, match.ActionMatched)
			require.NotNil(t, match.Department)
		})
	}
}

func TestMatchIssue(t *testing.T) {
	snap := defaultSnapshot(t)

	tests := []struct {
		name        string
		query       string
		wantIssue   string
		wantDept    string
		wantMatched bool
	}{
		{
			name:        "sewage overflow resolves to cmwssb",
			query:       "sewage overflow near my street",
			wantIssue:   "sewage_overflow",
			wantDept:    "cmwssb",
			wantMatched: true,
		},
		{
			name:        "garbage resolves to gcc",
			query:       "garbage not collected since monday",
			wantIssue:   "garbage_not_collected",
			wantDept:    "gcc",
			wantMatched: true,
		},
		{
			name:        "power cut resolves to tneb",
			query:       "power cut in adyar since morning",
			wantIssue:   "power_cut",
			wantDept:    "tneb",
			wantMatched: true,
		},
		{
			name:        "no issue terms",
			query:       "marriage hall booking",
			wantMatched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := snap.MatchIssue(engine.NewQuery(tt.query))
			require.Equal(t, tt.wantMatched, ok)
			if !tt.wantMatched {
				return
			}
			assert.Equal(t, tt.wantIssue, match.Issue.ID)
			assert.Equal(t, tt.wantDept, match.Department.ID)
			assert.NotNil(t, match.Service)
		})
	}
}

func TestNew_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: "{nope"},
		{name: "no procedures", content: `{"version":1,"procedures":[]}`},
		{
			name: "dangling department reference",
			content: `{"version":1,"procedures":[{"id":"p1","title":"T","department":"ghost",` +
				`"service_terms":["x"],"steps":[{"label":"a","detail":"b"}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "knowledge.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := New(path, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestReload_SwapsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.json")
	content := `{"version":1,
		"departments":[{"id":"gcc","name":"Greater Chennai Corporation","type":"government"}],
		"procedures":[{"id":"p1","title":"T","department":"gcc","service_terms":["water"],
			"steps":[{"label":"a","detail":"b"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	book, err := New(path, zap.NewNop())
	require.NoError(t, err)
	before := book.Snapshot()

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	assert.Error(t, book.Reload())
	assert.Same(t, before, book.Snapshot())
}
