package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
	"github.com/civicmind/civicd/internal/knowledge"
)

func newTestKnowledge(t *testing.T) *Knowledge {
	t.Helper()
	book, err := knowledge.New("", zap.NewNop())
	require.NoError(t, err)
	s, err := NewKnowledge(book, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNewKnowledge_NilBook(t *testing.T) {
	_, err := NewKnowledge(nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrNilBackingData)
}

func TestKnowledge_ProcedureMatch(t *testing.T) {
	s := newTestKnowledge(t)

	ans, err := s.Attempt(context.Background(), engine.NewQuery("How to apply for birth certificate?"))
	require.NoError(t, err)

	assert.Equal(t, 0.9, ans.Confidence)
	assert.False(t, ans.Degraded)

	// Numbered steps with label and detail, then the metadata lines.
	assert.Contains(t, ans.Text, "Apply for Birth Certificate")
	assert.Contains(t, ans.Text, "Department: Greater Chennai Corporation")
	assert.Contains(t, ans.Text, "1. Open the citizen portal:")
	assert.Contains(t, ans.Text, "5. Pay the fee:")
	assert.Contains(t, ans.Text, "Fees: ₹15")
	assert.Contains(t, ans.Text, "Contact: 044-25384680")

	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "birth_certificate", ans.Sources[0].ID)
	assert.Equal(t, "gcc", ans.Sources[1].ID)
}

func TestKnowledge_ServiceOnlyMatchDegraded(t *testing.T) {
	s := newTestKnowledge(t)

	// Service terms match but no action keyword is present.
	ans, err := s.Attempt(context.Background(), engine.NewQuery("birth certificate"))
	require.NoError(t, err)

	assert.Equal(t, 0.65, ans.Confidence)
	assert.True(t, ans.Degraded)
	assert.Contains(t, ans.Text, "Steps:")
}

func TestKnowledge_SpecificServiceWins(t *testing.T) {
	s := newTestKnowledge(t)

	ans, err := s.Attempt(context.Background(), engine.NewQuery("new water connection process"))
	require.NoError(t, err)

	assert.Equal(t, 0.9, ans.Confidence)
	assert.Equal(t, "water_connection_new", ans.Sources[0].ID)
	assert.Contains(t, ans.Text, "Department: Chennai Metro Water Supply and Sewerage Board")
}

func TestKnowledge_IssueResolution(t *testing.T) {
	s := newTestKnowledge(t)

	tests := []struct {
		name       string
		query      string
		department string
		contact    string
	}{
		{
			name:       "sewage overflow",
			query:      "sewage overflow on my street, who is responsible?",
			department: "Chennai Metro Water Supply and Sewerage Board",
			contact:    "044-45674567",
		},
		{
			name:       "power cut",
			query:      "power cut in Anna Nagar since morning",
			department: "Tamil Nadu Electricity Board",
			contact:    "044-25675765",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, err := s.Attempt(context.Background(), engine.NewQuery(tt.query))
			require.NoError(t, err)
			assert.Equal(t, 0.7, ans.Confidence)
			assert.False(t, ans.Degraded)
			assert.Contains(t, ans.Text, tt.department)
			assert.Contains(t, ans.Text, tt.contact)
			require.Len(t, ans.Sources, 2)
		})
	}
}

func TestKnowledge_Decline(t *testing.T) {
	s := newTestKnowledge(t)

	for _, query := range []string{
		"fire emergency number",
		"hello",
		"latest water supply guidelines",
		"",
	} {
		_, err := s.Attempt(context.Background(), engine.NewQuery(query))
		assert.ErrorIs(t, err, engine.ErrDecline, "query %q", query)
	}
}

func TestKnowledge_Triggers(t *testing.T) {
	s := newTestKnowledge(t)
	triggers := s.Triggers()

	assert.Equal(t, 2.0, triggers["apply"])
	assert.Equal(t, 2.0, triggers["procedure"])
	// Book term tokens merge in at weight 1.
	assert.Equal(t, 1.0, triggers["certificate"])
	assert.Equal(t, 1.0, triggers["sewage"])
	assert.Equal(t, engine.KindKnowledge, s.Kind())
}
