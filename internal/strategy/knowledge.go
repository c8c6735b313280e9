package strategy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/engine"
	"github.com/civicmind/civicd/internal/knowledge"
)

// Knowledge strategy confidences by match specificity.
const (
	procedureConfidence   = 0.9
	serviceOnlyConfidence = 0.65
	issueConfidence       = 0.7
)

// knowledgeMarkers route how-to-shaped queries toward the procedure
// book. Service and issue terms are merged in from the live snapshot.
var knowledgeMarkers = engine.TriggerSet{
	"apply":        2,
	"procedure":    2,
	"steps":        2,
	"process":      2,
	"obtain":       2,
	"registration": 2,
	"application":  2,
	"get":          1,
	"renewal":      1,
	"complaint":    1,
	"repair":       1,
	"report":       1,
	"responsible":  1,
	"department":   1,
	"handles":      1,
	"issue":        1,
}

// Knowledge answers procedural questions from the knowledge book:
// step-by-step templates for civic processes, and issue-to-department
// resolution for complaints.
type Knowledge struct {
	book   *knowledge.Book
	logger *zap.Logger
}

// NewKnowledge creates the knowledge strategy over a procedure book.
func NewKnowledge(book *knowledge.Book, logger *zap.Logger) (*Knowledge, error) {
	if book == nil {
		return nil, ErrNilBackingData
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Knowledge{book: book, logger: logger}, nil
}

// Kind identifies the strategy.
func (s *Knowledge) Kind() engine.Kind { return engine.KindKnowledge }

// Triggers merges the static markers with service, action, and issue
// tokens from the current book snapshot.
func (s *Knowledge) Triggers() engine.TriggerSet {
	return mergeTriggers(knowledgeMarkers, s.book.Snapshot().Triggers())
}

// Attempt resolves the query to a procedure first, then through the
// issue relation chain. A service-only procedure match is answered but
// flagged degraded, since the rendered steps may not be the action the
// user asked about.
func (s *Knowledge) Attempt(_ context.Context, q engine.Query) (*engine.Answer, error) {
	snap := s.book.Snapshot()

	if m, ok := snap.MatchProcedure(q); ok {
		confidence := procedureConfidence
		degraded := false
		if !m.ActionMatched {
			confidence = serviceOnlyConfidence
			degraded = true
		}
		s.logger.Debug("procedure matched",
			zap.String("procedure", m.Procedure.ID),
			zap.Bool("action_matched", m.ActionMatched),
		)
		return &engine.Answer{
			Text:       renderProcedure(m.Procedure, m.Department),
			Confidence: confidence,
			Degraded:   degraded,
			Sources: []engine.Source{
				{ID: m.Procedure.ID, Title: m.Procedure.Title},
				{ID: m.Department.ID, Title: m.Department.Name},
			},
		}, nil
	}

	if m, ok := snap.MatchIssue(q); ok {
		s.logger.Debug("issue resolved",
			zap.String("issue", m.Issue.ID),
			zap.String("department", m.Department.ID),
		)
		return &engine.Answer{
			Text:       renderIssue(m.Issue, m.Service, m.Department),
			Confidence: issueConfidence,
			Sources: []engine.Source{
				{ID: m.Issue.ID, Title: m.Issue.Name},
				{ID: m.Department.ID, Title: m.Department.Name},
			},
		}, nil
	}

	return nil, engine.ErrDecline
}

// renderProcedure formats a procedure template as one structured answer:
// title, owning department, numbered steps, then the documents, fees,
// timeline, and contact lines that are present.
func renderProcedure(p *knowledge.Procedure, dept *knowledge.Department) string {
	var b strings.Builder

	b.WriteString(p.Title)
	b.WriteString("\nDepartment: ")
	b.WriteString(dept.Name)
	b.WriteString("\n\nSteps:\n")
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, step.Label, step.Detail)
	}

	if len(p.Documents) > 0 {
		b.WriteString("\nDocuments required: ")
		b.WriteString(strings.Join(p.Documents, ", "))
	}
	if p.Fees != "" {
		b.WriteString("\nFees: ")
		b.WriteString(p.Fees)
	}
	if p.Timeline != "" {
		b.WriteString("\nTimeline: ")
		b.WriteString(p.Timeline)
	}
	if p.Contact != "" {
		b.WriteString("\nContact: ")
		b.WriteString(p.Contact)
	}
	return b.String()
}

// renderIssue formats an issue-to-department resolution.
func renderIssue(issue *knowledge.Issue, svc *knowledge.Service, dept *knowledge.Department) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is handled by %s.", issue.Name, dept.Name)
	fmt.Fprintf(&b, "\nService: %s", svc.Name)
	if dept.Contact != "" {
		fmt.Fprintf(&b, "\nContact: %s", dept.Contact)
	}
	return b.String()
}
