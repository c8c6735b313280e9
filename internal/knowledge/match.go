package knowledge

import (
	"strings"

	"github.com/civicmind/civicd/internal/engine"
)

// ProcedureMatch is a query resolved to a procedure template. ActionMatched
// distinguishes an exact service+action match from a service-only one.
type ProcedureMatch struct {
	Procedure     *Procedure
	Department    *Department
	ActionMatched bool
}

// IssueMatch is a query resolved through the issue → service → department
// relation chain.
type IssueMatch struct {
	Issue      *Issue
	Service    *Service
	Department *Department
}

// MatchProcedure finds the most specific procedure whose service terms
// appear in the query. Specificity is the matched phrase's keyword length,
// so "new water connection" outranks "water connection"; ties prefer an
// action match, then the lower procedure ID.
func (s *Snapshot) MatchProcedure(q engine.Query) (ProcedureMatch, bool) {
	keywords := keywordSet(q)

	var (
		best      ProcedureMatch
		bestScore int
	)
	for i := range s.Procedures {
		p := &s.Procedures[i]
		score := bestPhraseWeight(q, keywords, p.ServiceTerms)
		if score == 0 {
			continue
		}
		action := anyPhraseMatches(q, keywords, p.ActionTerms)
		if score > bestScore || (score == bestScore && action && !best.ActionMatched) {
			dept, _ := s.DepartmentByID(p.Department)
			best = ProcedureMatch{Procedure: p, Department: dept, ActionMatched: action}
			bestScore = score
		}
	}
	return best, bestScore > 0
}

// MatchIssue finds the most specific issue whose terms appear in the query
// and resolves the service and department that handle it.
func (s *Snapshot) MatchIssue(q engine.Query) (IssueMatch, bool) {
	keywords := keywordSet(q)

	var (
		best      IssueMatch
		bestScore int
	)
	for i := range s.Issues {
		issue := &s.Issues[i]
		score := bestPhraseWeight(q, keywords, issue.Terms)
		if score <= bestScore {
			continue
		}
		service, ok := s.ServiceByID(issue.Service)
		if !ok {
			continue
		}
		dept, ok := s.DepartmentByID(service.Department)
		if !ok {
			continue
		}
		best = IssueMatch{Issue: issue, Service: service, Department: dept}
		bestScore = score
	}
	return best, bestScore > 0
}

// keywordSet indexes the query keywords for single-token phrase lookups.
func keywordSet(q engine.Query) map[string]bool {
	set := make(map[string]bool, len(q.Keywords))
	for _, kw := range q.Keywords {
		set[kw] = true
	}
	return set
}

// phraseWeight returns the phrase's keyword length when it matches the
// query and 0 otherwise. Multi-word phrases match as substrings of the
// normalized text; single tokens match against the keyword set.
func phraseWeight(q engine.Query, keywords map[string]bool, phrase string) int {
	tokens := engine.NewQuery(phrase).Keywords
	switch len(tokens) {
	case 0:
		return 0
	case 1:
		if keywords[tokens[0]] {
			return 1
		}
		return 0
	default:
		if strings.Contains(q.Normalized, strings.ToLower(phrase)) {
			return len(tokens)
		}
		return 0
	}
}

// bestPhraseWeight returns the highest phrase weight among the phrases.
func bestPhraseWeight(q engine.Query, keywords map[string]bool, phrases []string) int {
	best := 0
	for _, phrase := range phrases {
		if w := phraseWeight(q, keywords, phrase); w > best {
			best = w
		}
	}
	return best
}

// anyPhraseMatches reports whether any phrase matches the query.
func anyPhraseMatches(q engine.Query, keywords map[string]bool, phrases []string) bool {
	return bestPhraseWeight(q, keywords, phrases) > 0
}
