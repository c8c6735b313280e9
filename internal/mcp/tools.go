package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/civicmind/civicd/internal/engine"
)

type askInput struct {
	Question  string `json:"question" jsonschema:"required,The civic question to answer"`
	SessionID string `json:"session_id,omitempty" jsonschema:"Session identifier carrying conversation context across calls"`
}

type askOutput struct {
	Answer     string          `json:"answer"`
	Kind       string          `json:"kind"`
	Confidence float64         `json:"confidence"`
	Degraded   bool            `json:"degraded"`
	Sources    []engine.Source `json:"sources,omitempty"`
}

type explainInput struct {
	Question string `json:"question" jsonschema:"required,The query to explain routing for"`
}

type strategyScore struct {
	Kind      string  `json:"kind"`
	Score     float64 `json:"score"`
	Available bool    `json:"available"`
	Threshold float64 `json:"threshold"`
}

type explainOutput struct {
	Keywords   []string        `json:"keywords"`
	Scores     []strategyScore `json:"scores"`
	Candidates []string        `json:"candidates"`
}

type procedureInput struct {
	Service string `json:"service" jsonschema:"required,The civic service the procedure is about (for example: water connection)"`
	Action  string `json:"action,omitempty" jsonschema:"What the user wants to do (for example: apply or renew)"`
}

type procedureStep struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

type procedureOutput struct {
	Found      bool            `json:"found"`
	ID         string          `json:"id,omitempty"`
	Title      string          `json:"title,omitempty"`
	Department string          `json:"department,omitempty"`
	Contact    string          `json:"contact,omitempty"`
	Steps      []procedureStep `json:"steps,omitempty"`
	Documents  []string        `json:"documents,omitempty"`
	Fees       string          `json:"fees,omitempty"`
	Timeline   string          `json:"timeline,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "civic_ask",
		Description: "Answer a civic services question: emergency numbers, helplines, procedures, schedules, and local rules",
	}, s.handleAsk)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "civic_explain",
		Description: "Show how a question would be routed across the answer strategies without answering it",
	}, s.handleExplain)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "civic_procedure",
		Description: "Look up the step-by-step procedure for a civic service, including documents, fees, and timelines",
	}, s.handleProcedure)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, args askInput) (*mcp.CallToolResult, askOutput, error) {
	start := time.Now()
	ans := s.svc.Ask(ctx, args.Question, args.SessionID)
	s.metrics.RecordInvocation(ctx, "civic_ask", time.Since(start), nil)

	out := askOutput{
		Answer:     ans.Text,
		Kind:       ans.Kind.String(),
		Confidence: ans.Confidence,
		Degraded:   ans.Degraded,
		Sources:    ans.Sources,
	}
	return textResult(ans.Text), out, nil
}

func (s *Server) handleExplain(ctx context.Context, _ *mcp.CallToolRequest, args explainInput) (*mcp.CallToolResult, explainOutput, error) {
	start := time.Now()
	exp := s.svc.Explain(args.Question)
	s.metrics.RecordInvocation(ctx, "civic_explain", time.Since(start), nil)

	out := explainOutput{
		Keywords:   exp.Keywords,
		Scores:     make([]strategyScore, 0, len(exp.Scores)),
		Candidates: make([]string, 0, len(exp.Candidates)),
	}
	for _, sc := range exp.Scores {
		out.Scores = append(out.Scores, strategyScore{
			Kind:      sc.Kind.String(),
			Score:     sc.Score,
			Available: sc.Available,
			Threshold: sc.Threshold,
		})
	}
	for _, c := range exp.Candidates {
		out.Candidates = append(out.Candidates, c.Kind.String())
	}

	text := "no strategy candidates; the fallback answers this query"
	if len(out.Candidates) > 0 {
		text = "candidate order: " + strings.Join(out.Candidates, " > ")
	}
	return textResult(text), out, nil
}

func (s *Server) handleProcedure(ctx context.Context, _ *mcp.CallToolRequest, args procedureInput) (*mcp.CallToolResult, procedureOutput, error) {
	start := time.Now()
	match, ok := s.svc.Procedure(args.Service, args.Action)
	s.metrics.RecordInvocation(ctx, "civic_procedure", time.Since(start), nil)

	if !ok {
		return textResult(fmt.Sprintf("No procedure matches %q.", strings.TrimSpace(args.Service+" "+args.Action))),
			procedureOutput{Found: false}, nil
	}

	p := match.Procedure
	out := procedureOutput{
		Found:     true,
		ID:        p.ID,
		Title:     p.Title,
		Contact:   p.Contact,
		Steps:     make([]procedureStep, 0, len(p.Steps)),
		Documents: p.Documents,
		Fees:      p.Fees,
		Timeline:  p.Timeline,
	}
	if match.Department != nil {
		out.Department = match.Department.Name
	}
	for _, step := range p.Steps {
		out.Steps = append(out.Steps, procedureStep{Label: step.Label, Detail: step.Detail})
	}

	return textResult(formatProcedure(out)), out, nil
}

// formatProcedure renders a procedure as the readable text block clients
// show verbatim.
func formatProcedure(p procedureOutput) string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Department != "" {
		fmt.Fprintf(&b, " (%s)", p.Department)
	}
	b.WriteString("\n")
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, step.Label, step.Detail)
	}
	if len(p.Documents) > 0 {
		fmt.Fprintf(&b, "Documents: %s\n", strings.Join(p.Documents, ", "))
	}
	if p.Fees != "" {
		fmt.Fprintf(&b, "Fees: %s\n", p.Fees)
	}
	if p.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", p.Timeline)
	}
	if p.Contact != "" {
		fmt.Fprintf(&b, "Contact: %s\n", p.Contact)
	}
	return strings.TrimRight(b.String(), "\n")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
