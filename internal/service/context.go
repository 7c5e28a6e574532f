package service

import (
	"fmt"
	"strings"

	"github.com/sakif/ideaforge/internal/model"
)

// The builders below turn stored records into the plain-text context that
// is substituted into prompts. They never touch the database.

func ideaContext(idea *model.Idea, questions []model.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Idea: %s\n", idea.Description)
	for _, q := range questions {
		fmt.Fprintf(&b, "Question: %s\nAnswer: %s\n", q.Text, q.Answer)
	}
	return b.String()
}

func qaContext(idea *model.Idea, questions []model.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business idea: %s\n\n", idea.Description)
	for _, q := range questions {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", q.Text, q.Answer)
	}
	return b.String()
}

func completedTasksContext(idea *model.Idea, closed []model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Idea: %s\n\nCompleted tasks:\n", idea.Description)
	for _, t := range closed {
		fmt.Fprintf(&b, "- %s\n", t.Content)
	}
	return b.String()
}

var swotHeaders = map[string]string{
	model.SWOTStrength:    "Strengths",
	model.SWOTWeakness:    "Weaknesses",
	model.SWOTOpportunity: "Opportunities",
	model.SWOTThreat:      "Threats",
}

// swotContext groups items by category in the fixed S, W, O, T order.
// Categories without items still get their header.
func swotContext(items []model.SWOTItem) string {
	byCategory := make(map[string][]string, len(model.SWOTCategories))
	for _, it := range items {
		byCategory[it.Category] = append(byCategory[it.Category], it.Content)
	}

	var b strings.Builder
	b.WriteString("SWOT analysis:\n")
	for _, c := range model.SWOTCategories {
		fmt.Fprintf(&b, "\n%s:\n", swotHeaders[c])
		for _, content := range byCategory[c] {
			fmt.Fprintf(&b, "- %s\n", content)
		}
	}
	return b.String()
}

func assistantContext(idea *model.Idea, expenses []model.Expense, tasks []model.Task, questions []model.Question, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an assistant helping an entrepreneur develop the following business idea: %s\n", idea.Description)

	if len(expenses) > 0 {
		b.WriteString("\nRecorded expenses:\n")
		for _, e := range expenses {
			fmt.Fprintf(&b, "- %s: %.2f %s (%s)\n", e.Description, e.Amount, currency, e.Date.Format("02/01/2006"))
		}
	}
	if len(tasks) > 0 {
		b.WriteString("\nKanban tasks:\n")
		for _, t := range tasks {
			fmt.Fprintf(&b, "- %s (Status: %s)\n", t.Content, t.Status)
		}
	}
	if len(questions) > 0 {
		b.WriteString("\nQuestions and answers about the idea:\n")
		for _, q := range questions {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", q.Text, q.Answer)
		}
	}

	b.WriteString("\nUse this information to give specific, practical answers about the idea.")
	return b.String()
}

// GoalParams are the knobs of goal generation.
type GoalParams struct {
	Timeframe  string  `json:"timeframe"`
	Aggression int     `json:"aggression"`
	Budget     float64 `json:"budget"`
	Context    string  `json:"context"`
}

func goalContext(idea *model.Idea, questions []model.Question, p GoalParams, currency string) string {
	var b strings.Builder
	b.WriteString(qaContext(idea, questions))
	fmt.Fprintf(&b, "Timeframe: %s\n", p.Timeframe)
	fmt.Fprintf(&b, "Aggression level: %d/5\n", p.Aggression)
	fmt.Fprintf(&b, "Available budget: %.2f %s\n", p.Budget, currency)
	if c := strings.TrimSpace(p.Context); c != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", c)
	}
	return b.String()
}

func expenseContext(expenses []model.Expense, currency string) string {
	var (
		b     strings.Builder
		total float64
	)
	b.WriteString("Expenses:\n")
	for _, e := range expenses {
		category := ""
		if e.Category != nil {
			category = e.Category.Name
		}
		fmt.Fprintf(&b, "- %s | %s | %s | %.2f %s\n", e.Date.Format("2006-01-02"), category, e.Description, e.Amount, currency)
		total += e.Amount
	}
	fmt.Fprintf(&b, "Total: %.2f %s\n", total, currency)
	return b.String()
}
