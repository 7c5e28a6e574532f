package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTasks(t *testing.T) {
	in := []generatedTask{
		{Content: "  Write a business plan ", Criticality: 5, Tags: []string{"plan", " Plan ", "docs", "", "money", "extra"}},
		{Content: "   ", Criticality: 1},
		{Content: "Find a supplier", Criticality: -3},
	}

	got := normalizeTasks(in)

	assert.Equal(t, []generatedTask{
		{Content: "Write a business plan", Criticality: 2, Tags: []string{"plan", "docs", "money"}},
		{Content: "Find a supplier", Criticality: 0, Tags: []string{}},
	}, got)
}

func TestNormalizeTasks_TruncatesLongContent(t *testing.T) {
	long := make([]rune, 250)
	for i := range long {
		long[i] = 'é'
	}
	got := normalizeTasks([]generatedTask{{Content: string(long)}})
	if assert.Len(t, got, 1) {
		assert.Len(t, []rune(got[0].Content), maxTaskContent)
	}
}

func TestParseGoalLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "strips every list marker",
			in:   "1. Grow sales\n\n2) Hire a baker\n- Launch the app\n* Raise funds\n• Expand to a second city\n6. Too many",
			want: []string{"Grow sales", "Hire a baker", "Launch the app", "Raise funds", "Expand to a second city"},
		},
		{
			name: "numbers that are not markers stay",
			in:   "2025 revenue above target\n  10% margin  ",
			want: []string{"2025 revenue above target", "10% margin"},
		},
		{
			name: "blank input",
			in:   "\n  \n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseGoalLines(tt.in))
		})
	}
}

func TestParseLegalSteps(t *testing.T) {
	text := "Here is what you need:\n" +
		"1. Register the company\n" +
		"2.Open\n" +
		"  3. Get a municipal license  \n" +
		"- not numbered\n" +
		"4) Hire an accountant"

	assert.Equal(t,
		[]string{"Register the company", "Get a municipal license", "Hire an accountant"},
		parseLegalSteps(text))
	assert.Empty(t, parseLegalSteps("no steps at all"))
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"bakery", "sourdough", "bike delivery"}, splitKeywords(" bakery, , sourdough ,bike delivery"))
	assert.Empty(t, splitKeywords(" , "))
}

func TestSplitImprovedEmail(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantSubject string
		wantContent string
	}{
		{
			name:        "labelled subject and content",
			in:          "Subject: Fresh bread this week\n\nContent: Dear customer,\nour new loaf is here.",
			wantSubject: "Fresh bread this week",
			wantContent: "Dear customer,\nour new loaf is here.",
		},
		{
			name:        "no blank line keeps original subject",
			in:          "Just a better body",
			wantSubject: "Original",
			wantContent: "Just a better body",
		},
		{
			name:        "empty subject falls back",
			in:          "Subject:\n\nContent: Body",
			wantSubject: "Original",
			wantContent: "Body",
		},
		{
			name:        "CRLF line endings",
			in:          "Subject: A\r\n\r\nContent: B",
			wantSubject: "A",
			wantContent: "B",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, content := splitImprovedEmail(tt.in, "Original")
			assert.Equal(t, tt.wantSubject, subject)
			assert.Equal(t, tt.wantContent, content)
		})
	}
}
