package llm

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Workflow names, one per entry of prompts.yaml.
const (
	PromptTitle            = "title"
	PromptQuestions        = "questions"
	PromptTasks            = "tasks"
	PromptMoreTasks        = "more_tasks"
	PromptSWOT             = "swot"
	PromptSWOTAnalysis     = "swot_analysis"
	PromptGoals            = "goals"
	PromptMarketResearch   = "market_research"
	PromptLegalSteps       = "legal_steps"
	PromptLegalConsult     = "legal_consult"
	PromptLegalStepDetails = "legal_step_details"
	PromptAssistant        = "assistant"
	PromptNetworking       = "networking_keywords"
	PromptImproveEmail     = "improve_email"
	PromptExpenseAnalysis  = "expense_analysis"
)

// RequiredPrompts lists every workflow a catalogue must define.
var RequiredPrompts = []string{
	PromptTitle, PromptQuestions, PromptTasks, PromptMoreTasks,
	PromptSWOT, PromptSWOTAnalysis, PromptGoals, PromptMarketResearch,
	PromptLegalSteps, PromptLegalConsult, PromptLegalStepDetails,
	PromptAssistant, PromptNetworking, PromptImproveEmail, PromptExpenseAnalysis,
}

type Prompt struct {
	Tier   Tier   `yaml:"tier"`
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompts maps a workflow name to its prompt.
type Prompts map[string]Prompt

// DefaultPrompts returns the embedded catalogue.
func DefaultPrompts() (Prompts, error) {
	return LoadPrompts(defaultPrompts)
}

// LoadPrompts parses a complete catalogue and checks that every required
// workflow is present.
func LoadPrompts(data []byte) (Prompts, error) {
	p, err := parsePrompts(data)
	if err != nil {
		return nil, err
	}
	if err := p.checkRequired(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadPromptsFile starts from the embedded catalogue and replaces the
// entries defined in the file at path. An empty path returns the defaults.
func LoadPromptsFile(path string) (Prompts, error) {
	p, err := DefaultPrompts()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("llm: reading prompts %s: %w", path, err)
	}
	overrides, err := parsePrompts(data)
	if err != nil {
		return nil, fmt.Errorf("llm: %s: %w", path, err)
	}
	for name, prompt := range overrides {
		p[name] = prompt
	}
	return p, nil
}

func parsePrompts(data []byte) (Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("llm: parsing prompts: %w", err)
	}

	var errs []error
	for name, prompt := range p {
		switch prompt.Tier {
		case "":
			prompt.Tier = TierFast
		case TierFast, TierChat:
		default:
			errs = append(errs, fmt.Errorf("prompt %q: unknown tier %q", name, prompt.Tier))
		}
		if strings.TrimSpace(prompt.System) == "" || strings.TrimSpace(prompt.User) == "" {
			errs = append(errs, fmt.Errorf("prompt %q: system and user text are required", name))
		}
		p[name] = prompt
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("llm: invalid prompts: %w", errors.Join(errs...))
	}
	return p, nil
}

func (p Prompts) checkRequired() error {
	var missing []string
	for _, name := range RequiredPrompts {
		if _, ok := p[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("llm: missing prompts: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Render fills the {key} placeholders of the named prompt.
//
// HOW SUBSTITUTION WORKS:
// strings.NewReplacer gets every {key}/value pair and walks the template
// once, left to right. Text it has inserted is never scanned again, so:
//
//	template: "Idea: {context}\nQuestion: {question}"
//	question: "what about {context}?"
//	result:   "Idea: <context>\nQuestion: what about {context}?"
//
// A user cannot smuggle another placeholder in through their own text.
// Placeholders without a value are left as they are.
func (p Prompts) Render(name string, data map[string]string) (Request, error) {
	prompt, ok := p[name]
	if !ok {
		return Request{}, fmt.Errorf("llm: unknown prompt %q", name)
	}

	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	return Request{
		Name:   name,
		Tier:   prompt.Tier,
		System: r.Replace(prompt.System),
		User:   r.Replace(prompt.User),
	}, nil
}
