package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fundsight/fundsight/domain/query"
	"github.com/fundsight/fundsight/infrastructure/provider"
)

// Classifier determines a question's intent.
type Classifier interface {
	Classify(ctx context.Context, q string) (query.Intent, error)
}

// intentRule matches an intent when any keyword occurs in the lowercased
// question. Rule order is priority order: definition phrasing wins over the
// metric names it often mentions.
type intentRule struct {
	Intent   string   `yaml:"intent"`
	Keywords []string `yaml:"keywords"`
}

var defaultIntentRules = []intentRule{
	{Intent: string(query.IntentDefinition), Keywords: []string{"mean", "define", "definition", "explain what"}},
	{Intent: string(query.IntentCalculation), Keywords: []string{"dpi", "irr", "tvpi", "moic", "calculate", "performance"}},
	{Intent: string(query.IntentRetrieval), Keywords: []string{"show", "documents", "list", "find", "report"}},
}

// RuleClassifier classifies by keyword rules, falling back to general.
type RuleClassifier struct {
	rules []intentRule
}

// NewRuleClassifier creates a RuleClassifier with the built-in rules.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: defaultIntentRules}
}

// NewRuleClassifierFromFile loads rules from a YAML file. The file is a
// list of {intent, keywords} entries evaluated in order.
func NewRuleClassifierFromFile(path string) (*RuleClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent rules %s: %w", path, err)
	}
	var rules []intentRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse intent rules %s: %w", path, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("intent rules %s: no rules defined", path)
	}
	return &RuleClassifier{rules: rules}, nil
}

// Classify returns the first rule whose keyword occurs in the question.
func (c *RuleClassifier) Classify(_ context.Context, q string) (query.Intent, error) {
	lower := strings.ToLower(q)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return query.ParseIntent(rule.Intent), nil
			}
		}
	}
	return query.IntentGeneral, nil
}

const llmClassifyPrompt = `Classify the user's question about private equity fund reports into exactly one of these intents:
- calculation: asks for fund performance numbers (DPI, IRR, TVPI)
- definition: asks what a term means
- retrieval: asks for facts stated in the documents
- general: anything else

Respond with only the intent word.`

// LLMClassifier asks the chat model for the intent, with a rule-based
// fallback when the model is unavailable or answers off-script.
type LLMClassifier struct {
	generator provider.TextGenerator
	fallback  *RuleClassifier
}

// NewLLMClassifier creates an LLMClassifier.
func NewLLMClassifier(generator provider.TextGenerator, fallback *RuleClassifier) *LLMClassifier {
	return &LLMClassifier{generator: generator, fallback: fallback}
}

// Classify asks the model; any failure defers to the rule classifier.
func (c *LLMClassifier) Classify(ctx context.Context, q string) (query.Intent, error) {
	resp, err := c.generator.Generate(ctx, provider.ChatRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: llmClassifyPrompt},
			{Role: provider.RoleUser, Content: q},
		},
		Temperature: 0,
	})
	if err != nil {
		return c.fallback.Classify(ctx, q)
	}
	label := strings.ToLower(strings.TrimSpace(resp.Content))
	switch query.Intent(label) {
	case query.IntentCalculation, query.IntentDefinition, query.IntentRetrieval, query.IntentGeneral:
		return query.Intent(label), nil
	}
	return c.fallback.Classify(ctx, q)
}
