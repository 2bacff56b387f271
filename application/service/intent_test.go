package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/application/service"
	"github.com/fundsight/fundsight/domain/query"
	"github.com/fundsight/fundsight/infrastructure/provider"
)

func TestRuleClassifierFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.yaml")
	rules := `
- intent: calculation
  keywords: ["net asset value"]
- intent: retrieval
  keywords: ["statement"]
`
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o644))

	classifier, err := service.NewRuleClassifierFromFile(path)
	require.NoError(t, err)

	got, err := classifier.Classify(context.Background(), "What is the net asset value?")
	require.NoError(t, err)
	assert.Equal(t, query.IntentCalculation, got)

	got, err = classifier.Classify(context.Background(), "find the Q3 statement")
	require.NoError(t, err)
	assert.Equal(t, query.IntentRetrieval, got)

	got, err = classifier.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, query.IntentGeneral, got)
}

func TestRuleClassifierFromFile_Missing(t *testing.T) {
	_, err := service.NewRuleClassifierFromFile("/nonexistent/rules.yaml")
	assert.Error(t, err)
}

// answeringGenerator returns a fixed classification label.
type answeringGenerator struct {
	label string
	err   error
}

func (g *answeringGenerator) Generate(ctx context.Context, req provider.ChatRequest) (provider.ChatResponse, error) {
	if g.err != nil {
		return provider.ChatResponse{}, g.err
	}
	return provider.ChatResponse{Content: g.label}, nil
}

func TestLLMClassifier(t *testing.T) {
	fallback := service.NewRuleClassifier()

	c := service.NewLLMClassifier(&answeringGenerator{label: " Retrieval \n"}, fallback)
	got, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, query.IntentRetrieval, got)

	// off-script answer defers to the rules
	c = service.NewLLMClassifier(&answeringGenerator{label: "banana"}, fallback)
	got, err = c.Classify(context.Background(), "What does IRR mean?")
	require.NoError(t, err)
	assert.Equal(t, query.IntentDefinition, got)

	// provider failure defers to the rules
	c = service.NewLLMClassifier(&answeringGenerator{err: context.DeadlineExceeded}, fallback)
	got, err = c.Classify(context.Background(), "How is the DPI?")
	require.NoError(t, err)
	assert.Equal(t, query.IntentCalculation, got)
}
