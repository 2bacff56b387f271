// Package query defines the question-answering domain: intents, source
// attributions and the composed response.
package query

// Intent is the classified purpose of a user question. It selects which
// context the answer is grounded on; retrieval context is gathered for
// every intent.
type Intent string

const (
	// IntentCalculation asks for fund performance numbers (DPI, IRR, TVPI).
	IntentCalculation Intent = "calculation"
	// IntentDefinition asks what a term means.
	IntentDefinition Intent = "definition"
	// IntentRetrieval asks for facts stated in the documents.
	IntentRetrieval Intent = "retrieval"
	// IntentGeneral is everything else.
	IntentGeneral Intent = "general"
)

// ParseIntent maps a label to an Intent, falling back to IntentGeneral for
// anything unrecognised.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentCalculation, IntentDefinition, IntentRetrieval:
		return Intent(s)
	}
	return IntentGeneral
}

// Source is one retrieved chunk that grounded an answer.
type Source struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float64        `json:"score"`
}

// Response is the full answer to a question. Metrics is present only when
// the question was a calculation scoped to a specific fund.
type Response struct {
	answer  string
	intent  Intent
	sources []Source
	metrics map[string]float64
}

// NewResponse creates a Response.
func NewResponse(answer string, intent Intent, sources []Source, metrics map[string]float64) Response {
	return Response{
		answer:  answer,
		intent:  intent,
		sources: append([]Source(nil), sources...),
		metrics: copyMetrics(metrics),
	}
}

// Answer returns the generated answer text.
func (r Response) Answer() string { return r.answer }

// Intent returns the classified intent.
func (r Response) Intent() Intent { return r.intent }

// Sources returns the retrieved chunks the answer drew on.
func (r Response) Sources() []Source { return append([]Source(nil), r.sources...) }

// Metrics returns the computed metrics, or nil when none were computed.
func (r Response) Metrics() map[string]float64 { return copyMetrics(r.metrics) }

func copyMetrics(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	cp := make(map[string]float64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
