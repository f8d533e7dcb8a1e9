package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/phrazzld/newsmaker-api/internal/domain"
)

// Decoder turns a raw model reply into a structured analysis.
type Decoder interface {
	Decode(raw string) (domain.Analysis, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(raw string) (domain.Analysis, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(raw string) (domain.Analysis, error) {
	return f(raw)
}

// JSONDecoder extracts a JSON object from a model reply. It prefers a fenced
// ```json block, then any fenced block, then the outermost {...} span.
type JSONDecoder struct{}

// wireAnalysis tolerates a fractional relevance score.
type wireAnalysis struct {
	Summary        string          `json:"summary"`
	Facts          []string        `json:"facts"`
	Quotes         []string        `json:"quotes"`
	Sentiment      string          `json:"sentiment"`
	Topics         []string        `json:"topics"`
	RelevanceScore json.Number     `json:"relevance_score"`
	Verdict        string          `json:"pr_verdict"`
	Reasoning      string          `json:"pr_reasoning"`
	Category       domain.Category `json:"category"`
	Tips           []string        `json:"tips"`
}

// Decode implements Decoder.
func (JSONDecoder) Decode(raw string) (domain.Analysis, error) {
	body := ExtractJSON(raw)
	if body == "" {
		return domain.Analysis{}, fmt.Errorf("%w: no JSON object in reply", ErrDecode)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var w wireAnalysis
	if err := dec.Decode(&w); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	score := 0
	if w.RelevanceScore != "" {
		f, err := w.RelevanceScore.Float64()
		if err != nil {
			return domain.Analysis{}, fmt.Errorf("%w: relevance_score: %v", ErrDecode, err)
		}
		score = int(math.Round(f))
	}

	a := domain.Analysis{
		Summary:        w.Summary,
		Facts:          w.Facts,
		Quotes:         w.Quotes,
		Sentiment:      w.Sentiment,
		Topics:         w.Topics,
		RelevanceScore: score,
		Verdict:        w.Verdict,
		Reasoning:      w.Reasoning,
		Category:       domain.Category(strings.ToUpper(string(w.Category))),
		Tips:           w.Tips,
	}
	if err := a.Validate(); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return a, nil
}

// ExtractJSON returns the JSON object embedded in a model reply, or "".
func ExtractJSON(raw string) string {
	if _, after, ok := strings.Cut(raw, "```json"); ok {
		block, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(block)
	}
	if _, after, ok := strings.Cut(raw, "```"); ok {
		block, _, closed := strings.Cut(after, "```")
		if closed {
			return strings.TrimSpace(block)
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
