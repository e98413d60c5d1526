package analysis

import (
	"encoding/json"
	"strings"

	"github.com/moodlog-insights/internal/models"
	"github.com/rs/zerolog"
)

// geminiEnvelope is the outer response wrapper of the generateContent
// endpoint. The generated report JSON sits one level inside, string-encoded
// at candidates[0].content.parts[0].text.
type geminiEnvelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// parseStrategy attempts one way of recovering the report sections from the
// cleaned payload. matched reports whether the payload had the shape this
// strategy handles at all; only a matched strategy ends the search.
type parseStrategy struct {
	name string
	fn   func(cleaned string) (result *models.AnalysisResult, matched bool)
}

// Parser recovers a typed analysis result from raw model output, tolerating
// code fences and the vendor envelope. Parsing is deterministic, so a failed
// parse is never retried.
type Parser struct {
	strategies []parseStrategy
	logger     zerolog.Logger
}

// NewParser creates a parser with the default strategy order:
// direct schema parse first, envelope extraction second.
func NewParser(logger zerolog.Logger) *Parser {
	p := &Parser{
		logger: logger.With().Str("component", "parser").Logger(),
	}
	p.strategies = []parseStrategy{
		{name: "direct", fn: p.parseDirect},
		{name: "envelope", fn: p.parseEnvelope},
	}
	return p
}

// Parse runs the strategies in order and returns the first complete result.
// When no strategy matches, it fails with *models.MalformedResponseError
// carrying the raw payload for diagnostics.
func (p *Parser) Parse(raw string) (*models.AnalysisResult, error) {
	cleaned := stripCodeFences(raw)

	for _, strategy := range p.strategies {
		result, matched := strategy.fn(cleaned)
		if !matched {
			continue
		}

		p.logger.Debug().
			Str("strategy", strategy.name).
			Msg("Parsed model response")
		p.checkRanges(result)
		return result, nil
	}

	p.logger.Error().
		Int("payload_length", len(raw)).
		Msg("No parse strategy matched model response")

	return nil, &models.MalformedResponseError{
		Reason:     "response does not contain the required summary, patterns, recommendations and riskAssessment sections",
		RawPayload: raw,
	}
}

// parseDirect treats the payload as the target schema itself
func (p *Parser) parseDirect(cleaned string) (*models.AnalysisResult, bool) {
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, false
	}
	if !result.Complete() {
		return nil, false
	}
	return &result, true
}

// parseEnvelope unwraps the vendor envelope, then parses the nested text as
// the target schema. The nested text may itself carry code fences.
func (p *Parser) parseEnvelope(cleaned string) (*models.AnalysisResult, bool) {
	var envelope geminiEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, false
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return nil, false
	}

	inner := stripCodeFences(envelope.Candidates[0].Content.Parts[0].Text)
	return p.parseDirect(inner)
}

// checkRanges logs numeric fields that fall outside their expected ranges:
// the average score band, a negative volatility index and negative trigger
// frequencies. Out-of-range values pass through unchanged: a syntactically
// valid document is never rejected for them, downstream consumers decide
// what to do.
func (p *Parser) checkRanges(result *models.AnalysisResult) {
	if result.Summary != nil {
		if result.Summary.AverageScore < 0 || result.Summary.AverageScore > 10 {
			p.logger.Warn().
				Float64("average_score", result.Summary.AverageScore).
				Msg("Model reported average score outside expected range")
		}
	}

	if result.Patterns == nil {
		return
	}

	if wp := result.Patterns.WeeklyPattern; wp != nil && wp.VolatilityIndex < 0 {
		p.logger.Warn().
			Float64("volatility_index", wp.VolatilityIndex).
			Msg("Model reported negative volatility index")
	}

	if triggers := result.Patterns.Triggers; triggers != nil {
		for _, list := range [][]models.Trigger{triggers.Positive, triggers.Negative} {
			for _, trigger := range list {
				if trigger.Frequency < 0 {
					p.logger.Warn().
						Str("factor", trigger.Factor).
						Int("frequency", trigger.Frequency).
						Msg("Model reported negative trigger frequency")
				}
			}
		}
	}
}

// stripCodeFences removes surrounding markdown fence markers and whitespace
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
