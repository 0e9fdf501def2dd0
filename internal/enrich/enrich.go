// Package enrich generates the six AI-classified fields for an article
// from its title, journal and abstract.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Aros2100/neuro-news/internal/model"
	"github.com/Aros2100/neuro-news/internal/resilience"
	"github.com/Aros2100/neuro-news/pkg/anthropic"
)

// enrichmentKeys are the fields a response must carry, all of them, for
// the result to be applied. Anything less leaves the record untouched.
var enrichmentKeys = []string{
	"summary", "importance", "news_value",
	"subspecialty", "article_type", "clinical_relevance",
}

// DecodeError marks a response whose payload was not parseable JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "enrich: decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ContractError marks a response that decoded but violates the output
// contract (missing field, wrong type, score out of range).
type ContractError struct {
	Reason string
}

func (e *ContractError) Error() string {
	return "enrich: contract violation: " + e.Reason
}

// Enricher produces enrichment results, one article per API call.
type Enricher struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Enricher on top of an Anthropic client.
func New(client anthropic.Client, modelID string, maxTokens int64) *Enricher {
	return &Enricher{client: client, model: modelID, maxTokens: maxTokens}
}

// Model returns the configured model id.
func (e *Enricher) Model() string { return e.model }

// Enrich classifies one article. Transport and API failures come back
// as transient errors; malformed or contract-violating responses come
// back as DecodeError or ContractError. The usage is reported even on
// parse failures so cost attribution stays accurate.
func (e *Enricher) Enrich(ctx context.Context, art model.Article) (model.Enrichment, anthropic.TokenUsage, error) {
	req := anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.SystemBlock{{
			Text:         systemPrompt,
			CacheControl: &anthropic.CacheControl{TTL: "5m"},
		}},
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: userPrompt(art.Title, art.Journal, art.Abstract),
		}},
	}

	resp, err := e.client.CreateMessage(ctx, req)
	if err != nil {
		return model.Enrichment{}, anthropic.TokenUsage{}, resilience.NewTransientError(err, 0)
	}

	result, err := parseResponse(resp.Text())
	return result, resp.Usage, err
}

// parseResponse validates the model output against the six-field
// contract and returns the typed result.
func parseResponse(raw string) (model.Enrichment, error) {
	cleaned := cleanJSON(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return model.Enrichment{}, &DecodeError{Err: err}
	}

	for _, key := range enrichmentKeys {
		if _, ok := fields[key]; !ok {
			return model.Enrichment{}, &ContractError{Reason: "missing field " + key}
		}
	}

	var result model.Enrichment
	for key, dst := range map[string]*string{
		"summary":            &result.Summary,
		"importance":         &result.Importance,
		"subspecialty":       &result.Subspecialty,
		"article_type":       &result.ArticleType,
		"clinical_relevance": &result.ClinicalRelevance,
	} {
		if err := json.Unmarshal(fields[key], dst); err != nil {
			return model.Enrichment{}, &ContractError{Reason: "field " + key + " is not a string"}
		}
	}

	if result.Summary == model.UnenrichedSummary {
		return model.Enrichment{}, &ContractError{Reason: "empty summary"}
	}

	score, err := coerceScore(fields["news_value"])
	if err != nil {
		return model.Enrichment{}, err
	}
	result.NewsValue = score

	return result, nil
}

// coerceScore accepts an integer, an integral float, or a numeric
// string for news_value, rejecting anything outside 1 to 10.
func coerceScore(raw json.RawMessage) (int, error) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, &ContractError{Reason: "news_value is not a number"}
		}
		num = json.Number(strings.TrimSpace(s))
	}

	score, err := num.Int64()
	if err != nil {
		f, ferr := num.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return 0, &ContractError{Reason: fmt.Sprintf("news_value %q is not integral", num)}
		}
		score = int64(f)
	}

	if score < 1 || score > 10 {
		return 0, &ContractError{Reason: "news_value " + strconv.FormatInt(score, 10) + " out of range"}
	}
	return int(score), nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
