package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voicepanels/internal/config"
	"voicepanels/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// chatCompleter is the part of the OpenAI client the evaluator uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// TranscriptInput is one finished interview to be evaluated
type TranscriptInput struct {
	PanelName   string
	Participant string
	Transcript  string
}

// EvaluatorService turns interview transcripts into evaluation records via
// an OpenAI-compatible chat API, or a keyword heuristic when no key is set.
type EvaluatorService struct {
	config     *config.AIConfig
	client     chatCompleter
	log        *logrus.Entry
	newBackOff func() backoff.BackOff
}

// NewEvaluatorService creates a new evaluator service
func NewEvaluatorService(cfg *config.AIConfig, log *logrus.Entry) *EvaluatorService {
	s := &EvaluatorService{
		config: cfg,
		log:    log,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	if cfg.IsEnabled() {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = cfg.BaseURL
		clientConfig.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
		s.client = openai.NewClientWithConfig(clientConfig)
	}
	return s
}

// Enabled reports whether a real model is behind the evaluator
func (s *EvaluatorService) Enabled() bool {
	return s.client != nil
}

// EvaluateTranscript evaluates a transcript. Model failures are returned,
// not replaced by the heuristic, so nothing fabricated gets stored.
func (s *EvaluatorService) EvaluateTranscript(ctx context.Context, in TranscriptInput) (*model.RawEvaluation, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, errors.New("transcript is empty")
	}
	if !s.Enabled() {
		return mockEvaluate(in), nil
	}

	content, err := s.callModel(ctx, buildEvaluationPrompt(in))
	if err != nil {
		return nil, err
	}

	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	var ev model.RawEvaluation
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return &ev, nil
}

func (s *EvaluatorService) callModel(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: evaluationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	var content string
	op := func() error {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty response from model")
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.config.MaxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		s.log.WithError(err).WithField("retry_in", wait.String()).Warn("evaluation call failed")
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return "", fmt.Errorf("evaluate transcript: %w", err)
	}
	return content, nil
}

const evaluationSystemPrompt = `You analyse customer research interviews. Reply with a single JSON object and nothing else.`

func buildEvaluationPrompt(in TranscriptInput) string {
	return fmt.Sprintf(`Evaluate this interview from the panel %q with %s.

Return JSON with exactly these fields:
{
  "summary": "2-3 sentence summary",
  "executive_summary": "one sentence for executives",
  "sentiment": "positive | negative | neutral | mixed",
  "sentiment_score": 0.0-1.0,
  "quality_score": 1-10 (depth and usefulness of the answers),
  "topics": ["short topic", ...],
  "pain_points": [{"point": "...", "severity": "high | medium | low", "quote": "verbatim words"}],
  "desires": [{"desire": "...", "priority": "high | medium | low", "quote": "verbatim words"}],
  "key_quotes": [{"quote": "verbatim words", "theme": "...", "context": "..."}],
  "follow_up_worthy": true | false,
  "needs_review": true | false (transcript too short, off-topic or unclear)
}

Transcript:
%s`, in.PanelName, participantLabel(in.Participant), in.Transcript)
}

func participantLabel(name string) string {
	if name == "" {
		return "an anonymous participant"
	}
	return name
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// It strips common markdown fences first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, r := range []string{"```json", "```", "`"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

var (
	positiveWords = []string{"love", "great", "easy", "helpful", "fast", "excellent", "happy", "like", "enjoy"}
	negativeWords = []string{"hate", "slow", "hard", "confusing", "expensive", "broken", "frustrating", "bug", "annoying"}
	topicKeywords = map[string][]string{
		"pricing":      {"price", "pricing", "cost", "expensive", "cheap"},
		"onboarding":   {"onboarding", "setup", "getting started", "sign up"},
		"performance":  {"slow", "fast", "speed", "lag"},
		"support":      {"support", "help desk", "customer service"},
		"usability":    {"easy", "confusing", "intuitive", "hard to use"},
		"integrations": {"integration", "api", "sync", "export"},
	}
	topicOrder = []string{"pricing", "onboarding", "performance", "support", "usability", "integrations"}
)

// mockEvaluate scores a transcript with keyword counts so the pipeline
// works end to end without a model.
func mockEvaluate(in TranscriptInput) *model.RawEvaluation {
	lower := strings.ToLower(in.Transcript)
	pos, neg := countWords(lower, positiveWords), countWords(lower, negativeWords)

	sentiment := model.SentimentNeutral
	switch {
	case pos > 0 && neg > 0 && abs(pos-neg) <= 1:
		sentiment = model.SentimentMixed
	case pos > neg:
		sentiment = model.SentimentPositive
	case neg > pos:
		sentiment = model.SentimentNegative
	}
	score := 0.5
	if total := pos + neg; total > 0 {
		score = float64(pos) / float64(total)
	}

	var topics []any
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}

	var quotes, pains []any
	for _, sentence := range splitSentences(in.Transcript) {
		if len(strings.Fields(sentence)) < 6 {
			continue
		}
		if len(quotes) < 3 {
			quotes = append(quotes, map[string]any{"quote": sentence})
		}
		if len(pains) < 3 && countWords(strings.ToLower(sentence), negativeWords) > 0 {
			pains = append(pains, map[string]any{"point": sentence, "severity": string(model.LevelMedium), "quote": sentence})
		}
	}

	words := len(strings.Fields(in.Transcript))
	quality := 1 + float64(min(words, 900))/100
	followUp := sentiment == model.SentimentNegative || sentiment == model.SentimentMixed
	needsReview := words < 30

	return &model.RawEvaluation{
		Summary:          fmt.Sprintf("Heuristic evaluation of a %d word interview.", words),
		ExecutiveSummary: fmt.Sprintf("Overall tone %s.", sentiment),
		Sentiment:        string(sentiment),
		SentimentScore:   score,
		QualityScore:     quality,
		Topics:           topics,
		PainPoints:       pains,
		KeyQuotes:        quotes,
		FollowUpWorthy:   &followUp,
		NeedsReview:      &needsReview,
	}
}

func countWords(text string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(text, w)
	}
	return n
}

func splitSentences(text string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '!' || r == '?' || r == '\n' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
