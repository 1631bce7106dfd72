package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/TiltedFt/ai-learning-flashcards/utils"
)

const (
	defaultOpenAIModel    = "gpt-4.1-mini"
	generationTemperature = 0.2
	generationMaxTokens   = 1200
	optionsPerQuestion    = 4
)

const questionSystemPrompt = `Return ONLY JSON with {"questions": [{"stem": string, "options": [string, string, string, string], "correctIndex": number, "explanation": string?}]}. Each question must have exactly 4 options and exactly one correct index. Write questions in the same language as the source text. Prefer questions that test understanding of concepts over trivial example-specific facts. No prose.`

// GeneratedQuestion is one multiple-choice question as produced by the
// model, before persistence. It doubles as the cache payload shape.
type GeneratedQuestion struct {
	Stem         string   `json:"stem"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// questionPayload is the envelope the model is instructed to return and
// the shape cached payloads are stored in.
type questionPayload struct {
	Questions []GeneratedQuestion `json:"questions"`
}

// chatCompleter is the slice of the OpenAI client the generator needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIQuestionGenerator produces quiz questions from extracted topic
// text via chat completions. Responses that cannot be salvaged into at
// least one well-formed question degrade to a single placeholder
// question instead of failing the request.
type OpenAIQuestionGenerator struct {
	client chatCompleter
	model  string
}

func NewOpenAIQuestionGenerator(apiKey, model string) *OpenAIQuestionGenerator {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIQuestionGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Model returns the model name recorded in question provenance.
func (g *OpenAIQuestionGenerator) Model() string {
	return g.model
}

// Generate asks the model for a question set over the topic's source
// text. It returns the parsed questions and the total token usage the
// API reported. Transport errors are returned as-is; malformed model
// output is not an error.
func (g *OpenAIQuestionGenerator) Generate(ctx context.Context, topicTitle, sourceText string) ([]GeneratedQuestion, int, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: questionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(topicTitle, sourceText)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("chat completion failed: %w", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	questions := parseQuestions(content)
	if len(questions) == 0 {
		log.Printf("question generation returned no usable questions for topic %q, using fallback", topicTitle)
		questions = []GeneratedQuestion{fallbackQuestion(topicTitle)}
	}
	return questions, resp.Usage.TotalTokens, nil
}

func buildUserPrompt(topicTitle, sourceText string) string {
	return fmt.Sprintf("Topic: %s\nSource text:\n\"\"\"%s\"\"\"\nRules: 4 options, exactly one correct, non-abstract, test understanding.", topicTitle, sourceText)
}

// parseQuestions salvages the question list from raw model output,
// dropping entries with an empty stem or the wrong option count and
// clamping out-of-range answer indexes.
func parseQuestions(content string) []GeneratedQuestion {
	var payload questionPayload
	if err := utils.ExtractJSONTo(content, &payload); err != nil {
		return nil
	}

	var valid []GeneratedQuestion
	for _, q := range payload.Questions {
		if strings.TrimSpace(q.Stem) == "" || len(q.Options) != optionsPerQuestion {
			continue
		}
		q.CorrectIndex = clampCorrectIndex(q.CorrectIndex)
		valid = append(valid, q)
	}
	return valid
}

// fallbackQuestion is persisted when the model output is unusable, so
// a topic quiz always exists after a successful generation pass.
func fallbackQuestion(topicTitle string) GeneratedQuestion {
	return GeneratedQuestion{
		Stem:         fmt.Sprintf("What is the main idea of: %s?", topicTitle),
		Options:      []string{"A", "B", "C", "D"},
		CorrectIndex: 0,
		Explanation:  "From the provided text",
	}
}

func clampCorrectIndex(idx int) int {
	if idx < 0 {
		return 0
	}
	if idx > optionsPerQuestion-1 {
		return optionsPerQuestion - 1
	}
	return idx
}
