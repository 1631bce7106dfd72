package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubChatCompleter struct {
	content string
	tokens  int
	err     error
	gotReq  openai.ChatCompletionRequest
}

func (s *stubChatCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.gotReq = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
		Usage: openai.Usage{TotalTokens: s.tokens},
	}, nil
}

func newStubGenerator(stub *stubChatCompleter) *OpenAIQuestionGenerator {
	return &OpenAIQuestionGenerator{client: stub, model: defaultOpenAIModel}
}

func TestGenerateParsesWellFormedResponse(t *testing.T) {
	stub := &stubChatCompleter{
		content: `{"questions":[{"stem":"What is osmosis?","options":["A","B","C","D"],"correctIndex":2,"explanation":"Water moves across the membrane"}]}`,
		tokens:  420,
	}
	gen := newStubGenerator(stub)

	questions, tokens, err := gen.Generate(context.Background(), "Cell Transport", "source text")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if tokens != 420 {
		t.Errorf("tokens = %d, want 420", tokens)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.Stem != "What is osmosis?" || q.CorrectIndex != 2 {
		t.Errorf("unexpected question: %+v", q)
	}
}

func TestGenerateRequestShape(t *testing.T) {
	stub := &stubChatCompleter{content: `{"questions":[]}`}
	gen := newStubGenerator(stub)

	if _, _, err := gen.Generate(context.Background(), "Photosynthesis", "leaf text"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	req := stub.gotReq
	if req.Model != defaultOpenAIModel {
		t.Errorf("model = %q, want %q", req.Model, defaultOpenAIModel)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Error("expected json_object response format")
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("first message role = %q, want system", req.Messages[0].Role)
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "Topic: Photosynthesis") || !strings.Contains(user, "leaf text") {
		t.Errorf("user prompt missing topic or source text: %q", user)
	}
}

func TestGenerateFallsBackOnUnusableOutput(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"prose only", "I cannot produce JSON for this."},
		{"empty question list", `{"questions":[]}`},
		{"all questions malformed", `{"questions":[{"stem":"","options":["A","B","C","D"],"correctIndex":0},{"stem":"Three options","options":["A","B","C"],"correctIndex":0}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := newStubGenerator(&stubChatCompleter{content: tc.content, tokens: 100})

			questions, tokens, err := gen.Generate(context.Background(), "Mitosis", "text")
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if tokens != 100 {
				t.Errorf("tokens = %d, want 100", tokens)
			}
			if len(questions) != 1 {
				t.Fatalf("expected single fallback question, got %d", len(questions))
			}
			q := questions[0]
			if q.Stem != "What is the main idea of: Mitosis?" {
				t.Errorf("fallback stem = %q", q.Stem)
			}
			if len(q.Options) != 4 || q.Options[0] != "A" || q.CorrectIndex != 0 {
				t.Errorf("unexpected fallback shape: %+v", q)
			}
			if q.Explanation != "From the provided text" {
				t.Errorf("fallback explanation = %q", q.Explanation)
			}
		})
	}
}

func TestGenerateTransportErrorIsReturned(t *testing.T) {
	apiErr := errors.New("connection refused")
	gen := newStubGenerator(&stubChatCompleter{err: apiErr})

	_, _, err := gen.Generate(context.Background(), "Anything", "text")
	if !errors.Is(err, apiErr) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestParseQuestionsSalvagesFencedJSON(t *testing.T) {
	content := "Here you go:\n```json\n{\"questions\":[{\"stem\":\"Q?\",\"options\":[\"A\",\"B\",\"C\",\"D\"],\"correctIndex\":1}]}\n```\nHope that helps!"

	questions := parseQuestions(content)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].Stem != "Q?" || questions[0].CorrectIndex != 1 {
		t.Errorf("unexpected question: %+v", questions[0])
	}
}

func TestParseQuestionsFiltersAndClamps(t *testing.T) {
	content := `{"questions":[
		{"stem":"Out of range high","options":["A","B","C","D"],"correctIndex":99},
		{"stem":"Out of range low","options":["A","B","C","D"],"correctIndex":-3},
		{"stem":"","options":["A","B","C","D"],"correctIndex":0},
		{"stem":"Wrong option count","options":["A","B"],"correctIndex":0}
	]}`

	questions := parseQuestions(content)
	if len(questions) != 2 {
		t.Fatalf("expected 2 surviving questions, got %d", len(questions))
	}
	if questions[0].CorrectIndex != 3 {
		t.Errorf("high index clamped to %d, want 3", questions[0].CorrectIndex)
	}
	if questions[1].CorrectIndex != 0 {
		t.Errorf("negative index clamped to %d, want 0", questions[1].CorrectIndex)
	}
}

func TestClampCorrectIndex(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 0}, {0, 0}, {1, 1}, {3, 3}, {4, 3}, {99, 3},
	}
	for _, tt := range tests {
		if got := clampCorrectIndex(tt.in); got != tt.want {
			t.Errorf("clampCorrectIndex(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
