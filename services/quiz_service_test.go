package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/TiltedFt/ai-learning-flashcards/model"
)

type fakeTopicSource struct {
	topic *TopicInfo
	err   error
}

func (f *fakeTopicSource) ResolveTopic(ctx context.Context, topicID string) (*TopicInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.topic, nil
}

type extractCall struct {
	path     string
	from, to int
}

type fakeExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []extractCall
}

func (f *fakeExtractor) ExtractPageRange(filePath string, from, to int) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, extractCall{path: filePath, from: from, to: to})
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*model.GenCache
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*model.GenCache{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (*model.GenCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeCache) PutIfAbsent(ctx context.Context, key, payload string, tokens int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if _, ok := f.entries[key]; ok {
		return nil
	}
	f.entries[key] = &model.GenCache{
		Key:           key,
		Payload:       payload,
		Tokens:        tokens,
		SchemaVersion: model.GenCacheSchemaVersion,
	}
	return nil
}

type fakeGenerator struct {
	mu        sync.Mutex
	calls     int
	questions []GeneratedQuestion
	tokens    int
	err       error
}

func (f *fakeGenerator) Generate(ctx context.Context, topicTitle, sourceText string) ([]GeneratedQuestion, int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.questions, f.tokens, nil
}

func (f *fakeGenerator) Model() string { return "gpt-4.1-mini" }

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeQuestionStore mirrors the real store's one-set-per-topic rule:
// a second CreateSet for a topic fails with ErrDuplicateGeneration.
type fakeQuestionStore struct {
	mu   sync.Mutex
	sets map[string][]model.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{sets: map[string][]model.Question{}}
}

func (f *fakeQuestionStore) FindByTopic(ctx context.Context, topicID string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Question(nil), f.sets[topicID]...), nil
}

func (f *fakeQuestionStore) CreateSet(ctx context.Context, chapterID, topicID string, questions []GeneratedQuestion, modelName string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sets[topicID]; ok {
		return nil, ErrDuplicateGeneration
	}
	rows := make([]model.Question, 0, len(questions))
	for i, q := range questions {
		var explanation *string
		if q.Explanation != "" {
			e := q.Explanation
			explanation = &e
		}
		rows = append(rows, model.Question{
			ID:            uuid.NewString(),
			CreatedAt:     time.Now(),
			ChapterID:     chapterID,
			TopicID:       topicID,
			Position:      i,
			Stem:          q.Stem,
			Options:       datatypes.NewJSONSlice(q.Options),
			CorrectIndex:  clampCorrectIndex(q.CorrectIndex),
			Explanation:   explanation,
			ModelSnapshot: modelName,
		})
	}
	f.sets[topicID] = rows
	return rows, nil
}

func intPtr(v int) *int { return &v }

func testTopic() *TopicInfo {
	return &TopicInfo{
		ID:        "topic-1",
		Title:     "Cell Biology",
		ChapterID: "chapter-1",
		PageStart: intPtr(12),
		PageEnd:   intPtr(18),
		FilePath:  "uploads/biology.pdf",
	}
}

func testQuestions() []GeneratedQuestion {
	return []GeneratedQuestion{
		{Stem: "What organelle produces ATP?", Options: []string{"Nucleus", "Mitochondrion", "Ribosome", "Golgi"}, CorrectIndex: 1, Explanation: "Mitochondria run cellular respiration"},
		{Stem: "What does the cell membrane regulate?", Options: []string{"DNA copies", "Protein folding", "What enters and leaves", "ATP yield"}, CorrectIndex: 2},
		{Stem: "Where is genetic material stored?", Options: []string{"Nucleus", "Cytoplasm", "Vacuole", "Lysosome"}, CorrectIndex: 0},
	}
}

func newTestService(topics TopicSource, extractor TextExtractor, cache GenerationCache, gen QuestionGenerator, store QuestionPersister) *QuizService {
	return NewQuizService(topics, extractor, cache, gen, store)
}

func TestEnsureTopicQuestionsGeneratesAndPersists(t *testing.T) {
	extractor := &fakeExtractor{text: "The cell is the basic unit of life."}
	cache := newFakeCache()
	gen := &fakeGenerator{questions: testQuestions(), tokens: 750}
	store := newFakeQuestionStore()
	svc := newTestService(&fakeTopicSource{topic: testTopic()}, extractor, cache, gen, store)

	got, err := svc.EnsureTopicQuestions(context.Background(), "topic-1")
	if err != nil {
		t.Fatalf("EnsureTopicQuestions failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got))
	}
	for i, q := range got {
		if q.Position != i {
			t.Errorf("question %d has position %d", i, q.Position)
		}
		if q.TopicID != "topic-1" || q.ChapterID != "chapter-1" {
			t.Errorf("question %d has wrong parents: topic=%s chapter=%s", i, q.TopicID, q.ChapterID)
		}
	}
	if got[0].Stem != "What organelle produces ATP?" {
		t.Errorf("unexpected first stem: %q", got[0].Stem)
	}
	if gen.callCount() != 1 {
		t.Errorf("expected 1 generator call, got %d", gen.callCount())
	}

	key := Fingerprint("topic-1", 12, 18, extractor.text)
	entry, _ := cache.Get(context.Background(), key)
	if entry == nil {
		t.Fatal("expected a cache entry after generation")
	}
	if entry.Tokens != 750 {
		t.Errorf("expected cached token count 750, got %d", entry.Tokens)
	}
	var payload questionPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		t.Fatalf("cache payload is not valid JSON: %v", err)
	}
	if len(payload.Questions) != 3 {
		t.Errorf("cache payload holds %d questions, want 3", len(payload.Questions))
	}
}

func TestEnsureTopicQuestionsIsIdempotent(t *testing.T) {
	extractor := &fakeExtractor{text: "source text"}
	gen := &fakeGenerator{questions: testQuestions()}
	store := newFakeQuestionStore()
	svc := newTestService(&fakeTopicSource{topic: testTopic()}, extractor, newFakeCache(), gen, store)

	first, err := svc.EnsureTopicQuestions(context.Background(), "topic-1")
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := svc.EnsureTopicQuestions(context.Background(), "topic-1")
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if gen.callCount() != 1 {
		t.Errorf("expected generation to run once, ran %d times", gen.callCount())
	}
	if len(first) != len(second) {
		t.Fatalf("calls returned different set sizes: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("question %d differs between calls: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestEnsureTopicQuestionsUsesCachedPayload(t *testing.T) {
	extractor := &fakeExtractor{text: "cached source"}
	cache := newFakeCache()
	gen := &fakeGenerator{questions: testQuestions()}
	store := newFakeQuestionStore()

	payload, _ := json.Marshal(questionPayload{Questions: testQuestions()})
	key := Fingerprint("topic-1", 12, 18, extractor.text)
	if err := cache.PutIfAbsent(context.Background(), key, string(payload), 500); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(&fakeTopicSource{topic: testTopic()}, extractor, cache, gen, store)
	got, err := svc.EnsureTopicQuestions(context.Background(), "topic-1")
	if err != nil {
		t.Fatalf("EnsureTopicQuestions failed: %v", err)
	}

	if gen.callCount() != 0 {
		t.Errorf("generator should not run on a cache hit, ran %d times", gen.callCount())
	}
	if len(got) != 3 {
		t.Errorf("expected 3 persisted questions from cache, got %d", len(got))
	}
}

func TestEnsureTopicQuestionsIgnoresStaleSchemaVersions(t *testing.T) {
	extractor := &fakeExtractor{text: "versioned source"}
	cache := newFakeCache()
	gen := &fakeGenerator{questions: testQuestions()}
	store := newFakeQuestionStore()

	payload, _ := json.Marshal(questionPayload{Questions: testQuestions()})
	key := Fingerprint("topic-1", 12, 18, extractor.text)
	cache.entries[key] = &model.GenCache{
		Key:           key,
		Payload:       string(payload),
		SchemaVersion: model.GenCacheSchemaVersion + 1,
	}

	svc := newTestService(&fakeTopicSource{topic: testTopic()}, extractor, cache, gen, store)
	if _, err := svc.EnsureTopicQuestions(context.Background(), "topic-1"); err != nil {
		t.Fatalf("EnsureTopicQuestions failed: %v", err)
	}
	if gen.callCount() != 1 {
		t.Errorf("stale schema version should force regeneration, generator ran %d times", gen.callCount())
	}
}

func TestEnsureTopicQuestionsMissingSource(t *testing.T) {
	topic := testTopic()
	topic.FilePath = ""
	svc := newTestService(&fakeTopicSource{topic: topic}, &fakeExtractor{}, newFakeCache(), &fakeGenerator{}, newFakeQuestionStore())

	_, err := svc.EnsureTopicQuestions(context.Background(), "topic-1")
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("expected ErrMissingSource, got %v", err)
	}
}

func TestEnsureTopicQuestionsTopicNotFound(t *testing.T) {
	svc := newTestService(&fakeTopicSource{err: ErrTopicNotFound}, &fakeExtractor{}, newFakeCache(), &fakeGenerator{}, newFakeQuestionStore())

	_, err := svc.EnsureTopicQuestions(context.Background(), "missing")
	if !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
}

func TestEnsureTopicQuestionsGeneratorErrorPropagates(t *testing.T) {
	genErr := errors.New("api unavailable")
	svc := newTestService(&fakeTopicSource{topic: testTopic()}, &fakeExtractor{text: "text"}, newFakeCache(), &fakeGenerator{err: genErr}, newFakeQuestionStore())

	_, err := svc.EnsureTopicQuestions(context.Background(), "topic-1")
	if !errors.Is(err, genErr) {
		t.Fatalf("expected wrapped generator error, got %v", err)
	}
}

func TestEnsureTopicQuestionsPageRangeDefaults(t *testing.T) {
	tests := []struct {
		name               string
		pageStart, pageEnd *int
		wantFrom, wantTo   int
	}{
		{"no range falls back to page 1", nil, nil, 1, 1},
		{"missing end collapses to start", intPtr(5), nil, 5, 5},
		{"full range passes through", intPtr(3), intPtr(9), 3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic := testTopic()
			topic.PageStart = tt.pageStart
			topic.PageEnd = tt.pageEnd

			extractor := &fakeExtractor{text: "text"}
			svc := newTestService(&fakeTopicSource{topic: topic}, extractor, newFakeCache(), &fakeGenerator{questions: testQuestions()}, newFakeQuestionStore())

			if _, err := svc.EnsureTopicQuestions(context.Background(), "topic-1"); err != nil {
				t.Fatalf("EnsureTopicQuestions failed: %v", err)
			}
			if len(extractor.calls) != 1 {
				t.Fatalf("expected 1 extraction, got %d", len(extractor.calls))
			}
			call := extractor.calls[0]
			if call.from != tt.wantFrom || call.to != tt.wantTo {
				t.Errorf("extracted pages %d-%d, want %d-%d", call.from, call.to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

// Full pipeline with the real generator parsing a mocked model response.
func TestEnsureTopicQuestionsEndToEnd(t *testing.T) {
	topic := testTopic()
	topic.PageStart = intPtr(10)
	topic.PageEnd = intPtr(12)

	extractor := &fakeExtractor{text: "Mitochondria produce ATP via oxidative phosphorylation."}
	stub := &stubChatCompleter{
		content: `{"questions":[{"stem":"What is the primary function of mitochondria?","options":["ATP production","Protein synthesis","Lipid storage","DNA replication"],"correctIndex":0,"explanation":"Mitochondria generate ATP."}]}`,
		tokens:  300,
	}
	store := newFakeQuestionStore()
	svc := newTestService(&fakeTopicSource{topic: topic}, extractor, newFakeCache(), newStubGenerator(stub), store)

	got, err := svc.EnsureTopicQuestions(context.Background(), "topic-1")
	if err != nil {
		t.Fatalf("EnsureTopicQuestions failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 persisted question, got %d", len(got))
	}

	q := got[0]
	if q.Stem != "What is the primary function of mitochondria?" || q.CorrectIndex != 0 {
		t.Errorf("unexpected question: stem=%q correctIndex=%d", q.Stem, q.CorrectIndex)
	}
	if len(q.Options) != 4 || q.Options[0] != "ATP production" {
		t.Errorf("unexpected options: %v", []string(q.Options))
	}

	// API projection must not leak provenance or model snapshot.
	projected := q.ToResponse()
	if projected.Stem != q.Stem || projected.CorrectIndex != q.CorrectIndex {
		t.Errorf("projection altered question content: %+v", projected)
	}
	if projected.Explanation == nil || *projected.Explanation != "Mitochondria generate ATP." {
		t.Errorf("projection lost the explanation: %+v", projected.Explanation)
	}
}

func TestEnsureTopicQuestionsConcurrentCallersShareOneSet(t *testing.T) {
	extractor := &fakeExtractor{text: "contended source"}
	gen := &fakeGenerator{questions: testQuestions()}
	store := newFakeQuestionStore()
	svc := newTestService(&fakeTopicSource{topic: testTopic()}, extractor, newFakeCache(), gen, store)

	const callers = 2
	results := make([][]model.Question, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.EnsureTopicQuestions(context.Background(), "topic-1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if len(results[i]) != 3 {
			t.Fatalf("caller %d got %d questions, want 3", i, len(results[i]))
		}
	}

	// Both callers must see the same persisted rows, whoever won.
	for i := range results[0] {
		if results[0][i].ID != results[1][i].ID {
			t.Errorf("callers disagree on question %d: %s vs %s", i, results[0][i].ID, results[1][i].ID)
		}
	}

	stored, _ := store.FindByTopic(context.Background(), "topic-1")
	if len(stored) != 3 {
		t.Errorf("store holds %d questions, want exactly one set of 3", len(stored))
	}
}
