package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalike-app/kalike/internal/llm"
	"github.com/kalike-app/kalike/internal/simulation"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(config)
}

var clip = simulation.Audio{Data: []byte("RIFF....WAVE"), MIMEType: "audio/wav"}

func TestOpenAITranscriberFallsBack(t *testing.T) {
	var mu sync.Mutex
	var models []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		mu.Lock()
		models = append(models, r.FormValue("model"))
		mu.Unlock()
		assert.Equal(t, "kn", r.FormValue("language"))

		if r.FormValue("model") == DefaultTranscribeModel {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"text": " ಮೆಜೆಸ್ಟಿಕ್ ಹೋಗಬೇಕು "})
	})

	tr := newOpenAITranscriber(client, "", nil)
	text, err := tr.Transcribe(context.Background(), clip, "kn")
	require.NoError(t, err)
	assert.Equal(t, "ಮೆಜೆಸ್ಟಿಕ್ ಹೋಗಬೇಕು", text)
	assert.Equal(t, []string{DefaultTranscribeModel, FallbackTranscribeModel}, models)
}

func TestOpenAITranscriberFailureIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusServiceUnavailable)
	})
	tr := newOpenAITranscriber(client, "", nil)

	text, err := tr.Transcribe(context.Background(), clip, "kn")
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = tr.Transcribe(context.Background(), simulation.Audio{}, "kn")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestOpenAISynthesizerDataURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/speech"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nova", body["voice"])
		assert.Equal(t, DefaultSpeechModel, body["model"])
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3mp3bytes"))
	})

	s := newOpenAISynthesizer(client, "", nil)
	url, err := s.Synthesize(context.Background(), "ಹಾಯ್!", "nova")
	require.NoError(t, err)
	assert.Equal(t, "data:audio/mp3;base64,"+base64.StdEncoding.EncodeToString([]byte("ID3mp3bytes")), url)
}

func TestOpenAISynthesizerFallbackAndFailure(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		model, _ := body["model"].(string)
		calls = append(calls, model)
		http.Error(w, `{"error":{"message":"nope"}}`, http.StatusBadRequest)
	})

	s := newOpenAISynthesizer(client, "", nil)
	_, err := s.Synthesize(context.Background(), "ನಮಸ್ಕಾರ", "")
	require.Error(t, err)
	assert.Equal(t, []string{DefaultSpeechModel, FallbackSpeechModel}, calls)

	_, err = s.Synthesize(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestModelChain(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, modelChain("", "a", "b"))
	assert.Equal(t, []string{"b"}, modelChain("b", "a", "b"))
	assert.Equal(t, []string{"x", "b"}, modelChain("x", "a", "b"))
}

type fakeRecognizer struct {
	req  *speechpb.RecognizeRequest
	resp *speechpb.RecognizeResponse
	err  error
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeRecognizer) Close() error { return nil }

func TestGoogleTranscriber(t *testing.T) {
	rec := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "ನಮಸ್ಕಾರ"}}},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " ಸಾರ್ "}}},
			{},
		},
	}}
	g := newGoogleTranscriber(rec, nil)

	text, err := g.Transcribe(context.Background(), simulation.Audio{Data: []byte{1}, MIMEType: "audio/webm"}, "kn")
	require.NoError(t, err)
	assert.Equal(t, "ನಮಸ್ಕಾರ ಸಾರ್", text)
	assert.Equal(t, GoogleLanguage, rec.req.GetConfig().GetLanguageCode())
	assert.Equal(t, speechpb.RecognitionConfig_WEBM_OPUS, rec.req.GetConfig().GetEncoding())

	rec.err = errors.New("quota")
	text, err = g.Transcribe(context.Background(), simulation.Audio{Data: []byte{1}}, "en-IN")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, "en-IN", rec.req.GetConfig().GetLanguageCode())
}

func TestInferEncoding(t *testing.T) {
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, inferEncoding("audio/wav", ""))
	assert.Equal(t, speechpb.RecognitionConfig_MP3, inferEncoding("", "turn.mp3"))
	assert.Equal(t, speechpb.RecognitionConfig_OGG_OPUS, inferEncoding("audio/ogg", ""))
	assert.Equal(t, speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, inferEncoding("", ""))
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	require.NoError(t, c.Set(ctx, "a", "1"))
	require.NoError(t, c.Set(ctx, "b", "2"))
	require.NoError(t, c.Set(ctx, "a", "1b"))
	require.NoError(t, c.Set(ctx, "c", "3"))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
	v, ok, _ := c.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

type countingSynth struct {
	calls int
	err   error
}

func (s *countingSynth) Synthesize(_ context.Context, text, voice string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "data:" + voice + ":" + text, nil
}

func TestCachedSynthesizer(t *testing.T) {
	inner := &countingSynth{}
	s := NewCachedSynthesizer(inner, NewMemoryCache(10), nil)
	ctx := context.Background()

	a, err := s.Synthesize(ctx, "ನಮಸ್ಕಾರ", "")
	require.NoError(t, err)
	b, err := s.Synthesize(ctx, "ನಮಸ್ಕಾರ", "alloy")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, inner.calls)

	_, err = s.Synthesize(ctx, "ನಮಸ್ಕಾರ", "onyx")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	inner.err = errors.New("tts down")
	_, err = s.Synthesize(ctx, "ಹೊಸ", "")
	assert.Error(t, err)
}

// An unreachable redis degrades to a miss and the inner synthesizer
// still answers.
func TestCachedSynthesizerRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	inner := &countingSynth{}
	s := NewCachedSynthesizer(inner, NewRedisCache(rdb, time.Hour), nil)
	url, err := s.Synthesize(context.Background(), "ಸರಿ", "alloy")
	require.NoError(t, err)
	assert.Equal(t, "data:alloy:ಸರಿ", url)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("KALIKE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KALIKE_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	c := NewRedisCache(rdb, time.Minute)
	key := "test-" + t.Name()
	t.Cleanup(func() { rdb.Del(ctx, c.prefix+key) })

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, "data:audio/mp3;base64,AAA"))
	v, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "data:audio/mp3;base64,AAA", v)
}

type fixedTranscriber struct {
	text string
	err  error
}

func (f fixedTranscriber) Transcribe(context.Context, simulation.Audio, string) (string, error) {
	return f.text, f.err
}

func TestPronunciationEvaluator(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"accuracy_score": 85, "feedback": "Stress the second syllable", "correct": true}`),
	})
	e := NewPronunciationEvaluator(fixedTranscriber{text: "ನಮಸ್ಕರ"}, mock, nil)

	got := e.Evaluate(context.Background(), clip, "ನಮಸ್ಕಾರ")
	assert.Equal(t, 85, got.AccuracyScore)
	assert.True(t, got.Correct)
	assert.Equal(t, "ನಮಸ್ಕರ", got.Transcription)

	req, ok := mock.LastCall()
	require.True(t, ok)
	require.NotNil(t, req.Schema)
	assert.Equal(t, "pronunciation-feedback", req.Schema.Name)
	assert.Contains(t, req.Messages[0].Content, "Original: ನಮಸ್ಕಾರ")
	assert.Contains(t, req.Messages[0].Content, "User said: ನಮಸ್ಕರ")
}

func TestPronunciationEvaluatorFailures(t *testing.T) {
	tests := []struct {
		name string
		stt  fixedTranscriber
		resp llm.MockResponse
	}{
		{"provider error", fixedTranscriber{text: "x"}, llm.MockResponse{Err: errors.New("boom")}},
		{"schema violation", fixedTranscriber{text: "x"}, llm.MockResponse{Content: json.RawMessage(`{"accuracy_score": 150, "feedback": "", "correct": true}`)}},
		{"transcriber error", fixedTranscriber{err: errors.New("stt")}, llm.MockText("unused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewPronunciationEvaluator(tt.stt, llm.NewMockProvider(tt.resp), nil)
			assert.Equal(t, FailedEvaluation, e.Evaluate(context.Background(), clip, "ನಮಸ್ಕಾರ"))
		})
	}
}

func TestKeywordFilter(t *testing.T) {
	f := NewKeywordFilter([]string{"idiot", "ಮೂರ್ಖ", " "}, nil, nil)
	sc := simulation.Scenario{Replacements: map[string]string{"ಕತ್ತೆ": "ಸಾರ್"}}

	assert.Equal(t, "ಏಯ್ ಸಾರ್!", f.Filter("ಏಯ್ ಕತ್ತೆ!", sc))
	assert.Equal(t, "you *****", f.Filter("you IDIOT", sc))
	assert.Equal(t, "*****", f.Filter("ಮೂರ್ಖ", sc))

	ok, word := f.CheckText("What an Idiot move")
	assert.False(t, ok)
	assert.Equal(t, "idiot", word)
	ok, _ = f.CheckText("ಕ್ಷಮಿಸಿ, ನನ್ನ ತಪ್ಪು")
	assert.True(t, ok)
}

func TestKeywordFilterCheckAudio(t *testing.T) {
	ctx := context.Background()
	blocked := []string{"stupid"}

	assert.False(t, NewKeywordFilter(blocked, fixedTranscriber{text: "you stupid driver"}, nil).CheckAudio(ctx, clip))
	assert.True(t, NewKeywordFilter(blocked, fixedTranscriber{text: "sorry sir"}, nil).CheckAudio(ctx, clip))
	assert.True(t, NewKeywordFilter(blocked, fixedTranscriber{err: errors.New("down")}, nil).CheckAudio(ctx, clip))
	assert.True(t, NewKeywordFilter(blocked, nil, nil).CheckAudio(ctx, clip))
}

func TestPassThrough(t *testing.T) {
	text, err := PassThrough{}.Transcribe(context.Background(), simulation.Audio{Data: []byte("  ಹೌದು ")}, "kn")
	require.NoError(t, err)
	assert.Equal(t, "ಹೌದು", text)
}

func TestNewTranscriberUnknown(t *testing.T) {
	_, err := NewTranscriber(context.Background(), Config{STTProvider: "smallest"}, nil)
	assert.Error(t, err)
	_, err = NewTranscriber(context.Background(), Config{STTProvider: "openai"}, nil)
	assert.Error(t, err, "missing key")
}
