package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/fairgo/ai-ivr/pkg/client"
	"github.com/fairgo/ai-ivr/pkg/retry"
)

// MockSynthesizer is a Synthesizer for tests
type MockSynthesizer struct {
	name      string
	available bool
	err       error
	calls     int
	lastReq   *Request
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, req *Request) (*Audio, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &Audio{Data: []byte(m.name + ":" + req.Text), ContentType: "audio/mpeg", Provider: m.name}, nil
}

func (m *MockSynthesizer) IsAvailable() bool { return m.available }
func (m *MockSynthesizer) Name() string      { return m.name }

func noRetryClient(name string) *client.HTTPClient {
	return client.NewHTTPClient(name, 2*time.Second).WithRetry(retry.Config{MaxAttempts: 1})
}

func TestManagerFallsBack(t *testing.T) {
	failing := &MockSynthesizer{name: "backend", available: true, err: errors.New("503")}
	ok := &MockSynthesizer{name: "elevenlabs", available: true}
	m := NewManager([]Synthesizer{failing, ok}, zaptest.NewLogger(t))

	audio, err := m.Synthesize(context.Background(), &Request{Text: "നല്ലത്"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if audio.Provider != "elevenlabs" || failing.calls != 1 {
		t.Errorf("provider=%s failing.calls=%d", audio.Provider, failing.calls)
	}
}

func TestManagerSkipsUnavailable(t *testing.T) {
	off := &MockSynthesizer{name: "backend"}
	on := &MockSynthesizer{name: "elevenlabs", available: true}
	m := NewManager([]Synthesizer{off, on}, zap.NewNop())

	if _, err := m.Synthesize(context.Background(), &Request{Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if off.calls != 0 {
		t.Error("unavailable provider was called")
	}
	if got := m.Providers(); len(got) != 1 || got[0] != "elevenlabs" {
		t.Errorf("Providers() = %v", got)
	}
}

func TestManagerNoProvider(t *testing.T) {
	m := NewManager([]Synthesizer{&MockSynthesizer{name: "backend"}}, zap.NewNop())
	if _, err := m.Synthesize(context.Background(), &Request{Text: "x"}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("got %v", err)
	}
	if m.IsAvailable() {
		t.Error("manager should be unavailable")
	}
}

func TestManagerAllFail(t *testing.T) {
	sentinel := errors.New("quota")
	m := NewManager([]Synthesizer{
		&MockSynthesizer{name: "a", available: true, err: errors.New("down")},
		&MockSynthesizer{name: "b", available: true, err: sentinel},
	}, zap.NewNop())
	if _, err := m.Synthesize(context.Background(), &Request{Text: "x"}); !errors.Is(err, sentinel) {
		t.Errorf("got %v", err)
	}
}

func TestManagerEmptyText(t *testing.T) {
	p := &MockSynthesizer{name: "a", available: true}
	m := NewManager([]Synthesizer{p}, zap.NewNop())
	if _, err := m.Synthesize(context.Background(), &Request{}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("got %v", err)
	}
	if p.calls != 0 {
		t.Error("provider called for empty text")
	}
}

func TestBackendProviderSendsVoiceParams(t *testing.T) {
	var got backendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != backendSynthesizePath {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF...."))
	}))
	defer srv.Close()

	p := NewBackendProvider(srv.URL+"/", time.Second, zaptest.NewLogger(t)).WithHTTPClient(noRetryClient("backend"))
	audio, err := p.Synthesize(context.Background(), &Request{Text: "നല്ലത്", SpeakingRate: 1.12, Pitch: 1.5})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if audio.ContentType != "audio/wav" || string(audio.Data) != "RIFF...." {
		t.Errorf("unexpected audio %+v", audio)
	}
	if got.SpeakingRate != 1.12 || got.Pitch != 1.5 || got.Language != "ml-IN" || got.Text != "നല്ലത്" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestBackendProviderUnavailable(t *testing.T) {
	p := NewBackendProvider("", time.Second, zap.NewNop())
	if p.IsAvailable() {
		t.Fatal("provider without URL should be unavailable")
	}
	if _, err := p.Synthesize(context.Background(), &Request{Text: "x"}); err == nil {
		t.Error("expected error")
	}
}

func TestBackendProviderRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	p := NewBackendProvider(srv.URL, time.Second, zap.NewNop()).WithHTTPClient(noRetryClient("backend"))
	if _, err := p.Synthesize(context.Background(), &Request{Text: "x"}); err == nil {
		t.Error("expected error for empty audio")
	}
}

func TestElevenLabsProvider(t *testing.T) {
	var body elevenLabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/text-to-speech/voice-1":
			if r.URL.Query().Get("output_format") != "mp3_22050_32" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			_, _ = w.Write([]byte("mp3"))
		case "/voices":
			_, _ = w.Write([]byte(`{"voices":[{"voice_id":"voice-1","name":"Anjali"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewElevenLabsProvider("key", "", "", "", time.Second, zap.NewNop()).
		WithBaseURL(srv.URL).
		WithHTTPClient(noRetryClient("elevenlabs"))

	audio, err := p.Synthesize(context.Background(), &Request{
		Text: "ok", VoiceID: "voice-1", Format: "mp3_22050_32", Language: "ml-IN", SpeakingRate: 0.5,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio.Data) != "mp3" || audio.Provider != "elevenlabs" {
		t.Errorf("unexpected audio %+v", audio)
	}
	if body.VoiceSettings.Speed != minElevenLabsSpeed || body.LanguageCode != "ml" || body.ModelID != defaultElevenLabsModel {
		t.Errorf("unexpected body %+v", body)
	}

	voices, err := p.ListVoices(context.Background())
	if err != nil || len(voices) != 1 || voices[0].Name != "Anjali" {
		t.Errorf("voices=%v err=%v", voices, err)
	}
}

func TestElevenLabsEmptyBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
	}))
	defer srv.Close()

	p := NewElevenLabsProvider("key", "voice-1", "", "", time.Second, zap.NewNop()).
		WithBaseURL(srv.URL).
		WithHTTPClient(noRetryClient("elevenlabs"))
	if _, err := p.Synthesize(context.Background(), &Request{Text: "x"}); err == nil {
		t.Fatal("expected error for empty audio")
	}

	backup := &MockSynthesizer{name: "backend", available: true}
	m := NewManager([]Synthesizer{p, backup}, zaptest.NewLogger(t))
	audio, err := m.Synthesize(context.Background(), &Request{Text: "നല്ലത്"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if audio.Provider != "backend" || len(audio.Data) == 0 {
		t.Errorf("unexpected audio %+v", audio)
	}
}

func TestClampSpeed(t *testing.T) {
	tests := map[float64]float64{0: 1.0, 0.5: 0.7, 0.88: 0.88, 1.12: 1.12, 2: 1.2}
	for in, want := range tests {
		if got := clampSpeed(in); got != want {
			t.Errorf("clampSpeed(%v) = %v, want %v", in, got, want)
		}
	}
}
