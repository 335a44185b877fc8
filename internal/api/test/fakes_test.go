package test

import (
	"context"
	"errors"
	"sync"

	"github.com/fairgo/ai-ivr/pkg/audit"
	"github.com/fairgo/ai-ivr/pkg/auth"
	"github.com/fairgo/ai-ivr/pkg/speech"
	"github.com/fairgo/ai-ivr/pkg/tts"
)

type fakeSynth struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, req *tts.Request) (*tts.Audio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Audio{Data: []byte("ID3" + req.Text), ContentType: "audio/mpeg", Provider: "fake"}, nil
}

type fakeUsers struct {
	byID map[string]*auth.User
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range f.byID {
		if u.Email == auth.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, auth.ErrUserNotFound
}

type fakeTokens struct {
	mu      sync.Mutex
	live    map[string]string
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{live: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) Store(ctx context.Context, userID, tenantID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[token] = userID
	return nil
}

func (f *fakeTokens) Consume(ctx context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.live[token]
	if !ok || f.revoked[token] {
		return "", auth.ErrRefreshTokenInvalid
	}
	f.revoked[token] = true
	return userID, nil
}

func (f *fakeTokens) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = true
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeAudit) Log(ctx context.Context, e audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) List(ctx context.Context, tenantID string, action audit.Action, offset, limit int) ([]audit.Entry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []audit.Entry{}
	for _, e := range f.entries {
		if e.TenantID == tenantID && (action == "" || e.Action == action) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAudit) actions() []audit.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audit.Action
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeHistory struct {
	mu      sync.Mutex
	records []speech.Record
}

func (f *fakeHistory) Record(ctx context.Context, rec speech.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeHistory) List(ctx context.Context, tenantID, dialect string, offset, limit int) ([]speech.Record, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []speech.Record{}
	for _, r := range f.records {
		if r.TenantID == tenantID && (dialect == "" || r.Dialect == dialect) {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

type fakeVoices struct {
	err error
}

func (f *fakeVoices) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []tts.Voice{{VoiceID: "v-ml-1", Name: "Anjali"}}, nil
}

var errUpstream = errors.New("upstream 500")
