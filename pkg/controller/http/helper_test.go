package http_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/retainer/pkg/usecase"
	"github.com/secmon-lab/retainer/pkg/utils/async"
)

const testSigningSecret = "test-signing-secret"

// computeSlackSignature computes the Slack signature for testing
func computeSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

// signRequest sets valid Slack signature headers on req
func signRequest(req *http.Request, body string) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", computeSlackSignature(testSigningSecret, timestamp, body))
}

// mockDispatcher is a mock implementation of httpctrl.EventDispatcher
type mockDispatcher struct {
	checkFormFn func(ev *usecase.FormEvent) map[string]string

	mu       sync.Mutex
	actions  []*usecase.ActionEvent
	commands []*usecase.CommandEvent
	checked  []*usecase.FormEvent
	forms    []*usecase.FormEvent
}

func (m *mockDispatcher) HandleAction(_ context.Context, ev *usecase.ActionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, ev)
	return nil
}

func (m *mockDispatcher) HandleCommand(_ context.Context, ev *usecase.CommandEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, ev)
	return nil
}

func (m *mockDispatcher) CheckForm(ev *usecase.FormEvent) map[string]string {
	m.mu.Lock()
	m.checked = append(m.checked, ev)
	m.mu.Unlock()

	if m.checkFormFn != nil {
		return m.checkFormFn(ev)
	}
	return nil
}

func (m *mockDispatcher) HandleForm(_ context.Context, ev *usecase.FormEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms = append(m.forms, ev)
	return nil
}

// waitAsync blocks until background handlers finished
func waitAsync(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gt.NoError(t, async.Wait(ctx)).Required()
}
