package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/retainer/pkg/controller/http"
	"github.com/secmon-lab/retainer/pkg/usecase"
)

func TestServer_Health(t *testing.T) {
	srv := httpctrl.New()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Body.String()).Equal(`{"ok":true}`)
}

func TestServer_SlackRoutes(t *testing.T) {
	t.Run("routes are absent without slack", func(t *testing.T) {
		srv := httpctrl.New()

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("signed command is dispatched", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		srv := httpctrl.New(httpctrl.WithSlack(dispatcher, testSigningSecret))

		body := url.Values{
			"command":    {usecase.CommandPanel},
			"text":       {"A1B2C3"},
			"user_id":    {"U1"},
			"channel_id": {"C100"},
		}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		signRequest(req, body)
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)
		waitAsync(t)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, dispatcher.commands).Length(1)
		gt.Value(t, dispatcher.commands[0].Text).Equal("A1B2C3")
	})

	t.Run("unsigned request is rejected", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		srv := httpctrl.New(httpctrl.WithSlack(dispatcher, testSigningSecret))

		body := url.Values{"command": {usecase.CommandStart}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		srv.ServeHTTP(rec, req)
		waitAsync(t)

		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Array(t, dispatcher.commands).Length(0)
	})
}
