package http_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/retainer/pkg/controller/http"
	"github.com/secmon-lab/retainer/pkg/usecase"
)

func TestSlackCommandHandler(t *testing.T) {
	t.Run("acknowledges and dispatches the command", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := httpctrl.NewSlackCommandHandler(dispatcher)

		form := url.Values{
			"command":    {usecase.CommandStart},
			"text":       {""},
			"user_id":    {"U1"},
			"channel_id": {"C100"},
			"trigger_id": {"trigger-1"},
		}
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		waitAsync(t)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Array(t, dispatcher.commands).Length(1)
		ev := dispatcher.commands[0]
		gt.Value(t, ev.Command).Equal(usecase.CommandStart)
		gt.Value(t, ev.ActorID).Equal("U1")
		gt.Value(t, ev.ChannelID).Equal("C100")
		gt.Value(t, ev.TriggerID).Equal("trigger-1")
	})
}
