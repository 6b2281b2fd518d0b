package slack

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Gateway implements interfaces.MessagingGateway on the Slack Web API
type Gateway struct {
	api        *slack.Client
	httpClient *http.Client
	apiURL     string
}

var _ interfaces.MessagingGateway = (*Gateway)(nil)

// Option is a functional option for Gateway configuration
type Option func(*Gateway)

// WithAPIURL overrides the Slack API endpoint, e.g. for a local test server.
// The URL must end with a slash.
func WithAPIURL(url string) Option {
	return func(g *Gateway) {
		g.apiURL = url
	}
}

// WithHTTPClient sets the HTTP client used for API calls and file uploads
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

// New creates a new Slack gateway with the provided bot token
func New(token string, opts ...Option) (*Gateway, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	g := &Gateway{
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}

	apiOpts := []slack.Option{slack.OptionHTTPClient(g.httpClient)}
	if g.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(g.apiURL))
	}
	g.api = slack.New(token, apiOpts...)

	return g, nil
}

// PostMessage posts a message, with the panel as Block Kit blocks when given
func (g *Gateway) PostMessage(ctx context.Context, channelID, threadTS, text string, panel *model.Panel) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if panel != nil {
		opts = append(opts, slack.MsgOptionBlocks(PanelBlocks(panel)...))
	}

	_, ts, err := g.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post Slack message",
			goerr.V("channel_id", channelID),
			goerr.V("thread_ts", threadTS))
	}
	return ts, nil
}

// UpdateMessage replaces text and blocks of an existing message
func (g *Gateway) UpdateMessage(ctx context.Context, channelID, ts, text string, panel *model.Panel) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if panel != nil {
		opts = append(opts, slack.MsgOptionBlocks(PanelBlocks(panel)...))
	}

	if _, _, _, err := g.api.UpdateMessageContext(ctx, channelID, ts, opts...); err != nil {
		return goerr.Wrap(err, "failed to update Slack message",
			goerr.V("channel_id", channelID),
			goerr.V("ts", ts))
	}
	return nil
}

// PostEphemeral posts a message only userID can see
func (g *Gateway) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	if _, err := g.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		return goerr.Wrap(err, "failed to post ephemeral message",
			goerr.V("channel_id", channelID),
			goerr.V("user_id", userID))
	}
	return nil
}

// PostEphemeralPanel posts text and the panel blocks only userID can see,
// inside the thread of threadTS
func (g *Gateway) PostEphemeralPanel(ctx context.Context, channelID, threadTS, userID, text string, panel *model.Panel) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if panel != nil {
		opts = append(opts, slack.MsgOptionBlocks(PanelBlocks(panel)...))
	}

	if _, err := g.api.PostEphemeralContext(ctx, channelID, userID, opts...); err != nil {
		return goerr.Wrap(err, "failed to post ephemeral panel",
			goerr.V("channel_id", channelID),
			goerr.V("thread_ts", threadTS),
			goerr.V("user_id", userID))
	}
	return nil
}

// OpenForm opens form as a modal view
func (g *Gateway) OpenForm(ctx context.Context, triggerID string, form *model.Form) error {
	if _, err := g.api.OpenViewContext(ctx, triggerID, FormView(form)); err != nil {
		return goerr.Wrap(err, "failed to open modal",
			goerr.V("trigger_id", triggerID),
			goerr.V("form", form.Kind))
	}
	return nil
}
