package slack

import (
	"bytes"
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// UploadFile shares data as a file in the thread of threadTS with caption as
// the initial comment.
func (g *Gateway) UploadFile(ctx context.Context, channelID, threadTS string, data []byte, filename, title, caption string) error {
	_, err := g.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:          bytes.NewReader(data),
		FileSize:        len(data),
		Filename:        filename,
		Title:           title,
		InitialComment:  caption,
		Channel:         channelID,
		ThreadTimestamp: threadTS,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upload file",
			goerr.V("filename", filename),
			goerr.V("channel_id", channelID))
	}
	return nil
}
