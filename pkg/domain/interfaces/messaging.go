package interfaces

import (
	"context"

	"github.com/secmon-lab/retainer/pkg/domain/model"
)

// MessagingGateway is the chat platform seen by the case workflow
type MessagingGateway interface {
	// PostMessage posts text (and the panel when not nil) into the thread of
	// threadTS, or as a new message when threadTS is empty. Returns the
	// message timestamp.
	PostMessage(ctx context.Context, channelID, threadTS, text string, panel *model.Panel) (string, error)

	// UpdateMessage replaces the content of the message at ts
	UpdateMessage(ctx context.Context, channelID, ts, text string, panel *model.Panel) error

	// PostEphemeral shows text to userID only
	PostEphemeral(ctx context.Context, channelID, userID, text string) error

	// PostEphemeralPanel shows text and panel to userID only, in the thread
	// of threadTS
	PostEphemeralPanel(ctx context.Context, channelID, threadTS, userID, text string, panel *model.Panel) error

	// UploadFile attaches data as a file to the thread with a caption
	UploadFile(ctx context.Context, channelID, threadTS string, data []byte, filename, title, caption string) error

	// OpenForm opens a modal form for the interaction of triggerID
	OpenForm(ctx context.Context, triggerID string, form *model.Form) error
}
