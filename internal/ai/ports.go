package ai

import "context"

// Credentials address the provider-side assistant a run executes against.
// They are read from the settings store on every call, so values changed in
// the settings screen take effect without a restart.
type Credentials struct {
	APIBase     string
	APIKey      string
	AssistantID string
}

// Image is a profile screenshot as stored on the request: base64 payload plus
// the original filename (the provider wants a filename on upload).
type Image struct {
	Name string
	Data string // base64
}

// Assistant — the external intelligence; knows nothing about requests or the DB.
type Assistant interface {
	Run(ctx context.Context, creds Credentials, profileURL string, images []Image) (string, error)
}
