package outreach

import (
	"context"
	"errors"
	"time"

	"github.com/waqasmustafa/social-media-outreach/internal/ai"
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogFailed  LogStatus = "failed"
)

const (
	DefaultRequestName = "Social Profile"
	MaxImages          = 3
)

// ProfileRequest is one unit of work: a profile URL and/or up to three
// screenshots. The last* fields are a snapshot of the most recent send
// attempt only; history lives in the log rows.
type ProfileRequest struct {
	ID                 int64
	Name               string
	ProfileURL         string
	Images             []ai.Image
	Status             Status
	LastProfileName    string
	LastResponseStatus string
	LastSentAt         *time.Time
	CreatedAt          time.Time
}

// ProfileLog is the immutable audit record of one send attempt. Created once,
// never updated, deleted only together with its parent request.
type ProfileLog struct {
	ID           int64
	RequestID    int64
	ProfileName  string
	Brand        string
	ProfileURL   string
	Status       LogStatus
	Message      string
	ResponseJSON string
	SentAt       time.Time
}

// Settings are the add-on's keys in the settings store. API key and assistant
// ID gate sending entirely; the rest is optional.
type Settings struct {
	APIKey      string
	AssistantID string
	Model       string
	APIBase     string
	WebhookURL  string
}

const (
	keyAPIKey      = "assistant_openai_api_key"
	keyAssistantID = "assistant_id"
	keyModel       = "assistant_model"
	keyAPIBase     = "assistant_api_base"
	keyWebhookURL  = "webhook_url"

	DefaultModel   = "gpt-5.1"
	DefaultAPIBase = "https://api.openai.com/v1"
)

var (
	ErrNotFound      = errors.New("profile request not found")
	ErrNoInput       = errors.New("provide either a profile URL or profile images")
	ErrTooManyImages = errors.New("a maximum of 3 images can be attached")
	ErrNotConfigured = errors.New("assistant is not configured: set API key and assistant ID in settings")
)

// RequestStore — persistence for profile requests.
type RequestStore interface {
	Create(ctx context.Context, req *ProfileRequest) error
	Get(ctx context.Context, id int64) (*ProfileRequest, error)
	List(ctx context.Context) ([]ProfileRequest, error)
	SetStatus(ctx context.Context, id int64, status Status) error
	SetResult(ctx context.Context, id int64, profileName, responseStatus string, sentAt time.Time, status Status) error
	// Delete removes the request and its child rows in one transaction.
	Delete(ctx context.Context, id int64) error
}

// LogStore — insert-only persistence for audit rows.
type LogStore interface {
	Create(ctx context.Context, row *ProfileLog) error
	ListByRequest(ctx context.Context, requestID int64) ([]ProfileLog, error)
	// FindSuccessByURL returns the most recent successful log for the URL,
	// or nil when there is none.
	FindSuccessByURL(ctx context.Context, url string) (*ProfileLog, error)
}

// SettingsStore — namespaced key/value settings.
type SettingsStore interface {
	Get(ctx context.Context, key, def string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Webhook relays the parsed payload to a user-configured endpoint. The result
// is a status-message fragment, never an error: the webhook is best-effort.
type Webhook interface {
	Notify(ctx context.Context, url string, fields map[string]any) string
}

// Service — orchestration.
type Service interface {
	CreateRequest(ctx context.Context, req *ProfileRequest) error
	GetRequest(ctx context.Context, id int64) (*ProfileRequest, error)
	ListRequests(ctx context.Context) ([]ProfileRequest, error)
	DeleteRequest(ctx context.Context, id int64) error
	RequestLogs(ctx context.Context, id int64) ([]ProfileLog, error)

	SendNow(ctx context.Context, ids []int64) error

	Settings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, cfg Settings) error
	TestConnection(ctx context.Context, cfg Settings) (ai.AssistantInfo, error)
}
