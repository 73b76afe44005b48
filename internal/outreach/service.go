package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/waqasmustafa/social-media-outreach/internal/ai"
)

type service struct {
	requests  RequestStore
	logs      LogStore
	settings  SettingsStore
	assistant ai.Assistant
	webhook   Webhook
	log       zerolog.Logger
}

func NewService(requests RequestStore, logs LogStore, settings SettingsStore, assistant ai.Assistant, webhook Webhook, log zerolog.Logger) Service {
	return &service{
		requests:  requests,
		logs:      logs,
		settings:  settings,
		assistant: assistant,
		webhook:   webhook,
		log:       log,
	}
}

func validate(req *ProfileRequest) error {
	if req.ProfileURL == "" && len(req.Images) == 0 {
		return ErrNoInput
	}
	if len(req.Images) > MaxImages {
		return ErrTooManyImages
	}
	return nil
}

func (s *service) CreateRequest(ctx context.Context, req *ProfileRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	if req.Name == "" {
		req.Name = DefaultRequestName
	}
	req.Status = StatusDraft
	return s.requests.Create(ctx, req)
}

func (s *service) GetRequest(ctx context.Context, id int64) (*ProfileRequest, error) {
	return s.requests.Get(ctx, id)
}

func (s *service) ListRequests(ctx context.Context) ([]ProfileRequest, error) {
	return s.requests.List(ctx)
}

func (s *service) DeleteRequest(ctx context.Context, id int64) error {
	return s.requests.Delete(ctx, id)
}

func (s *service) RequestLogs(ctx context.Context, id int64) ([]ProfileLog, error) {
	if _, err := s.requests.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.logs.ListByRequest(ctx, id)
}

// SendNow processes each selected request to completion before the next one.
// The first fatal error aborts the remaining records; callers depend on that,
// so a mid-batch failure leaves later records untouched in draft.
func (s *service) SendNow(ctx context.Context, ids []int64) error {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" || cfg.AssistantID == "" {
		return ErrNotConfigured
	}
	creds := ai.Credentials{APIBase: cfg.APIBase, APIKey: cfg.APIKey, AssistantID: cfg.AssistantID}

	for _, id := range ids {
		if err := s.sendOne(ctx, id, creds, cfg.WebhookURL); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) sendOne(ctx context.Context, id int64, creds ai.Credentials, webhookURL string) error {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := validate(req); err != nil {
		return err
	}

	// A URL that already went through successfully is not sent again; the
	// record fails with a pointer to the original and the batch moves on.
	if req.ProfileURL != "" {
		prior, err := s.logs.FindSuccessByURL(ctx, req.ProfileURL)
		if err != nil {
			return err
		}
		if prior != nil {
			now := time.Now().UTC()
			msg := fmt.Sprintf("Duplicate URL: already sent successfully for request #%d", prior.RequestID)
			if err := s.requests.SetResult(ctx, id, "", msg, now, StatusFailed); err != nil {
				return err
			}
			if err := s.logs.Create(ctx, &ProfileLog{
				RequestID:  id,
				ProfileURL: req.ProfileURL,
				Status:     LogFailed,
				Message:    msg,
				SentAt:     now,
			}); err != nil {
				return err
			}
			s.log.Warn().Int64("request_id", id).Int64("original_id", prior.RequestID).Msg("duplicate URL, send skipped")
			return nil
		}
	}

	// Written before the blocking call so a concurrent viewer sees progress
	// while the run executes.
	if err := s.requests.SetStatus(ctx, id, StatusSending); err != nil {
		return err
	}
	s.log.Info().Int64("request_id", id).Str("url", req.ProfileURL).Int("images", len(req.Images)).Msg("sending profile to assistant")

	reply, err := s.assistant.Run(ctx, creds, req.ProfileURL, req.Images)
	if err != nil {
		now := time.Now().UTC()
		_ = s.requests.SetResult(ctx, id, "", err.Error(), now, StatusFailed)
		_ = s.logs.Create(ctx, &ProfileLog{
			RequestID:  id,
			ProfileURL: req.ProfileURL,
			Status:     LogFailed,
			Message:    err.Error(),
			SentAt:     now,
		})
		s.log.Error().Err(err).Int64("request_id", id).Msg("assistant call failed")
		return fmt.Errorf("failed to contact the assistant: %w", err)
	}

	parsed := parseReply(reply)
	statusMsg := parsed.StatusMsg
	switch {
	case parsed.Fields == nil:
		// Nothing parsed, nothing to relay.
	case webhookURL == "":
		s.log.Info().Int64("request_id", id).Msg("no webhook URL configured, skipping webhook")
	default:
		statusMsg += " | " + s.webhook.Notify(ctx, webhookURL, parsed.Fields)
	}

	logMsg := statusMsg
	if parsed.ParseErr != "" {
		logMsg += " | JSON parse error: " + parsed.ParseErr
		s.log.Warn().Int64("request_id", id).Str("error", parsed.ParseErr).Msg("assistant reply was not parseable JSON")
	}

	// The request's own URL wins over one the assistant asserted.
	finalURL := req.ProfileURL
	if finalURL == "" {
		finalURL = parsed.ProfileURL
	}

	now := time.Now().UTC()
	if err := s.requests.SetResult(ctx, id, parsed.ProfileName, statusMsg, now, StatusSuccess); err != nil {
		return err
	}
	if err := s.logs.Create(ctx, &ProfileLog{
		RequestID:    id,
		ProfileName:  parsed.ProfileName,
		Brand:        parsed.Brand,
		ProfileURL:   finalURL,
		Status:       LogSuccess,
		Message:      logMsg,
		ResponseJSON: reply,
		SentAt:       now,
	}); err != nil {
		return err
	}
	s.log.Info().Int64("request_id", id).Str("profile_name", parsed.ProfileName).Msg("profile sent")
	return nil
}

func (s *service) Settings(ctx context.Context) (Settings, error) {
	var (
		cfg Settings
		err error
	)
	if cfg.APIKey, err = s.settings.Get(ctx, keyAPIKey, ""); err != nil {
		return cfg, err
	}
	if cfg.AssistantID, err = s.settings.Get(ctx, keyAssistantID, ""); err != nil {
		return cfg, err
	}
	if cfg.Model, err = s.settings.Get(ctx, keyModel, DefaultModel); err != nil {
		return cfg, err
	}
	if cfg.APIBase, err = s.settings.Get(ctx, keyAPIBase, DefaultAPIBase); err != nil {
		return cfg, err
	}
	if cfg.WebhookURL, err = s.settings.Get(ctx, keyWebhookURL, ""); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *service) SaveSettings(ctx context.Context, cfg Settings) error {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	pairs := []struct{ key, value string }{
		{keyAPIKey, cfg.APIKey},
		{keyAssistantID, cfg.AssistantID},
		{keyModel, cfg.Model},
		{keyAPIBase, cfg.APIBase},
		{keyWebhookURL, cfg.WebhookURL},
	}
	for _, p := range pairs {
		if err := s.settings.Set(ctx, p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

// TestConnection reads the assistant's metadata with the entered values and
// persists them only when the read succeeds (test-then-commit).
func (s *service) TestConnection(ctx context.Context, cfg Settings) (ai.AssistantInfo, error) {
	if cfg.APIKey == "" || cfg.AssistantID == "" {
		return ai.AssistantInfo{}, ErrNotConfigured
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}

	vctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	info, err := ai.Verify(vctx, ai.Credentials{APIBase: apiBase, APIKey: cfg.APIKey, AssistantID: cfg.AssistantID})
	if err != nil {
		return ai.AssistantInfo{}, err
	}

	if err := s.SaveSettings(ctx, cfg); err != nil {
		return info, err
	}
	s.log.Info().Str("assistant", info.Name).Str("model", info.Model).Msg("assistant connection verified, settings saved")
	return info, nil
}
