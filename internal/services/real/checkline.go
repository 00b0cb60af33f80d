package real

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/art97081-arch/receip-bot/internal/api"
)

// Checkline is the submit-then-poll verification provider. A multipart
// submission returns a correlation id; the client then queries status with a
// fixed delay between attempts until the check completes or the attempt
// budget runs out. Each status query is independent and idempotent.
type Checkline struct {
	baseURL    string
	apiKey     string
	attempts   int
	delay      time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// NewCheckline creates a client for the given endpoint and API key.
// attempts and delay bound the poll loop; zero values fall back to
// 10 attempts at 3 second intervals.
func NewCheckline(baseURL, apiKey string, attempts int, delay time.Duration, log zerolog.Logger) *Checkline {
	if attempts <= 0 {
		attempts = 10
	}
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Checkline{
		baseURL:  trimSlash(baseURL),
		apiKey:   apiKey,
		attempts: attempts,
		delay:    delay,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("provider", "checkline").Logger(),
	}
}

// Verify submits the receipt and polls for its verdict.
func (c *Checkline) Verify(ctx context.Context, payload []byte, filename string) (*api.Verdict, error) {
	handle, errVerdict, err := c.submit(ctx, payload, filename)
	if err != nil {
		return nil, err
	}
	if errVerdict != nil {
		return errVerdict, nil
	}
	return c.poll(ctx, handle)
}

// submit uploads the receipt and returns the correlation handle. Provider
// and transport failures come back as an error verdict in the second return.
func (c *Checkline) submit(ctx context.Context, payload []byte, filename string) (string, *api.Verdict, error) {
	body, contentType, err := pdfForm(payload, filename)
	if err != nil {
		return "", nil, fmt.Errorf("build upload form: %w", err)
	}

	endpoint := c.baseURL + "/api/check?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", nil, err
		}
		if isTimeout(err) {
			return "", api.ErrorVerdict("Превышено время ожидания ответа от сервера"), nil
		}
		c.log.Error().Err(err).Msg("submit failed")
		return "", api.ErrorVerdict("Сервис проверки недоступен, попробуйте позже"), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", api.ErrorVerdict("Не удалось прочитать ответ сервиса проверки"), nil
	}

	var sr api.ChecklineSubmitResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		c.log.Error().Int("status", resp.StatusCode).Msg("non-JSON submit response")
		return "", api.ErrorVerdict("API вернул не-JSON ответ. Возможно неверный API ключ или проблема с сервером"), nil
	}
	if sr.Error != "" {
		return "", api.ErrorVerdict(sr.Error), nil
	}
	if sr.ID == "" {
		return "", api.ErrorVerdict("Сервис не вернул идентификатор проверки"), nil
	}

	c.log.Debug().Str("check_id", sr.ID).Msg("receipt submitted")
	return sr.ID, nil, nil
}

// poll queries status until a terminal state. No delay before the first
// attempt. A transport fault is swallowed and retried unless it happens on
// the final attempt.
func (c *Checkline) poll(ctx context.Context, handle string) (*api.Verdict, error) {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delay):
			}
		}

		st, err := c.fetchStatus(ctx, handle)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			if attempt == c.attempts {
				c.log.Error().Err(err).Int("attempt", attempt).Msg("final poll attempt failed")
				return api.ErrorVerdict("Ошибка сети при опросе статуса проверки"), nil
			}
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("poll attempt failed, retrying")
			continue
		}

		switch st.Status {
		case api.ChecklineStatusError:
			if st.Error != "" {
				return api.ErrorVerdict(st.Error), nil
			}
			return api.ErrorVerdict("Проверка завершилась ошибкой на стороне сервиса"), nil
		case api.ChecklineStatusCompleted:
			c.log.Debug().Int("attempt", attempt).Str("color", st.Color).Msg("check completed")
			return mapCheckline(st), nil
		}
	}

	return api.ErrorVerdict("Превышено время ожидания результата проверки"), nil
}

func (c *Checkline) fetchStatus(ctx context.Context, handle string) (*api.ChecklineStatusResponse, error) {
	endpoint := c.baseURL + "/api/status?key=" + url.QueryEscape(c.apiKey) + "&id=" + url.QueryEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var st api.ChecklineStatusResponse
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("non-JSON status response: %w", err)
	}
	return &st, nil
}

func mapCheckline(st *api.ChecklineStatusResponse) *api.Verdict {
	v := &api.Verdict{
		Bank:         st.Verifier,
		Modified:     !bool(st.IsOriginal),
		StructOK:     st.StructPassed == nil || bool(*st.StructPassed),
		StructDetail: st.StructResult,
		DeviceError:  bool(st.DeviceError),
	}

	switch st.Color {
	case "white":
		v.Outcome = api.OutcomeGenuine
	case "yellow":
		v.Outcome = api.OutcomeSuspicious
	case "red", "black":
		v.Outcome = api.OutcomeFake
		v.Forged = true
	case "not_supported":
		v.Outcome = api.OutcomeUnsupported
	default:
		v.Outcome = api.OutcomeGenuine
	}

	if st.Recommendation != "" {
		v.Messages = append(v.Messages, st.Recommendation)
	}
	if n, err := strconv.Atoi(string(st.LastChecks)); err == nil {
		v.PriorChecks = n
	}

	if cd := st.CheckData; cd != nil {
		v.Payment = &api.Payment{
			SenderName:       string(cd.SenderFio),
			SenderAccount:    string(cd.SenderReq),
			SenderBank:       string(cd.SenderBank),
			RecipientName:    string(cd.RecipientFio),
			RecipientAccount: string(cd.RecipientReq),
			RecipientBank:    string(cd.RecipientBank),
			Amount:           string(cd.Sum),
			Status:           string(cd.Status),
			PaidAt:           string(cd.Date),
		}
	}

	return v
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
