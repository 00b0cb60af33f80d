package real

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/art97081-arch/receip-bot/internal/api"
)

const datagrabTimeout = 60 * time.Second

// Datagrab is the synchronous verification provider: one multipart upload
// returns the verdict in the response body. The client holds no state
// between calls.
type Datagrab struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewDatagrab creates a client for the given endpoint and API key.
func NewDatagrab(baseURL, apiKey string, log zerolog.Logger) *Datagrab {
	return &Datagrab{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: datagrabTimeout,
		},
		log: log.With().Str("provider", "datagrab").Logger(),
	}
}

// Verify uploads the receipt and maps the provider response to a verdict.
// Transport faults, timeouts and non-JSON bodies come back as error-class
// verdicts, never as raw errors or raw markup.
func (d *Datagrab) Verify(ctx context.Context, payload []byte, filename string) (*api.Verdict, error) {
	body, contentType, err := pdfForm(payload, filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	endpoint := d.baseURL + "/upload.php?key=" + url.QueryEscape(d.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if isTimeout(err) {
			d.log.Warn().Msg("upload timed out")
			return api.ErrorVerdict("Превышено время ожидания ответа от сервера"), nil
		}
		d.log.Error().Err(err).Msg("upload failed")
		return api.ErrorVerdict("Сервис проверки недоступен, попробуйте позже"), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		d.log.Error().Err(err).Msg("read upload response")
		return api.ErrorVerdict("Не удалось прочитать ответ сервиса проверки"), nil
	}

	var dr api.DatagrabResponse
	if err := json.Unmarshal(raw, &dr); err != nil {
		d.log.Error().Int("status", resp.StatusCode).Str("content_type", resp.Header.Get("Content-Type")).Msg("non-JSON upload response")
		return api.ErrorVerdict("API вернул не-JSON ответ. Возможно неверный API ключ или проблема с сервером"), nil
	}

	d.log.Debug().Str("result", dr.Result).Msg("verdict received")
	return mapDatagrab(&dr), nil
}

func mapDatagrab(dr *api.DatagrabResponse) *api.Verdict {
	switch dr.Result {
	case "forbidden":
		return api.ErrorVerdict("Неверный API ключ")
	case "unpaid":
		return api.ErrorVerdict("Истек оплаченный период API")
	case "error":
		if dr.Message != "" {
			return api.ErrorVerdict(dr.Message)
		}
		return api.ErrorVerdict("Неизвестная ошибка")
	}

	v := &api.Verdict{
		Profile:      dr.Profile,
		Forged:       bool(dr.IsFake),
		Modified:     bool(dr.IsMod),
		Unrecognized: bool(dr.IsUnrec),
		StructOK:     dr.ComplianceStatus == nil || bool(*dr.ComplianceStatus),
	}
	if dr.Message != "" {
		v.Messages = append(v.Messages, dr.Message)
	}
	if dr.Message2 != "" {
		v.Messages = append(v.Messages, dr.Message2)
	}
	if n, err := strconv.Atoi(string(dr.LastChecks)); err == nil {
		v.PriorChecks = n
	}

	switch dr.Result {
	case "unrec":
		v.Outcome = api.OutcomeUnrecognized
	case "fake":
		v.Outcome = api.OutcomeFake
	case "mod":
		v.Outcome = api.OutcomeSuspicious
	case "size":
		v.Outcome = api.OutcomeSizeMismatch
	default:
		// the default result carries the recognized bank code
		v.Outcome = api.OutcomeGenuine
		v.Bank = dr.Result
	}

	if cd := dr.CheckData; cd != nil {
		v.Payment = &api.Payment{
			SenderName:       string(cd.SenderName),
			SenderAccount:    string(cd.SenderAcc),
			RecipientName:    string(cd.RemitteName),
			RecipientAccount: string(cd.RemitteAcc),
			RecipientPhone:   string(cd.RemitteTel),
			Amount:           string(cd.Sum),
			Status:           string(cd.Status),
			PaidAt:           string(cd.PaymentTime),
			DocID:            string(cd.DocID),
		}
		if cd.PDFVersion != "" || cd.Creator != "" || cd.Producer != "" {
			v.Meta = &api.PDFMeta{
				Version:  string(cd.PDFVersion),
				Creator:  string(cd.Creator),
				Producer: string(cd.Producer),
			}
		}
	}

	return v
}

// pdfForm builds a multipart body with the receipt under the "file" field,
// typed application/pdf.
func pdfForm(payload []byte, filename string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "application/pdf")

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}
