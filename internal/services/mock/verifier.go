package mock

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/art97081-arch/receip-bot/internal/api"
)

// Verifier returns canned verdicts for standalone mode, selected by the
// configured scenario. No network access.
type Verifier struct {
	scenario string
	log      zerolog.Logger
}

// NewVerifier creates a mock verifier. Unknown scenarios fall back to a
// clean genuine verdict.
func NewVerifier(scenario string, log zerolog.Logger) *Verifier {
	if scenario == "" {
		scenario = "genuine"
	}
	return &Verifier{
		scenario: scenario,
		log:      log.With().Str("provider", "mock").Logger(),
	}
}

func (m *Verifier) Verify(ctx context.Context, payload []byte, filename string) (*api.Verdict, error) {
	m.log.Info().Str("scenario", m.scenario).Str("filename", filename).Int("size", len(payload)).Msg("mock verification")

	// Simulate processing delay
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	switch m.scenario {
	case "fake":
		return &api.Verdict{
			Outcome:  api.OutcomeFake,
			Forged:   true,
			Modified: true,
			StructOK: false,
			Messages: []string{"Подпись документа не совпадает с эталоном банка"},
		}, nil
	case "mod":
		return &api.Verdict{
			Outcome:  api.OutcomeSuspicious,
			Modified: true,
			StructOK: true,
		}, nil
	case "unrec":
		return &api.Verdict{
			Outcome:      api.OutcomeUnrecognized,
			Unrecognized: true,
			StructOK:     true,
		}, nil
	case "error":
		return api.ErrorVerdict("Тестовая ошибка сервиса проверки"), nil
	default:
		return &api.Verdict{
			Outcome:  api.OutcomeGenuine,
			Bank:     "mockbank",
			Profile:  "1",
			StructOK: true,
			Payment: &api.Payment{
				SenderName:    "Иванов Иван Иванович",
				SenderAccount: "1234",
				RecipientName: "Петров Петр Петрович",
				Amount:        "1500.00",
				Status:        "Выполнен успешно",
				PaidAt:        "1700000000",
				DocID:         "MOCK-0001",
			},
		}, nil
	}
}
