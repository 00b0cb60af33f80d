package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/art97081-arch/receip-bot/internal/report"
)

const maxFileSize = 10 << 20 // 10 MiB

const helpText = "👋 Бот для проверки банковских чеков\n\n" +
	"📎 Отправьте PDF файл чека для проверки\n\n" +
	"Команды владельца:\n" +
	"/allow <user_id> - добавить пользователя\n" +
	"/revoke <user_id> - удалить пользователя\n" +
	"/list_allowed - список разрешенных пользователей\n"

// dispatchCommand returns the reply text for a command message, or "" when
// the command is unknown and should be ignored.
func (b *Bot) dispatchCommand(msg *tgbotapi.Message) string {
	switch msg.Command() {
	case "start", "help":
		return helpText
	case "allow":
		return b.allowCommand(msg.From.ID, msg.CommandArguments())
	case "revoke":
		return b.revokeCommand(msg.From.ID, msg.CommandArguments())
	case "list_allowed":
		return b.listCommand(msg.From.ID)
	default:
		return ""
	}
}

func (b *Bot) allowCommand(callerID int64, args string) string {
	if callerID != b.ownerID {
		return "❌ Только владелец может добавлять пользователей"
	}
	uid, errText := parseUserID(args, "Использование: /allow <user_id>\n\nЧтобы узнать user_id, пользователь может написать боту @userinfobot")
	if errText != "" {
		return errText
	}
	if uid == b.ownerID {
		return "ℹ️ Владелец всегда имеет доступ"
	}

	added, err := b.allowed.Add(uid)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", uid).Msg("allowlist add failed")
		return "❌ Не удалось сохранить список пользователей"
	}
	if !added {
		return fmt.Sprintf("ℹ️ Пользователь %d уже имеет доступ", uid)
	}
	return fmt.Sprintf("✅ Пользователь %d добавлен в список разрешенных", uid)
}

func (b *Bot) revokeCommand(callerID int64, args string) string {
	if callerID != b.ownerID {
		return "❌ Только владелец может удалять пользователей"
	}
	uid, errText := parseUserID(args, "Использование: /revoke <user_id>")
	if errText != "" {
		return errText
	}

	removed, err := b.allowed.Remove(uid)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", uid).Msg("allowlist remove failed")
		return "❌ Не удалось сохранить список пользователей"
	}
	if !removed {
		return fmt.Sprintf("ℹ️ Пользователь %d не в списке разрешенных", uid)
	}
	return fmt.Sprintf("✅ Пользователь %d удален из списка разрешенных", uid)
}

func (b *Bot) listCommand(callerID int64) string {
	if callerID != b.ownerID {
		return "❌ Только владелец может просматривать список"
	}
	ids := b.allowed.List()
	if len(ids) == 0 {
		return "ℹ️ Список разрешенных пользователей пуст"
	}

	var sb strings.Builder
	sb.WriteString("📋 Разрешенные пользователи:\n")
	for _, id := range ids {
		sb.WriteString(fmt.Sprintf("\n• %d", id))
	}
	return sb.String()
}

func parseUserID(args, usage string) (int64, string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, usage
	}
	uid, err := strconv.ParseInt(strings.Fields(args)[0], 10, 64)
	if err != nil {
		return 0, "❌ user_id должен быть числом"
	}
	return uid, ""
}

// checkDocument validates the upload before any network call. Returns the
// rejection text, or "" when the document may proceed to verification.
func (b *Bot) checkDocument(userID int64, doc *tgbotapi.Document) string {
	if !b.authorized(userID) {
		return "❌ У вас нет доступа к проверке чеков.\nПопросите владельца бота добавить вас командой /allow"
	}
	if doc.MimeType != "application/pdf" {
		return "❌ Пожалуйста, отправьте PDF файл чека"
	}
	if doc.FileSize > maxFileSize {
		return "❌ Файл слишком большой (макс. 10 МБ)"
	}
	return ""
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	if reject := b.checkDocument(msg.From.ID, msg.Document); reject != "" {
		b.reply(msg, reject)
		return
	}

	placeholder, err := b.tg.Send(tgbotapi.NewMessage(msg.Chat.ID, "⏳ Загружаю и проверяю чек, подождите..."))
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("send placeholder")
		return
	}

	payload, err := b.downloadDocument(ctx, msg.Document)
	if err != nil {
		b.log.Error().Err(err).Str("file_id", msg.Document.FileID).Msg("download document")
		b.edit(msg.Chat.ID, placeholder.MessageID, "❌ Не удалось загрузить файл, попробуйте еще раз")
		return
	}

	filename := msg.Document.FileName
	if filename == "" {
		filename = "check.pdf"
	}

	b.log.Info().Int64("user_id", msg.From.ID).Str("filename", filename).Int("size", len(payload)).Msg("verifying receipt")

	verdict, err := b.verifier.Verify(ctx, payload, filename)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("verification failed")
		b.edit(msg.Chat.ID, placeholder.MessageID, "❌ Ошибка при обработке, попробуйте позже")
		return
	}

	b.edit(msg.Chat.ID, placeholder.MessageID, report.Render(verdict))
}

func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) ([]byte, error) {
	fileURL, err := b.tg.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.files.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file: status %d", resp.StatusCode)
	}

	// guard against the declared size being wrong
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(payload) > maxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxFileSize)
	}
	return payload, nil
}
