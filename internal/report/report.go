// Package report renders verification verdicts into user-facing text.
// Render is pure: no I/O, and identical verdicts produce identical output.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/art97081-arch/receip-bot/internal/api"
)

const (
	recAccept = "\n✅ РЕКОМЕНДАЦИЯ: Чек можно принять\n   └─ Все проверки подлинности пройдены"
	recReject = "\n🚫 РЕКОМЕНДАЦИЯ: НЕ ПРИНИМАЙТЕ ЭТОТ ЧЕК!\n   └─ Обнаружены признаки подделки"
	recReview = "\n⚠️ РЕКОМЕНДАЦИЯ: Требуется дополнительная проверка\n   └─ Обнаружены подозрительные признаки"
)

var profileNames = map[string]string{
	"1":     "Основной профиль",
	"2":     "Альтернативный формат",
	"sbp":   "СБП перевод",
	"vypis": "Выписка",
	"obr":   "В обработке",
}

// Render maps a verdict to a self-contained report, dispatching on the
// outcome category. Every branch tolerates absent optional fields.
func Render(v *api.Verdict) string {
	switch v.Outcome {
	case api.OutcomeError:
		diag := v.Diagnostic
		if diag == "" {
			diag = "Неизвестная ошибка"
		}
		return "❌ Ошибка при проверке: " + diag
	case api.OutcomeSizeMismatch:
		return "❌ Размер PDF файла не соответствует оригинальному"
	case api.OutcomeUnsupported:
		return "❓ БАНК НЕ ПОДДЕРЖИВАЕТСЯ\n\nℹ️ Сервис проверки не работает с чеками этого банка"
	case api.OutcomeUnrecognized:
		return renderUnrecognized(v)
	case api.OutcomeFake:
		return renderFake(v)
	case api.OutcomeSuspicious:
		return renderSuspicious(v)
	default:
		return renderGenuine(v)
	}
}

func renderUnrecognized(v *api.Verdict) string {
	lines := []string{"❓ ЧЕК НЕ РАСПОЗНАН"}
	lines = append(lines, "\n🔍 Причины:")

	if v.Unrecognized {
		lines = append(lines, "❌ Система не смогла распознать чек")
	}
	if !v.StructOK {
		lines = append(lines, "❌ Некорректная структура PDF")
	}

	lines = appendMessages(lines, v.Messages)

	lines = append(lines,
		"\n⚠️ Возможные причины:",
		"• Неподдерживаемый формат чека",
		"• Чек от неизвестного банка",
		"• Повреждение файла")

	return strings.Join(lines, "\n")
}

func renderFake(v *api.Verdict) string {
	lines := []string{"🚫 ЧЕК ПОДДЕЛЬНЫЙ!"}
	lines = append(lines, "\n🔴 Обнаружены следующие нарушения:\n")

	if v.Forged {
		lines = append(lines,
			"❌ Чек не прошел проверку подлинности",
			"   └─ Подпись и метаданные не соответствуют оригиналу банка")
	}
	if !v.StructOK {
		lines = append(lines,
			"❌ Нарушена структура PDF файла",
			"   └─ Файл не соответствует оригинальному формату банка")
		if v.StructDetail != "" {
			lines = append(lines, structBreakdown(v.StructDetail)...)
		} else {
			lines = append(lines,
				"   📊 Параметры нарушения:",
				"      • Некорректные метаданные документа",
				"      • Отсутствие цифровой подписи банка",
				"      • Изменена структура объектов PDF",
				"      • Несоответствие шрифтов и кодировки")
		}
	}
	if v.Modified {
		lines = append(lines,
			"❌ Обнаружены следы модификации документа",
			"   └─ Файл был пересохранен или отредактирован",
			"   🔍 Признаки изменений:",
			"      • Использован виртуальный принтер",
			"      • PDF редактор оставил следы",
			"      • История изменений не соответствует оригиналу")
	}

	if len(v.Messages) > 0 {
		lines = append(lines, "\n💬 Сообщение от сервера:")
		for _, m := range v.Messages {
			lines = append(lines, "   "+m)
		}
	}

	if v.Meta != nil {
		lines = append(lines, "\n🔬 Технические детали:")
		if v.Meta.Version != "" {
			lines = append(lines, "   • Версия PDF: "+v.Meta.Version)
		}
		if v.Meta.Creator != "" {
			lines = append(lines, "   • Создатель: "+v.Meta.Creator)
		}
		if v.Meta.Producer != "" {
			lines = append(lines, "   • Обработчик: "+v.Meta.Producer)
		}
	}

	lines = append(lines,
		"\n⚠️ РЕКОМЕНДАЦИЯ: НЕ ПРИНИМАЙТЕ ЭТОТ ЧЕК!",
		"┗━ Чек был изменен или создан искусственно",
		"┗━ Высокий риск мошенничества")

	return strings.Join(lines, "\n")
}

func renderSuspicious(v *api.Verdict) string {
	lines := []string{"⚠️ ЧЕК МОДИФИЦИРОВАН"}
	lines = append(lines, "\n🔍 Обнаружено:")

	if v.Modified {
		lines = append(lines,
			"❌ Чек был пересохранен",
			"   └─ Использован виртуальный принтер или редактор PDF",
			"   📝 Детали модификации:",
			"      • Файл создан не банковским приложением",
			"      • PDF структура была пересоздана",
			"      • Отсутствуют оригинальные метаданные")
	}
	if !v.StructOK {
		lines = append(lines,
			"❌ Структура PDF изменена",
			"   └─ Нарушены стандарты банковского формата")
		if v.StructDetail != "" {
			lines = append(lines, structBreakdown(v.StructDetail)...)
		}
	}

	lines = append(lines,
		"\n⚠️ Это означает:",
		"• Файл не является оригиналом из банка",
		"• Проверка подлинности невозможна",
		"• Чек мог быть отредактирован",
		"• Документ создан через стороннее ПО")

	lines = appendMessages(lines, v.Messages)

	lines = append(lines, "\n⚠️ РЕКОМЕНДАЦИЯ: Требуется оригинальный чек из банковского приложения")

	return strings.Join(lines, "\n")
}

func renderGenuine(v *api.Verdict) string {
	var lines []string

	if v.Clean() {
		lines = append(lines, "✅ ЧЕК ПОДЛИННЫЙ", "\n🎯 Все проверки пройдены успешно")
	} else {
		lines = append(lines, "⚠️ ЧЕК ТРЕБУЕТ ВНИМАНИЯ")
	}

	lines = appendMessages(lines, v.Messages)

	lines = append(lines, "\n📋 Результат проверки:")
	if v.Bank != "" {
		lines = append(lines, "🏦 Банк: "+strings.ToUpper(v.Bank))
	}
	if v.Profile != "" {
		name := v.Profile
		if n, ok := profileNames[v.Profile]; ok {
			name = n
		}
		lines = append(lines, "📄 Профиль: "+name)
	}

	lines = append(lines, "\n🔍 Детальная проверка:")
	lines = append(lines, "   "+checkLine(!v.Forged, "Подлинность", "Подтверждена", "НЕ подтверждена"))
	lines = append(lines, "   "+checkLine(!v.Modified, "Оригинальность", "Оригинал банка", "Файл изменен"))
	if v.StructDetail != "" {
		lines = append(lines, "   "+checkLine(v.StructOK, "Структура PDF", "Корректна ("+v.StructDetail+")", "Нарушена ("+v.StructDetail+")"))
	} else {
		lines = append(lines, "   "+checkLine(v.StructOK, "Структура PDF", "Корректна", "Нарушена"))
	}
	lines = append(lines, "   "+checkLine(!v.Unrecognized, "Распознавание", "Успешно", "Не распознан"))

	if !v.Clean() {
		lines = append(lines, "\n⚠️ ОБНАРУЖЕНЫ ПРОБЛЕМЫ:")
		if v.Forged {
			lines = append(lines,
				"   🚫 Чек признан поддельным",
				"      └─ Не соответствует подписи банка")
		}
		if v.Modified {
			lines = append(lines,
				"   📝 Чек был пересохранен",
				"      └─ Использован сторонний редактор")
		}
		if !v.StructOK {
			lines = append(lines,
				"   📊 Ошибки в структуре PDF",
				"      └─ Не соответствует формату банка")
		}
		if v.Unrecognized {
			lines = append(lines, "   ❓ Чек не полностью распознан")
		}
		if v.DeviceError {
			lines = append(lines,
				"   ⚠️ Ошибка устройства",
				"      └─ Файл сохранен некорректно")
		}
	}

	if v.PriorChecks > 0 {
		lines = append(lines, fmt.Sprintf("\n🔄 История проверок: %d раз(а)", v.PriorChecks))
		if v.PriorChecks > 3 {
			lines = append(lines,
				"   ⚠️ ВНИМАНИЕ: Чек проверялся многократно!",
				"   └─ Возможна попытка повторного использования")
		} else {
			lines = append(lines, "   ℹ️ Чек уже проверялся ранее")
		}
	}

	if v.Payment != nil {
		lines = append(lines, renderPayment(v.Payment)...)
	}

	switch {
	case v.Clean():
		lines = append(lines, recAccept)
	case v.Forged:
		lines = append(lines, recReject)
	default:
		lines = append(lines, recReview)
	}

	return strings.Join(lines, "\n")
}

func renderPayment(p *api.Payment) []string {
	lines := []string{"\n💳 Данные транзакции:"}

	if p.SenderName != "" || p.SenderAccount != "" || p.SenderBank != "" {
		lines = append(lines, "  📤 Отправитель:")
		if p.SenderName != "" {
			lines = append(lines, "     • ФИО: "+p.SenderName)
		}
		if p.SenderAccount != "" {
			lines = append(lines, "     • Счет: ****"+p.SenderAccount)
		}
		if p.SenderBank != "" {
			lines = append(lines, "     • Банк: "+p.SenderBank)
		}
	}

	if p.RecipientName != "" || p.RecipientAccount != "" || p.RecipientPhone != "" || p.RecipientBank != "" {
		lines = append(lines, "  📥 Получатель:")
		if p.RecipientName != "" {
			lines = append(lines, "     • ФИО: "+p.RecipientName)
		}
		if p.RecipientAccount != "" {
			lines = append(lines, "     • Счет: ****"+p.RecipientAccount)
		}
		if p.RecipientPhone != "" {
			lines = append(lines, "     • Телефон: "+p.RecipientPhone)
		}
		if p.RecipientBank != "" {
			lines = append(lines, "     • Банк: "+p.RecipientBank)
		}
	}

	if p.Amount != "" {
		lines = append(lines, "  💰 Сумма: "+p.Amount+" ₽")
	}
	if p.Status != "" {
		glyph := "ℹ️"
		if strings.Contains(strings.ToLower(p.Status), "успешн") {
			glyph = "✅"
		}
		lines = append(lines, "  "+glyph+" Статус: "+p.Status)
	}
	if p.PaidAt != "" {
		lines = append(lines, "  🕐 Время: "+formatEpoch(p.PaidAt))
	}
	if p.DocID != "" {
		lines = append(lines, "  🆔 ID документа: "+p.DocID)
	}

	return lines
}

// structBreakdown explains a "passed/total" structure result like "7/9".
func structBreakdown(detail string) []string {
	parts := strings.SplitN(detail, "/", 2)
	if len(parts) != 2 {
		return nil
	}
	passed, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	total, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || total < passed {
		return nil
	}
	return []string{
		fmt.Sprintf("   ℹ️ Не пройдено %d из %d проверок структуры:", total-passed, total),
		"   • Метаданные PDF (автор, дата создания)",
		"   • Цифровые подписи и сертификаты",
		"   • Формат и кодировка документа",
		"   • Встроенные шрифты и изображения",
		"   • История изменений файла",
		"   • Структура объектов PDF",
	}
}

func appendMessages(lines []string, messages []string) []string {
	for i, m := range messages {
		if m == "" {
			continue
		}
		if i == 0 {
			lines = append(lines, "\n💬 "+m)
		} else {
			lines = append(lines, "ℹ️ "+m)
		}
	}
	return lines
}

func checkLine(ok bool, label, pass, fail string) string {
	if ok {
		return "✅ " + label + ": " + pass
	}
	return "❌ " + label + ": " + fail
}

// formatEpoch renders epoch seconds as a local calendar timestamp, falling
// back to the raw value when it does not parse.
func formatEpoch(raw string) string {
	sec, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return raw
	}
	return time.Unix(sec, 0).Format("02.01.2006 15:04:05")
}
