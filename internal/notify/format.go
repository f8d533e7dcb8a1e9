package notify

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/newsmaker-api/internal/events"
)

const (
	maxSummaryRunes = 200
	maxExcerptRunes = 500
)

// Formatter renders events as Telegram-flavoured HTML.
type Formatter struct {
	// WebAppURL, when set, is linked from completion messages.
	WebAppURL string
}

// Format renders an event. Unknown kinds are an error.
func (f Formatter) Format(e *events.Event) (string, error) {
	switch e.Kind {
	case events.KindTaskCompleted:
		p, err := e.Completed()
		if err != nil {
			return "", err
		}
		return f.completed(p), nil
	case events.KindTaskError:
		p, err := e.Failure()
		if err != nil {
			return "", err
		}
		msg := p.Error
		if msg == "" {
			msg = "Unknown"
		}
		return "❌ Ошибка генерации: " + html.EscapeString(msg), nil
	case events.KindPublish:
		p, err := e.Published()
		if err != nil {
			return "", err
		}
		platform := p.Platform
		if platform == "" {
			platform = "telegram"
		}
		return fmt.Sprintf("📤 <b>Публикация (%s)</b>\n\n%s\n\n---\n💡 <i>Добавьте бота админом в ваш канал для автопостинга!</i>",
			html.EscapeString(strings.ToUpper(platform)),
			html.EscapeString(p.Content)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
}

func (f Formatter) completed(p events.CompletedPayload) string {
	verdict := p.Verdict
	if verdict == "" {
		verdict = "N/A"
	}

	var sb strings.Builder
	sb.WriteString("🔔 <b>Готово!</b>\n\n")
	fmt.Fprintf(&sb, "📊 <b>Score:</b> %d/100\n", p.Score)
	fmt.Fprintf(&sb, "⚖️ <b>Вердикт:</b> %s\n\n", html.EscapeString(verdict))
	fmt.Fprintf(&sb, "📝 <b>Саммари:</b>\n%s\n\n", html.EscapeString(clip(p.Summary, maxSummaryRunes)))
	if p.Excerpt != "" {
		fmt.Fprintf(&sb, "📤 <b>Пост:</b>\n%s\n", html.EscapeString(clip(p.Excerpt, maxExcerptRunes)))
	}
	if f.WebAppURL != "" {
		fmt.Fprintf(&sb, "\n🔗 <a href=\"%s/\">Открыть полную версию</a>",
			html.EscapeString(strings.TrimRight(f.WebAppURL, "/")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// clip cuts s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
