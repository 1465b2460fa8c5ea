package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"terrain-bot/internal/domain/entity"
)

// tierIcon иконка уровня проходимости
func tierIcon(tier entity.ViabilityTier) string {
	switch tier {
	case entity.TierViable:
		return "✅"
	case entity.TierDanger:
		return "⛔"
	default:
		return "⚠️"
	}
}

// formatResult собирает карточку результата анализа
func formatResult(r *entity.AnalysisResult) string {
	v := r.Viability

	status := v.Status.String()
	if status == "" {
		status = "НЕИЗВЕСТНО"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", tierIcon(v.Status.Tier()), status)
	if v.Message != "" {
		b.WriteString(v.Message)
		b.WriteString("\n")
	}

	b.WriteString("\n📊 Состав поверхности:\n")
	fmt.Fprintf(&b, "• Твёрдый грунт: %s%%\n", formatPercent(v.Composition.Suelo))
	fmt.Fprintf(&b, "• Песок: %s%%\n", formatPercent(v.Composition.Arena))
	fmt.Fprintf(&b, "• Препятствия: %s%%", formatPercent(v.Composition.Rocas))

	return b.String()
}

// formatFailure сообщение об ошибке анализа
func formatFailure(message string) string {
	return "⚠️ " + message + "\n" + msgFailedRetryHint
}

// formatStatus описывает состояние сессии
func formatStatus(snap entity.Snapshot) string {
	switch snap.State {
	case entity.StateEmpty:
		return "📭 Снимок не выбран."
	case entity.StateLoaded:
		if snap.PreviewURI == "" {
			return fmt.Sprintf("📷 Снимок «%s» загружен, превью готовится.", snap.Image.Name)
		}
		return fmt.Sprintf("📷 Снимок «%s» загружен, анализ не запускался.", snap.Image.Name)
	case entity.StateAnalyzing:
		return fmt.Sprintf("⏳ Снимок «%s» анализируется.", snap.Image.Name)
	case entity.StateSucceeded:
		return fmt.Sprintf("📷 Снимок «%s»\n\n%s", snap.Image.Name, formatResult(snap.Result))
	case entity.StateFailed:
		return fmt.Sprintf("📷 Снимок «%s»\n\n%s", snap.Image.Name, formatFailure(snap.Error))
	default:
		return string(snap.State)
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
