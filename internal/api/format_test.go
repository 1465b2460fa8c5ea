package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"terrain-bot/internal/domain/entity"
)

func TestFormatResult_Tiers(t *testing.T) {
	tests := []struct {
		status entity.ViabilityStatus
		icon   string
	}{
		{status: entity.StatusViable, icon: "✅ VIABLE"},
		{status: entity.StatusDanger, icon: "⛔ PELIGRO"},
		{status: "PRECAUCIÓN", icon: "⚠️ PRECAUCIÓN"},
		{status: "", icon: "⚠️ НЕИЗВЕСТНО"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			text := formatResult(&entity.AnalysisResult{Viability: entity.Viability{Status: tt.status}})
			require.Contains(t, text, tt.icon)
		})
	}
}

func TestFormatResult_Composition(t *testing.T) {
	text := formatResult(&entity.AnalysisResult{
		Viability: entity.Viability{
			Status:      entity.StatusViable,
			Message:     "Terrain safe",
			Composition: entity.Composition{Suelo: 70, Arena: 20.5, Rocas: 10},
		},
	})

	require.Contains(t, text, "Terrain safe")
	require.Contains(t, text, "Твёрдый грунт: 70%")
	require.Contains(t, text, "Песок: 20.5%")
	require.Contains(t, text, "Препятствия: 10%")
}

func TestFormatStatus(t *testing.T) {
	session := entity.NewSession(1, 10)
	require.Contains(t, formatStatus(session.Snapshot()), "не выбран")

	gen := session.Load(entity.NewImageFile("mars.png", "image/png", []byte("x")))
	require.Contains(t, formatStatus(session.Snapshot()), "превью готовится")

	session.AttachPreview(gen, "data:image/jpeg;base64,AA==")
	require.Contains(t, formatStatus(session.Snapshot()), "анализ не запускался")

	agen, _, err := session.BeginAnalysis()
	require.NoError(t, err)
	require.Contains(t, formatStatus(session.Snapshot()), "анализируется")

	session.Fail(agen, "model unavailable")
	text := formatStatus(session.Snapshot())
	require.Contains(t, text, "⚠️ model unavailable")
	require.Contains(t, text, msgFailedRetryHint)
}
