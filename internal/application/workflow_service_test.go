package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/infrastructure/analysisclient"
	"terrain-bot/internal/infrastructure/storage"
)

// Сценарии против настоящего HTTP-клиента и поддельного сервиса анализа.
func TestWorkflow_AgainstAnalysisService(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus entity.ViabilityStatus
		wantError  string
	}{
		{
			name:       "success",
			status:     http.StatusOK,
			body:       `{"segmentation_map":"data:image/png;base64,AA==","viability":{"status":"VIABLE","message":"Terrain safe","composition":{"suelo":70,"arena":20,"rocas":10}}}`,
			wantStatus: entity.StatusViable,
		},
		{
			name:      "server error with detail",
			status:    http.StatusInternalServerError,
			body:      `{"detail":"model unavailable"}`,
			wantError: "model unavailable",
		},
		{
			name:      "server error with unparsable body",
			status:    http.StatusInternalServerError,
			body:      "<html>Internal Server Error</html>",
			wantError: MsgUnknownServerError,
		},
		{
			name:      "success without viability",
			status:    http.StatusOK,
			body:      `{}`,
			wantError: MsgUnknownServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			svc := NewSessionService(storage.NewMemorySessionRepository(), analysisclient.New(srv.URL, 0, zap.NewNop()), nil, zap.NewNop())
			snap := runAnalysis(t, svc)

			require.False(t, snap.IsAnalyzing())
			requireExclusiveOutcome(t, snap)
			if tt.wantError != "" {
				require.Equal(t, entity.StateFailed, snap.State)
				require.Equal(t, tt.wantError, snap.Error)
				require.Nil(t, snap.Result)
				return
			}
			require.Equal(t, entity.StateSucceeded, snap.State)
			require.Equal(t, tt.wantStatus, snap.Result.Viability.Status)
			require.Empty(t, snap.Error)
		})
	}
}

func TestWorkflow_AnalysisServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := NewSessionService(storage.NewMemorySessionRepository(), analysisclient.New(url, 0, zap.NewNop()), nil, zap.NewNop())
	snap := runAnalysis(t, svc)

	require.Equal(t, entity.StateFailed, snap.State)
	require.Equal(t, MsgServiceUnreachable, snap.Error)
	require.NotEqual(t, MsgUnknownServerError, snap.Error)
	require.True(t, snap.HasImage())
}

func runAnalysis(t *testing.T, svc *SessionService) entity.Snapshot {
	t.Helper()
	ctx := context.Background()

	w, err := svc.Workflow(ctx, 1, 10)
	require.NoError(t, err)

	w.SelectImage(ctx, testImage("mars.png"))
	done, err := w.Analyze(ctx)
	require.NoError(t, err)

	snap, ok := awaitOutcome(t, done)
	require.True(t, ok)
	return snap
}
