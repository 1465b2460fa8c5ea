package analysisclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/logging"
)

const successBody = `{"filename":"mars.png","segmentation_map":"data:image/png;base64,AA==","viability":{"status":"VIABLE","message":"Terrain safe","composition":{"suelo":70,"arena":20,"rocas":10}}}`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func marsImage() entity.ImageFile {
	return entity.NewImageFile("mars.png", "image/png", []byte("\x89PNG\r\n\x1a\nfake"))
}

func TestClient_PredictSendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Len(t, r.MultipartForm.File, 1)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, marsImage().Data, data)
		assert.Equal(t, "mars.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, successBody)
	}))
	defer srv.Close()

	// лишний слэш в адресе не должен ломать путь
	c := New(srv.URL+"/", 0, zap.NewNop())
	result, err := c.Predict(context.Background(), "req-1", marsImage())
	require.NoError(t, err)
	require.Equal(t, entity.StatusViable, result.Viability.Status)
	require.Equal(t, "Terrain safe", result.Viability.Message)
	require.Equal(t, entity.Composition{Suelo: 70, Arena: 20, Rocas: 10}, result.Viability.Composition)
	require.Equal(t, "data:image/png;base64,AA==", result.SegmentationMap)
	require.Equal(t, "mars.png", result.Filename)
}

func TestClient_PredictUnknownStatusIsKept(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"segmentation_map":"x","viability":{"status":"PRECAUCIÓN","message":"Alto nivel de arena","composition":{"suelo":40,"arena":50,"rocas":10}}}`)

	result, err := New(srv.URL, 0, zap.NewNop()).Predict(context.Background(), "", marsImage())
	require.NoError(t, err)
	require.Equal(t, entity.ViabilityStatus("PRECAUCIÓN"), result.Viability.Status)
	require.Equal(t, entity.TierCaution, result.Viability.Status.Tier())
}

func TestClient_PredictServerErrorWithDetail(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `{"detail":"model unavailable"}`)

	_, err := New(srv.URL, 0, zap.NewNop()).Predict(context.Background(), "req-2", marsImage())
	require.Error(t, err)

	var serverErr *entity.ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	require.Equal(t, "model unavailable", serverErr.Detail)
	require.False(t, errors.Is(err, entity.ErrServiceUnreachable))

	var opErr *logging.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "req-2", opErr.RequestID)
}

func TestClient_PredictServerErrorBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "Internal Server Error"},
		{name: "empty", body: ""},
		{name: "no detail", body: `{"error":"boom"}`},
		{name: "validation list", body: `{"detail":[{"loc":["body","file"],"msg":"field required"}]}`},
		{name: "blank detail", body: `{"detail":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, http.StatusUnprocessableEntity, tt.body)

			_, err := New(srv.URL, 0, zap.NewNop()).Predict(context.Background(), "", marsImage())

			var serverErr *entity.ServerError
			require.ErrorAs(t, err, &serverErr)
			require.Equal(t, http.StatusUnprocessableEntity, serverErr.StatusCode)
			require.Empty(t, serverErr.Detail)
		})
	}
}

func TestClient_PredictUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, 0, zap.NewNop()).Predict(context.Background(), "req-3", marsImage())
	require.ErrorIs(t, err, entity.ErrServiceUnreachable)

	var serverErr *entity.ServerError
	require.False(t, errors.As(err, &serverErr))
}

func TestClient_PredictMalformedSuccessBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>not json</html>"},
		{name: "null", body: "null"},
		{name: "empty object", body: "{}"},
		{name: "null viability", body: `{"segmentation_map":"x","viability":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, http.StatusOK, tt.body)

			result, err := New(srv.URL, 0, zap.NewNop()).Predict(context.Background(), "", marsImage())
			require.Error(t, err)
			require.Nil(t, result)
			require.False(t, errors.Is(err, entity.ErrServiceUnreachable))

			var serverErr *entity.ServerError
			require.False(t, errors.As(err, &serverErr))
		})
	}
}

func TestReadDetail(t *testing.T) {
	require.Equal(t, "model unavailable", readDetail(strings.NewReader(`{"detail":"model unavailable"}`)))
	require.Empty(t, readDetail(strings.NewReader(`{"detail":null}`)))
	require.Empty(t, readDetail(strings.NewReader(`[]`)))
}

func TestEncodeUploadEscapesFilename(t *testing.T) {
	body, contentType, err := encodeUpload(entity.NewImageFile(`my "mars".png`, "", []byte("x")))
	require.NoError(t, err)
	require.Contains(t, contentType, "multipart/form-data; boundary=")

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Contains(t, string(data), `filename="my \"mars\".png"`)
	require.Contains(t, string(data), `name="file"`)
}
