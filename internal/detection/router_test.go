package detection

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festival-cleanup-backend/internal/config"
)

type fakeModel struct {
	detections []Detection
	err        error
	calls      int
}

func (m *fakeModel) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	m.calls++
	return m.detections, m.err
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 12), G: 100, B: 50, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func remoteConfig(url string) config.DetectionConfig {
	return config.DetectionConfig{
		Remote: config.RemoteDetectionConfig{
			URL:            url,
			APIKey:         "test-key",
			ImageSize:      640,
			Confidence:     0.25,
			IoU:            0.45,
			TimeoutSeconds: 5,
		},
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	router := NewRouter(remoteConfig("http://127.0.0.1:1"), &fakeModel{})

	summary := router.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))

	assert.Equal(t, SourceUnknown, summary.Source)
	assert.Nil(t, summary.HasTrash)
	assert.Nil(t, summary.TrashCount)
	assert.Nil(t, summary.MaxConfidence)
	assert.Nil(t, summary.RawDetections)
	assert.True(t, summary.Unknown())
}

func TestAnalyzeNoBackends(t *testing.T) {
	router := NewRouter(config.DetectionConfig{}, nil)

	summary := router.Analyze(context.Background(), writeTestImage(t))

	assert.Equal(t, SourceUnknown, summary.Source)
	assert.Nil(t, summary.HasTrash)
	assert.Nil(t, summary.TrashCount)
	assert.Nil(t, summary.MaxConfidence)
	assert.Nil(t, summary.RawDetections)
	// dimensions are still derivable from the file itself
	require.NotNil(t, summary.ImageWidth)
	require.NotNil(t, summary.ImageHeight)
	assert.Equal(t, 20, *summary.ImageWidth)
	assert.Equal(t, 10, *summary.ImageHeight)
}

func TestAnalyzeRemoteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "640", r.FormValue("imgsz"))
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"detections": [
			{"class_name": "Plastic", "confidence": 0.9, "bbox": [1, 2, 3, 4]},
			{"class_name": "Plastic", "confidence": 0.6, "xywh": [2, 3, 2, 2]},
			{"class_name": "person", "confidence": 0.99, "bbox": [5, 5, 6, 6]}
		]}`))
	}))
	defer server.Close()

	cfg := remoteConfig(server.URL)
	cfg.Remote.TrashClasses = []string{"Plastic", "Metal"}
	local := &fakeModel{}
	router := NewRouter(cfg, local)

	summary := router.Analyze(context.Background(), writeTestImage(t))

	assert.Equal(t, SourceRemote, summary.Source)
	require.NotNil(t, summary.HasTrash)
	assert.True(t, *summary.HasTrash)
	require.NotNil(t, summary.TrashCount)
	assert.Equal(t, 2, *summary.TrashCount)
	require.NotNil(t, summary.MaxConfidence)
	assert.Equal(t, 0.9, *summary.MaxConfidence)
	// raw detections keep the full unfiltered list
	assert.Len(t, summary.RawDetections, 3)
	assert.Equal(t, 0, local.calls)
}

func TestAnalyzeRemoteEmptyClassListCountsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detections": [{"class_name": "anything", "confidence": 0.4, "bbox": [0, 0, 1, 1]}]}`))
	}))
	defer server.Close()

	router := NewRouter(remoteConfig(server.URL), nil)
	summary := router.Analyze(context.Background(), writeTestImage(t))

	require.NotNil(t, summary.HasTrash)
	assert.True(t, *summary.HasTrash)
	assert.Equal(t, 1, *summary.TrashCount)
}

func TestAnalyzeRemoteNoTrash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detections": [{"class_name": "person", "confidence": 0.9, "bbox": [0, 0, 1, 1]}]}`))
	}))
	defer server.Close()

	cfg := remoteConfig(server.URL)
	cfg.Remote.TrashClasses = []string{"Plastic"}
	router := NewRouter(cfg, nil)

	summary := router.Analyze(context.Background(), writeTestImage(t))

	require.NotNil(t, summary.HasTrash)
	assert.False(t, *summary.HasTrash)
	assert.Equal(t, 0, *summary.TrashCount)
	assert.Nil(t, summary.MaxConfidence)
}

func TestAnalyzeFallsBackToLocal(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"5xx":       func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		"malformed": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) },
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			local := &fakeModel{detections: []Detection{
				{ClassName: "Waste", Confidence: 0.75, BBox: []float64{0, 0, 2, 2}},
			}}
			cfg := remoteConfig(server.URL)
			cfg.Local.TrashClasses = []string{"Waste"}
			router := NewRouter(cfg, local)

			summary := router.Analyze(context.Background(), writeTestImage(t))

			assert.Equal(t, SourceLocal, summary.Source)
			require.NotNil(t, summary.HasTrash)
			assert.True(t, *summary.HasTrash)
			assert.Equal(t, 0.75, *summary.MaxConfidence)
			assert.Equal(t, 1, local.calls)
		})
	}
}

func TestAnalyzeBothBackendsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	local := &fakeModel{err: errors.New("weights missing")}
	router := NewRouter(remoteConfig(server.URL), local)

	summary := router.Analyze(context.Background(), writeTestImage(t))

	assert.Equal(t, SourceUnknown, summary.Source)
	assert.Nil(t, summary.HasTrash)
}

func TestAnalyzeCorruptImageStillStructured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.jpg")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a jpeg"), 0o644))

	router := NewRouter(config.DetectionConfig{}, nil)
	summary := router.Analyze(context.Background(), path)

	assert.Equal(t, SourceUnknown, summary.Source)
	assert.Nil(t, summary.ImageWidth)
	assert.Nil(t, summary.ImageHeight)
}

func TestLazyModelLoadFailure(t *testing.T) {
	buildCalls := 0
	model := NewLazyModel(func() (Model, error) {
		buildCalls++
		return nil, errors.New("no weights")
	})

	_, err := model.Detect(context.Background(), "any.jpg")
	assert.Error(t, err)
	_, err = model.Detect(context.Background(), "any.jpg")
	assert.Error(t, err)
	assert.Equal(t, 1, buildCalls)
}
