package chi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bluestone/imagetag/internal/domain"
	"github.com/bluestone/imagetag/internal/repository/labelcount"
	"github.com/bluestone/imagetag/internal/repository/suggestion"
	healthuc "github.com/bluestone/imagetag/internal/usecase/health"
	imageuc "github.com/bluestone/imagetag/internal/usecase/image"
	labeluc "github.com/bluestone/imagetag/internal/usecase/label"
	suggestuc "github.com/bluestone/imagetag/internal/usecase/suggest"
	"github.com/bluestone/imagetag/internal/usecase/suggestbuild"
)

// --- In-memory fakes behind the use case contracts ---

type fakeImageRepo struct {
	images map[string]domain.Image
}

func (f *fakeImageRepo) Put(_ context.Context, img domain.Image) error {
	f.images[img.Name] = img
	return nil
}

func (f *fakeImageRepo) Get(_ context.Context, name string) (domain.Image, error) {
	img, ok := f.images[name]
	if !ok {
		return domain.Image{}, domain.ErrImageNotFound
	}
	return img, nil
}

func (f *fakeImageRepo) Exists(_ context.Context, name string) (bool, error) {
	_, ok := f.images[name]
	return ok, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, name string) error {
	delete(f.images, name)
	return nil
}

func (f *fakeImageRepo) List(_ context.Context, _ string, _ int) ([]string, string, error) {
	names := make([]string, 0, len(f.images))
	for n := range f.images {
		names = append(names, n)
	}
	return names, "", nil
}

type fakeDetector struct {
	labels []domain.Label
	err    error
}

func (f *fakeDetector) DetectLabels(_ context.Context, _ []byte, _ string) ([]domain.Label, error) {
	return f.labels, f.err
}

type fakeDocStore struct {
	docs map[string]domain.LabelDocument
}

func (f *fakeDocStore) PutLabels(_ context.Context, doc domain.LabelDocument) error {
	f.docs[doc.Image] = doc
	return nil
}

func (f *fakeDocStore) GetLabels(_ context.Context, name string) (domain.LabelDocument, error) {
	doc, ok := f.docs[name]
	if !ok {
		return domain.LabelDocument{}, domain.ErrLabelsNotFound
	}
	return doc, nil
}

func (f *fakeDocStore) DeleteLabels(_ context.Context, name string) error {
	delete(f.docs, name)
	return nil
}

type fakeCounter struct{}

func (f *fakeCounter) Incr(_ context.Context, _ string, _ int64) (int64, error) { return 1, nil }

type fakeSuggestionReader struct {
	entries map[string][]string
}

func (f *fakeSuggestionReader) Get(_ context.Context, prefix string) ([]string, error) {
	return f.entries[prefix], nil
}

type fakeCountSource struct{}

func (f *fakeCountSource) ByLetter(_ context.Context, _ string) labelcount.QueryResult {
	return labelcount.QueryResult{Status: labelcount.StatusOK}
}

type fakeSuggestionStore struct{}

func (f *fakeSuggestionStore) PrefixesByLetter(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (f *fakeSuggestionStore) PutBatch(_ context.Context, entries []suggestion.Entry) (int, int) {
	return len(entries), 0
}

func (f *fakeSuggestionStore) DeleteBatch(_ context.Context, prefixes []string) (int, int) {
	return len(prefixes), 0
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

func newTestRouter(t *testing.T, detector *fakeDetector) (chi.Router, *fakeImageRepo, *fakeSuggestionReader) {
	t.Helper()
	logger := zap.NewNop()

	repo := &fakeImageRepo{images: map[string]domain.Image{}}
	docs := &fakeDocStore{docs: map[string]domain.LabelDocument{}}
	reader := &fakeSuggestionReader{entries: map[string][]string{}}

	labelSvc := labeluc.New(detector, docs, &fakeCounter{}, logger)
	imageSvc := imageuc.New(repo, labelSvc, logger)
	suggestSvc := suggestuc.New(reader, 15)
	builder := suggestbuild.New(&fakeCountSource{}, &fakeSuggestionStore{}, 10, 15, logger)
	healthSvc := healthuc.New(&fakePinger{}, nil)

	server := NewServer(imageSvc, labelSvc, suggestSvc, builder, healthSvc, logger)
	r := chi.NewRouter()
	server.Register(r)
	return r, repo, reader
}

func uploadBody(t *testing.T, filename string, data []byte) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(UploadRequest{
		Filename: filename,
		Data:     base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		t.Fatalf("marshal upload body: %v", err)
	}
	return bytes.NewBuffer(body)
}

// --- Tests ---

func TestUploadImage_Created(t *testing.T) {
	detector := &fakeDetector{labels: []domain.Label{{Name: "cat", Confidence: 98}}}
	router, repo, _ := newTestRouter(t, detector)

	req := httptest.NewRequest("POST", "/images", uploadBody(t, "cat.jpg", []byte{0xFF, 0xD8}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp UploadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Filename != "cat.jpg" || resp.ContentType != "image/jpeg" || resp.Size != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.Labels) != 1 || resp.Labels[0].Name != "cat" {
		t.Errorf("unexpected labels %v", resp.Labels)
	}
	if _, ok := repo.images["cat.jpg"]; !ok {
		t.Error("image not stored")
	}
	if loc := rr.Header().Get("Location"); loc != "/images/cat.jpg" {
		t.Errorf("location %q", loc)
	}
}

func TestUploadImage_BadBase64(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	body, _ := json.Marshal(UploadRequest{Filename: "cat.jpg", Data: "%%%not-base64%%%"})
	req := httptest.NewRequest("POST", "/images", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUploadImage_BadExtension(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	req := httptest.NewRequest("POST", "/images", uploadBody(t, "note.txt", []byte{1}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code %q, want %q", errResp.Code, CodeValidationFailed)
	}
}

func TestGetImage_RawBytes(t *testing.T) {
	router, repo, _ := newTestRouter(t, &fakeDetector{})
	repo.images["cat.jpg"] = domain.Image{
		Name:        "cat.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xFF, 0xD8, 0xFF},
	}

	req := httptest.NewRequest("GET", "/images/cat.jpg", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type %q", ct)
	}
	if !bytes.Equal(rr.Body.Bytes(), []byte{0xFF, 0xD8, 0xFF}) {
		t.Errorf("unexpected body %v", rr.Body.Bytes())
	}
}

func TestGetImage_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	req := httptest.NewRequest("GET", "/images/ghost.png", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeImageNotFound {
		t.Errorf("code %q, want %q", errResp.Code, CodeImageNotFound)
	}
}

func TestDeleteImage_ThenGone(t *testing.T) {
	detector := &fakeDetector{labels: []domain.Label{{Name: "cat", Confidence: 98}}}
	router, _, _ := newTestRouter(t, detector)

	req := httptest.NewRequest("POST", "/images", uploadBody(t, "cat.jpg", []byte{1}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload: got %d", rr.Code)
	}

	req = httptest.NewRequest("DELETE", "/images/cat.jpg", http.NoBody)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want %d", rr.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest("GET", "/images/cat.jpg", http.NoBody)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetImageLabels(t *testing.T) {
	detector := &fakeDetector{labels: []domain.Label{
		{Name: "cat", Confidence: 98},
		{Name: "pet", Confidence: 91},
	}}
	router, _, _ := newTestRouter(t, detector)

	req := httptest.NewRequest("POST", "/images", uploadBody(t, "cat.jpg", []byte{1}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload: got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/images/cat.jpg/labels", http.NoBody)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var doc domain.LabelDocument
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Image != "cat.jpg" || len(doc.Labels) != 2 {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestGetImageLabels_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	req := httptest.NewRequest("GET", "/images/ghost.png/labels", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetSuggestions(t *testing.T) {
	router, _, reader := newTestRouter(t, &fakeDetector{})
	reader.entries["do"] = []string{"dog", "door"}

	req := httptest.NewRequest("GET", "/suggestions?prefix=Do", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp SuggestionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Suggestions) != 2 || resp.Suggestions[0] != "dog" {
		t.Errorf("unexpected suggestions %v", resp.Suggestions)
	}
}

func TestGetSuggestions_MissingPrefix(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	req := httptest.NewRequest("GET", "/suggestions", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetSuggestions_UnknownPrefixIsEmptyList(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	req := httptest.NewRequest("GET", "/suggestions?prefix=zzz", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp SuggestionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Suggestions == nil || len(resp.Suggestions) != 0 {
		t.Errorf("expected empty list, got %v", resp.Suggestions)
	}
}

func TestRebuildSuggestions(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	req := httptest.NewRequest("POST", "/suggestions/rebuild", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var report suggestbuild.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Message == "" {
		t.Error("expected a report message")
	}
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeDetector{})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
}
