package report

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (chi.Router, *memRepo, *fakeStore) {
	repo := newMemRepo()
	store := &fakeStore{}
	h := NewHandler(NewService(repo, store))
	r := chi.NewRouter()
	h.Routes(r)
	return r, repo, store
}

// multipartBody builds a multipart form with the given fields and an
// optional file part.
func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func doMultipart(t *testing.T, r http.Handler, method, path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, filename, content)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeReport(t *testing.T, body io.Reader) Report {
	t.Helper()
	var rep Report
	require.NoError(t, json.NewDecoder(body).Decode(&rep))
	return rep
}

func TestReportLifecycle(t *testing.T) {
	r, _, _ := newTestRouter()

	// Create without file.
	w := doMultipart(t, r, http.MethodPost, "/reports", map[string]string{"category": "Trash"}, "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeReport(t, w.Body)
	require.Equal(t, "Trash", created.Category)
	require.Equal(t, "pending", created.Status)
	require.Nil(t, created.ImageURL)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	// image_url must serialize as an explicit null.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(mustGet(t, r, "/reports/"+created.ID, http.StatusOK), &raw))
	require.Contains(t, raw, "image_url")
	require.Equal(t, "null", string(raw["image_url"]))

	// Get returns the identical row.
	got := decodeReport(t, bytes.NewReader(mustGet(t, r, "/reports/"+created.ID, http.StatusOK)))
	require.Equal(t, created, got)

	// List contains it.
	var list []Report
	require.NoError(t, json.Unmarshal(mustGet(t, r, "/reports", http.StatusOK), &list))
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)

	// Delete, then the row is gone.
	req := httptest.NewRequest(http.MethodDelete, "/reports/"+created.ID, nil)
	dw := httptest.NewRecorder()
	r.ServeHTTP(dw, req)
	require.Equal(t, http.StatusNoContent, dw.Code)
	require.Empty(t, dw.Body.Bytes())

	mustGet(t, r, "/reports/"+created.ID, http.StatusNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	r, _, _ := newTestRouter()

	first := decodeBody(t, doMultipart(t, r, http.MethodPost, "/reports", map[string]string{"category": "A"}, "", nil))
	second := decodeBody(t, doMultipart(t, r, http.MethodPost, "/reports", map[string]string{"category": "B"}, "", nil))

	var list []Report
	require.NoError(t, json.Unmarshal(mustGet(t, r, "/reports", http.StatusOK), &list))
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestCreate_Validation(t *testing.T) {
	r, _, store := newTestRouter()

	w := doMultipart(t, r, http.MethodPost, "/reports", map[string]string{}, "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doMultipart(t, r, http.MethodPost, "/reports",
		map[string]string{"category": "Trash", "longitude": "not-a-number"}, "a.jpg", []byte("x"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Validation failures happen before any side effect.
	require.Empty(t, store.uploaded)
}

func TestCreate_WithCoordinatesAndFile(t *testing.T) {
	r, _, store := newTestRouter()

	w := doMultipart(t, r, http.MethodPost, "/reports", map[string]string{
		"category":    "Alumbrado",
		"longitude":   "-78.467834",
		"latitude":    "-0.180653",
		"description": "lampara rota",
		"status":      "in_review",
	}, "lamp.png", []byte("pngdata"))
	require.Equal(t, http.StatusCreated, w.Code)

	rep := decodeReport(t, w.Body)
	require.NotNil(t, rep.Longitude)
	require.InDelta(t, -78.467834, *rep.Longitude, 1e-9)
	require.NotNil(t, rep.Latitude)
	require.InDelta(t, -0.180653, *rep.Latitude, 1e-9)
	require.NotNil(t, rep.Description)
	require.Equal(t, "lampara rota", *rep.Description)
	require.Equal(t, "in_review", rep.Status)
	require.NotNil(t, rep.ImageURL)
	require.Len(t, store.uploaded, 1)
}

func TestUpload_FileRequired(t *testing.T) {
	r, _, _ := newTestRouter()

	w := doMultipart(t, r, http.MethodPost, "/reports/upload", map[string]string{"category": "Trash"}, "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_UnknownReportID(t *testing.T) {
	r, _, _ := newTestRouter()

	w := doMultipart(t, r, http.MethodPost, "/reports/upload", map[string]string{
		"category":  "Trash",
		"report_id": "2e9b0f53-8a1c-4f3d-9d41-000000000000",
	}, "a.jpg", []byte("x"))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload_ReplacesImage(t *testing.T) {
	r, _, store := newTestRouter()

	created := decodeBody(t, doMultipart(t, r, http.MethodPost, "/reports",
		map[string]string{"category": "Trash"}, "old.jpg", []byte("old")))
	require.NotNil(t, created.ImageURL)

	w := doMultipart(t, r, http.MethodPost, "/reports/upload", map[string]string{
		"category":  "Trash",
		"report_id": created.ID,
		"status":    "resolved",
	}, "new.jpg", []byte("new"))
	require.Equal(t, http.StatusCreated, w.Code)

	updated := decodeReport(t, w.Body)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "resolved", updated.Status)
	require.NotNil(t, updated.ImageURL)
	require.NotEqual(t, *created.ImageURL, *updated.ImageURL)
	require.Len(t, store.removed, 1)
}

func TestUpload_WithoutReportIDCreates(t *testing.T) {
	r, _, _ := newTestRouter()

	w := doMultipart(t, r, http.MethodPost, "/reports/upload",
		map[string]string{"category": "Trash"}, "a.jpg", []byte("x"))
	require.Equal(t, http.StatusCreated, w.Code)

	rep := decodeReport(t, w.Body)
	require.NotEmpty(t, rep.ID)
	require.NotNil(t, rep.ImageURL)
}

func TestSignedImageURLEndpoint(t *testing.T) {
	r, _, _ := newTestRouter()

	created := decodeBody(t, doMultipart(t, r, http.MethodPost, "/reports",
		map[string]string{"category": "Trash"}, "a.jpg", []byte("x")))

	var data signedURLData
	require.NoError(t, json.Unmarshal(mustGet(t, r, "/reports/"+created.ID+"/image-url", http.StatusOK), &data))
	require.Contains(t, data.URL, "X-Amz-Signature")

	noImage := decodeBody(t, doMultipart(t, r, http.MethodPost, "/reports",
		map[string]string{"category": "Trash"}, "", nil))
	mustGet(t, r, "/reports/"+noImage.ID+"/image-url", http.StatusNotFound)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) Report {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeReport(t, w.Body)
}

func mustGet(t *testing.T, r http.Handler, path string, wantStatus int) []byte {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, wantStatus, w.Code)
	return w.Body.Bytes()
}
