package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"transcript-revision-service/internal/events"
	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/service/recognize"
	mockrecognize "transcript-revision-service/internal/service/recognize/mock"
	"transcript-revision-service/internal/service/revision"
	"transcript-revision-service/internal/versionstore"
	mockstore "transcript-revision-service/internal/versionstore/mock"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := versionstore.NewStore(mockstore.NewBackend())
	svc := revision.New(store, events.New(&events.Config{Enabled: false}))
	srv := httptest.NewServer(NewRouter(svc, mockrecognize.New(), recognize.DefaultOptions()))
	t.Cleanup(srv.Close)
	return srv
}

func seedOriginal(t *testing.T, srv *httptest.Server, transcriptID string) {
	t.Helper()
	body, err := json.Marshal(mockrecognize.Document())
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	resp, err := http.Post(srv.URL+"/v1/transcripts/"+transcriptID+"/original", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("seed request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed returned %d", resp.StatusCode)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestPostOriginal(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "tr-1")

	resp, err := http.Get(srv.URL + "/v1/transcripts/tr-1/versions")
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	infos := decode[[]models.VersionInfo](t, resp)
	if len(infos) != 1 || infos[0].Version != 0 {
		t.Errorf("unexpected version list: %+v", infos)
	}
}

func TestPostOriginal_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/transcripts/tr-1/original", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPostRecognize(t *testing.T) {
	srv := newTestServer(t)

	audio := bytes.Repeat([]byte{0x01, 0x02}, 64)
	resp, err := http.Post(srv.URL+"/v1/transcripts/tr-1/recognize", "application/octet-stream", bytes.NewReader(audio))
	if err != nil {
		t.Fatalf("recognize request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	info := decode[models.VersionInfo](t, resp)
	if info.Version != 0 {
		t.Errorf("expected version 0, got %d", info.Version)
	}

	resp, err = http.Get(srv.URL + "/v1/transcripts/tr-1/versions/0")
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	v := decode[models.Version](t, resp)
	if got := len(v.Document.AuthoritativeWords()); got != len(mockrecognize.DefaultWords) {
		t.Errorf("expected %d recognized words, got %d", len(mockrecognize.DefaultWords), got)
	}
}

func TestPostRecognize_EmptyAudio(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/transcripts/tr-1/recognize", "application/octet-stream", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty audio, got %d", resp.StatusCode)
	}
}

func TestListVersions_EmptyTranscript(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/transcripts/unknown/versions")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	infos := decode[[]models.VersionInfo](t, resp)
	if len(infos) != 0 {
		t.Errorf("expected empty list, got %+v", infos)
	}
}

func TestGetVersion(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "tr-1")

	resp, err := http.Get(srv.URL + "/v1/transcripts/tr-1/versions/0")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	v := decode[models.Version](t, resp)
	if v.Version != 0 || len(v.Document.AuthoritativeWords()) == 0 {
		t.Errorf("unexpected version payload: %+v", v.Version)
	}

	resp, err = http.Get(srv.URL + "/v1/transcripts/tr-1/versions/9")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing version, got %d", resp.StatusCode)
	}
}

func TestDeleteVersion_ZeroProtected(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "tr-1")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/transcripts/tr-1/versions/0", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for version 0 delete, got %d", resp.StatusCode)
	}
}

func TestCorrectionsFlow(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "tr-1")

	resp, err := http.Get(srv.URL + "/v1/transcripts/tr-1/editor")
	if err != nil {
		t.Fatalf("editor request failed: %v", err)
	}
	editorResp := decode[struct {
		Version  int                    `json:"version"`
		Document *models.EditorDocument `json:"document"`
	}](t, resp)
	if editorResp.Version != 0 {
		t.Fatalf("expected editor for version 0, got %d", editorResp.Version)
	}

	edited := editorResp.Document
	edited.Words[0].Word = "hey"
	edited.Words[0].Punct = "Hey,"

	body, err := json.Marshal(edited)
	if err != nil {
		t.Fatalf("marshal edited: %v", err)
	}
	url := fmt.Sprintf("%s/v1/transcripts/tr-1/corrections?expected_parent=%d", srv.URL, editorResp.Version)
	resp, err = http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("corrections request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result := decode[correctionsResponse](t, resp)
	if result.Version != 1 || result.ChangedWords != 1 {
		t.Errorf("unexpected correction result: %+v", result)
	}

	// Re-submitting against the old parent now conflicts.
	resp, err = http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("stale request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for stale parent, got %d", resp.StatusCode)
	}
}

func TestCorrections_EmptyEditorDocument(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "tr-1")

	resp, err := http.Post(srv.URL+"/v1/transcripts/tr-1/corrections", "application/json", bytes.NewReader([]byte(`{"words":[]}`)))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty editor document, got %d", resp.StatusCode)
	}
}

func TestWordLookups(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "tr-1")

	resp, err := http.Get(srv.URL + "/v1/transcripts/tr-1/words/at-time?t=0.2")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	word := decode[models.Word](t, resp)
	if word.Word != "hello" {
		t.Errorf("expected 'hello' at 0.2s, got %q", word.Word)
	}

	resp, err = http.Get(srv.URL + "/v1/transcripts/tr-1/words/at-time?t=99")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 past end of audio, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/transcripts/tr-1/words/in-range?start=2.0&end=3.0")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	words := decode[[]models.Word](t, resp)
	if len(words) == 0 {
		t.Error("expected words in range")
	}

	resp, err = http.Get(srv.URL + "/v1/transcripts/tr-1/words/in-range?start=3.0&end=2.0")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d", resp.StatusCode)
	}
}

func TestGetParagraphs(t *testing.T) {
	srv := newTestServer(t)
	seedOriginal(t, srv, "tr-1")

	resp, err := http.Get(srv.URL + "/v1/transcripts/tr-1/paragraphs")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	paragraphs := decode[[]map[string]any](t, resp)
	if len(paragraphs) != 2 {
		t.Errorf("expected 2 paragraphs, got %d", len(paragraphs))
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/v1/liveness", "/v1/readiness"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s returned %d", path, resp.StatusCode)
		}
	}
}
