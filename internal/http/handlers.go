package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/observability/logging"
	"transcript-revision-service/internal/service/correction"
	"transcript-revision-service/internal/service/recognize"
	"transcript-revision-service/internal/service/revision"
	"transcript-revision-service/internal/versionstore"
)

type handler struct {
	svc           *revision.Service
	recognizer    recognize.Adapter
	recognizeOpts recognize.Options
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log := logging.WithComponent("http")
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, versionstore.ErrVersionNotFound),
		errors.Is(err, versionstore.ErrNoVersions):
		status = http.StatusNotFound
	case errors.Is(err, versionstore.ErrVersionZeroProtected):
		status = http.StatusBadRequest
	case errors.Is(err, versionstore.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, correction.ErrEmptyEditorDocument),
		errors.Is(err, correction.ErrNoAuthoritativeWords),
		errors.Is(err, revision.ErrInvalidDocument):
		status = http.StatusBadRequest
	}

	var te *versionstore.TransportError
	if errors.As(err, &te) && te.Recoverable() {
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) postOriginal(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")

	var doc models.RecognizerDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid document payload: " + err.Error()})
		return
	}

	v, err := h.svc.EnsureOriginal(r.Context(), transcriptID, &doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.VersionInfo{
		Version:   v.Version,
		Timestamp: v.Timestamp,
		Changes:   v.Changes,
	})
}

// postRecognize transcribes the raw audio in the request body and stores the
// result as version 0. A transcript that already has versions keeps its
// existing original.
func (h *handler) postRecognize(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")

	audio, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read audio payload: " + err.Error()})
		return
	}
	if len(audio) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty audio payload"})
		return
	}

	opts := h.recognizeOpts
	if v := r.URL.Query().Get("language"); v != "" {
		opts.LanguageCode = v
	}

	doc, err := h.recognizer.Recognize(r.Context(), audio, opts)
	if err != nil {
		log := logging.WithTranscript(transcriptID)
		log.Error().Err(err).Msg("Recognition failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "recognition failed: " + err.Error()})
		return
	}

	v, err := h.svc.EnsureOriginal(r.Context(), transcriptID, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.VersionInfo{
		Version:   v.Version,
		Timestamp: v.Timestamp,
		Changes:   v.Changes,
	})
}

func (h *handler) listVersions(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")

	infos, err := h.svc.ListVersions(r.Context(), transcriptID)
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []models.VersionInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *handler) getVersion(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid version number"})
		return
	}

	v, err := h.svc.GetVersion(r.Context(), transcriptID, version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) getLatestVersion(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")

	v, err := h.svc.GetLatest(r.Context(), transcriptID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) deleteVersion(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid version number"})
		return
	}

	if err := h.svc.DeleteVersion(r.Context(), transcriptID, version); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getEditorDocument(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")
	version, ok := queryVersion(w, r)
	if !ok {
		return
	}

	editor, resolved, err := h.svc.EditorDocument(r.Context(), transcriptID, version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Version  int                    `json:"version"`
		Document *models.EditorDocument `json:"document"`
	}{Version: resolved, Document: editor})
}

type correctionsResponse struct {
	Version        int    `json:"version"`
	Timestamp      string `json:"timestamp"`
	Changes        string `json:"changes"`
	ChangedWords   int    `json:"changed_words"`
	SpeakerRenames int    `json:"speaker_renames"`
	IndexMismatch  bool   `json:"index_mismatch"`
}

func (h *handler) postCorrections(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")

	expectedParent := versionstore.SkipParentCheck
	if v := r.URL.Query().Get("expected_parent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expected_parent"})
			return
		}
		expectedParent = n
	}

	var edited models.EditorDocument
	if err := json.NewDecoder(r.Body).Decode(&edited); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid editor payload: " + err.Error()})
		return
	}

	v, stats, err := h.svc.ApplyCorrections(r.Context(), transcriptID, &edited, expectedParent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, correctionsResponse{
		Version:        v.Version,
		Timestamp:      v.Timestamp,
		Changes:        v.Changes,
		ChangedWords:   stats.ChangedWords,
		SpeakerRenames: stats.SpeakerRenames,
		IndexMismatch:  stats.IndexMismatch,
	})
}

func (h *handler) getParagraphs(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")
	version, ok := queryVersion(w, r)
	if !ok {
		return
	}

	paragraphs, err := h.svc.Paragraphs(r.Context(), transcriptID, version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paragraphs)
}

func (h *handler) getWordAtTime(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")

	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid or missing query parameter t"})
		return
	}

	word, found, err := h.svc.WordAtTime(r.Context(), transcriptID, t)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no word at requested time"})
		return
	}
	writeJSON(w, http.StatusOK, word)
}

func (h *handler) getWordsInRange(w http.ResponseWriter, r *http.Request) {
	transcriptID := chi.URLParam(r, "transcriptID")

	start, err := strconv.ParseFloat(r.URL.Query().Get("start"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid or missing query parameter start"})
		return
	}
	end, err := strconv.ParseFloat(r.URL.Query().Get("end"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid or missing query parameter end"})
		return
	}
	if end < start {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "end must not precede start"})
		return
	}

	words, err := h.svc.WordsInRange(r.Context(), transcriptID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if words == nil {
		words = []models.Word{}
	}
	writeJSON(w, http.StatusOK, words)
}

// queryVersion parses the optional version query parameter; absent means
// latest. The false return means a response was already written.
func queryVersion(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("version")
	if v == "" {
		return -1, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid version number"})
		return 0, false
	}
	return n, true
}
