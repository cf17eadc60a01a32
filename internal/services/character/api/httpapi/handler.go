// Package httpapi serves the character JSON API under /api.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/swnsheet/internal/platform/errors"
	"github.com/louisbranch/swnsheet/internal/platform/httpx"
	"github.com/louisbranch/swnsheet/internal/services/character/domain"
	"github.com/louisbranch/swnsheet/internal/services/character/service"
)

const (
	maxUploadBytes = 1 << 20
	maxBodyBytes   = 64 << 10
)

var (
	errAttributeRequired = apperrors.New(apperrors.CodeMissingParameter, "Attribute parameter is required")
	errDetailRequired    = apperrors.New(apperrors.CodeMissingParameter, "Detail and value parameters are required")
	errNoFilePart        = apperrors.New(apperrors.CodeUploadRejected, "No file part")
	errNoSelectedFile    = apperrors.New(apperrors.CodeUploadRejected, "No selected file")
	errNotJSONFile       = apperrors.New(apperrors.CodeUploadRejected, "File must be a JSON file")
	errInvalidJSON       = apperrors.New(apperrors.CodeCharacterInvalidPayload, "Invalid JSON format")
)

// CharacterService is the set of operations the API exposes.
type CharacterService interface {
	Get(ctx context.Context, sessionID string) (domain.Character, error)
	New(ctx context.Context, sessionID string) (domain.Character, error)
	Roll(ctx context.Context, sessionID string) (domain.Character, error)
	ChangeAttribute(ctx context.Context, sessionID, attribute string) (domain.Character, error)
	SetDetail(ctx context.Context, sessionID, detail, value string) (domain.Character, error)
	Upload(ctx context.Context, sessionID string, data []byte) (domain.Character, error)
	Download(ctx context.Context, sessionID string) (service.Export, error)
}

// Handler routes /api requests to the character service.
type Handler struct {
	characters CharacterService
	sessions   *Sessions
	mux        *http.ServeMux
}

// NewHandler builds the API router.
func NewHandler(characters CharacterService, sessions *Sessions) (*Handler, error) {
	if characters == nil {
		return nil, errors.New("character service is required")
	}
	if sessions == nil {
		return nil, errors.New("sessions are required")
	}
	h := &Handler{characters: characters, sessions: sessions, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /api/character", h.withSession(h.handleGet))
	h.mux.HandleFunc("GET /api/new-character", h.withSession(h.handleNew))
	h.mux.HandleFunc("GET /api/roll-attributes", h.withSession(h.handleRoll))
	h.mux.HandleFunc("POST /api/change-attribute", h.withSession(h.handleChangeAttribute))
	h.mux.HandleFunc("POST /api/set-detail", h.withSession(h.handleSetDetail))
	h.mux.HandleFunc("POST /api/upload-character", h.withSession(h.handleUpload))
	h.mux.HandleFunc("GET /api/download-character", h.withSession(h.handleDownload))
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sessionID string)

func (h *Handler) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := h.sessions.Resolve(w, r)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		next(w, r, sessionID)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, sessionID string) {
	writeCharacter(w, func() (domain.Character, error) { return h.characters.Get(r.Context(), sessionID) })
}

func (h *Handler) handleNew(w http.ResponseWriter, r *http.Request, sessionID string) {
	writeCharacter(w, func() (domain.Character, error) { return h.characters.New(r.Context(), sessionID) })
}

func (h *Handler) handleRoll(w http.ResponseWriter, r *http.Request, sessionID string) {
	writeCharacter(w, func() (domain.Character, error) { return h.characters.Roll(r.Context(), sessionID) })
}

type changeAttributeRequest struct {
	Attribute string `json:"attribute"`
}

func (h *Handler) handleChangeAttribute(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req changeAttributeRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Attribute) == "" {
		httpx.WriteError(w, errAttributeRequired)
		return
	}
	writeCharacter(w, func() (domain.Character, error) {
		return h.characters.ChangeAttribute(r.Context(), sessionID, req.Attribute)
	})
}

type setDetailRequest struct {
	Detail string `json:"detail"`
	Value  string `json:"value"`
}

func (h *Handler) handleSetDetail(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req setDetailRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Detail) == "" || req.Value == "" {
		httpx.WriteError(w, errDetailRequired)
		return
	}
	writeCharacter(w, func() (domain.Character, error) {
		return h.characters.SetDetail(r.Context(), sessionID, req.Detail, req.Value)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, sessionID string) {
	data, err := readUpload(w, r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	writeCharacter(w, func() (domain.Character, error) {
		return h.characters.Upload(r.Context(), sessionID, data)
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, sessionID string) {
	export, err := h.characters.Download(r.Context(), sessionID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Body)
}

// readUpload extracts the JSON document from the multipart "file" part.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errNoFilePart
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// Parts without a filename are parsed as plain values.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return nil, errNoSelectedFile
		}
		return nil, errNoFilePart
	}
	if err != nil {
		return nil, errNoFilePart
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		return nil, errNoSelectedFile
	}
	if !strings.HasSuffix(header.Filename, ".json") {
		return nil, errNotJSONFile
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !json.Valid(data) {
		return nil, errInvalidJSON
	}
	return data, nil
}

func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeCharacter(w http.ResponseWriter, op func() (domain.Character, error)) {
	character, err := op()
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, character)
}
