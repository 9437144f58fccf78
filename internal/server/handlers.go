package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/formatter"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/store"
	"github.com/desertthunder/ytlinks/internal/tasks"
)

// DefaultMaxBodyBytes caps request bodies accepted by the API.
const DefaultMaxBodyBytes = 10 << 20

// RefreshControl starts refreshes. Implemented by [tasks.Scheduler].
type RefreshControl interface {
	Trigger(trigger models.RefreshTrigger) error
	RunNow(ctx context.Context, trigger models.RefreshTrigger, artists []string, progress chan<- tasks.ProgressUpdate) (*tasks.RefreshResult, error)
	Last() tasks.RunStatus
}

// RunHistory lists recorded refreshes. Implemented by [repositories.RefreshRepository].
type RunHistory interface {
	List(limit int) ([]*models.RefreshRun, error)
}

// ProxyHealth reports whether the catalog proxy answers. Implemented by [services.APIService].
type ProxyHealth interface {
	Health(ctx context.Context) error
}

// proxyHealthTimeout bounds the proxy check done by GET /health.
const proxyHealthTimeout = 3 * time.Second

// APIOpts configures an [API].
type APIOpts struct {
	Links        *store.LinksFile
	Artists      *store.ArtistsFile
	Refresh      RefreshControl
	History      RunHistory  // Optional
	Proxy        ProxyHealth // Optional, reported by GET /health
	Logger       *log.Logger
	MaxBodyBytes int64
}

// API serves the links document, the artist list and refresh controls.
type API struct {
	opts APIOpts
}

// NewAPI creates an API. Links and Artists are required.
func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &API{opts: opts}
}

// Register adds every API route to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/links.json", http.HandlerFunc(a.links))
	r.Handle(http.MethodGet, "/links", http.HandlerFunc(a.links))
	r.Handle(http.MethodGet, "/links.m3u", http.HandlerFunc(a.playlist))
	r.Handle(http.MethodPost, "/update", http.HandlerFunc(a.update))
	r.Handle(http.MethodPost, "/process_artists", http.HandlerFunc(a.processArtists))
	r.Handle(http.MethodPost, "/add_artist", http.HandlerFunc(a.addArtist))
	r.Handle(http.MethodPost, "/remove_artist", http.HandlerFunc(a.removeArtist))
	r.Handle(http.MethodGet, "/get_artists", http.HandlerFunc(a.getArtists))
	r.Handle(http.MethodPost, "/trigger_update", http.HandlerFunc(a.triggerUpdate))
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodGet, "/api/refreshes", http.HandlerFunc(a.refreshes))
}

func (a *API) links(w http.ResponseWriter, r *http.Request) {
	data, err := a.opts.Links.Read()
	if err != nil {
		a.opts.Logger.Error("failed to read links", "path", a.opts.Links.Path(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read links")
		return
	}
	writeRawJSON(w, data)
}

func (a *API) playlist(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.opts.Links.ReadTracks()
	if err != nil {
		a.opts.Logger.Error("failed to read links", "path", a.opts.Links.Path(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read links")
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", `inline; filename="links.m3u"`)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(formatter.ToM3U(tracks))
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	body, ok := a.readBody(w, r)
	if !ok {
		return
	}

	if err := a.opts.Links.WriteRaw(body); err != nil {
		switch {
		case errors.Is(err, shared.ErrEmptyInput):
			writeError(w, http.StatusBadRequest, "empty data")
		case errors.Is(err, shared.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			a.opts.Logger.Error("failed to overwrite links", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to write links")
		}
		return
	}

	a.opts.Logger.Info("links overwritten", "bytes", len(body))
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type processResponse struct {
	Status        string               `json:"status"`
	Message       string               `json:"message,omitempty"`
	Tracks        int                  `json:"tracks"`
	TracksFailed  int                  `json:"tracks_failed"`
	ArtistsFailed int                  `json:"artists_failed"`
	Duplicates    int                  `json:"duplicates"`
	Written       bool                 `json:"written"`
	Artists       []tasks.ArtistResult `json:"artists"`
}

func (a *API) processArtists(w http.ResponseWriter, r *http.Request) {
	if a.opts.Refresh == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh is not configured")
		return
	}

	body, ok := a.readBody(w, r)
	if !ok {
		return
	}
	artists, err := decodeArtists(body)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	result, err := a.opts.Refresh.RunNow(r.Context(), models.TriggerRequest, artists, nil)
	if result == nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := processResponse{
		Status:        "success",
		Tracks:        len(result.Tracks),
		TracksFailed:  result.TracksFailed,
		ArtistsFailed: result.ArtistsFailed,
		Duplicates:    result.Duplicates,
		Written:       result.Written,
		Artists:       result.Artists,
	}
	if err != nil {
		resp.Status = "failed"
		resp.Message = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) addArtist(w http.ResponseWriter, r *http.Request) {
	name, ok := a.artistParam(w, r)
	if !ok {
		return
	}

	added, err := a.opts.Artists.Add(name)
	if err != nil {
		a.artistError(w, err)
		return
	}
	a.respondArtists(w, "added", added)
}

func (a *API) removeArtist(w http.ResponseWriter, r *http.Request) {
	name, ok := a.artistParam(w, r)
	if !ok {
		return
	}

	removed, err := a.opts.Artists.Remove(name)
	if err != nil {
		a.artistError(w, err)
		return
	}
	a.respondArtists(w, "removed", removed)
}

func (a *API) respondArtists(w http.ResponseWriter, key string, changed bool) {
	artists, err := a.opts.Artists.List()
	if err != nil {
		a.artistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", key: changed, "artists": artists})
}

func (a *API) artistError(w http.ResponseWriter, err error) {
	if status := statusFor(err); status == http.StatusBadRequest {
		writeError(w, status, err.Error())
		return
	}
	a.opts.Logger.Error("artist list update failed", "path", a.opts.Artists.Path(), "error", err)
	writeError(w, http.StatusInternalServerError, "failed to update artist list")
}

func (a *API) getArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := a.opts.Artists.List()
	if err != nil {
		a.opts.Logger.Error("failed to read artist list", "path", a.opts.Artists.Path(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read artist list")
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (a *API) triggerUpdate(w http.ResponseWriter, r *http.Request) {
	if a.opts.Refresh == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh is not configured")
		return
	}

	if err := a.opts.Refresh.Trigger(models.TriggerManual); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	a.opts.Logger.Info("refresh triggered", "remote", clientIP(r))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type lastRefresh struct {
	Trigger    string    `json:"trigger"`
	FinishedAt time.Time `json:"finished_at"`
	Tracks     int       `json:"tracks"`
	Written    bool      `json:"written"`
	Error      string    `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string       `json:"status"`
	Refreshing  bool         `json:"refreshing"`
	Proxy       string       `json:"proxy,omitempty"`
	LastRefresh *lastRefresh `json:"last_refresh"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if a.opts.Refresh != nil {
		last := a.opts.Refresh.Last()
		resp.Refreshing = last.Running
		if !last.FinishedAt.IsZero() {
			lr := &lastRefresh{Trigger: string(last.Trigger), FinishedAt: last.FinishedAt}
			if last.Result != nil {
				lr.Tracks = len(last.Result.Tracks)
				lr.Written = last.Result.Written
			}
			if last.Err != nil {
				lr.Error = last.Err.Error()
			}
			resp.LastRefresh = lr
		}
	}

	if a.opts.Proxy != nil {
		ctx, cancel := context.WithTimeout(r.Context(), proxyHealthTimeout)
		defer cancel()
		resp.Proxy = "ok"
		if err := a.opts.Proxy.Health(ctx); err != nil {
			a.opts.Logger.Warn("catalog proxy unreachable", "error", err)
			resp.Proxy = "unreachable"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) refreshes(w http.ResponseWriter, r *http.Request) {
	if a.opts.History == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh history is not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	runs, err := a.opts.History.List(limit)
	if err != nil {
		a.opts.Logger.Error("failed to list refresh runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list refresh runs")
		return
	}

	views := make([]models.RefreshRunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, run.View())
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

// artistParam reads the artist name from a JSON body, a form or the query string.
func (a *API) artistParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var name string

	if isJSON(r) {
		body, ok := a.readBody(w, r)
		if !ok {
			return "", false
		}
		var req struct {
			Artist string `json:"artist"`
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return "", false
			}
		}
		name = req.Artist
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxBodyBytes)
		name = r.FormValue("artist")
	}

	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "artist is required")
		return "", false
	}
	return name, true
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeArtists accepts {"artists": [...]} or a bare array.
func decodeArtists(body []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: no artists given", shared.ErrEmptyInput)
	}

	var artists []string
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal([]byte(trimmed), &artists); err != nil {
			return nil, fmt.Errorf("%w: artists must be an array of strings", shared.ErrInvalidInput)
		}
	case '{':
		var req struct {
			Artists []string `json:"artists"`
		}
		if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
			return nil, fmt.Errorf("%w: artists must be an array of strings", shared.ErrInvalidInput)
		}
		artists = req.Artists
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object", shared.ErrInvalidInput)
	}

	artists = store.Dedupe(artists)
	if len(artists) == 0 {
		return nil, fmt.Errorf("%w: no artists given", shared.ErrEmptyInput)
	}
	return artists, nil
}
