package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"themeforge/internal/sitefetch"
	"themeforge/internal/themestore"
	"themeforge/theme"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an RFC 7807 problem detail response.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}

// ExtractRequest is the body of POST /api/v1/themes/extract.
type ExtractRequest struct {
	URL      string `json:"url"`
	RenderJS bool   `json:"renderJs,omitempty"`
}

// ThemeResponse is the JSON shape for stored themes.
type ThemeResponse struct {
	Site        string      `json:"site"`
	Theme       theme.Theme `json:"theme"`
	FetchedVia  string      `json:"fetchedVia,omitempty"`
	ExtractedAt time.Time   `json:"extractedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func toResponse(rec themestore.Record) ThemeResponse {
	return ThemeResponse{
		Site:        rec.Site,
		Theme:       rec.Theme,
		ExtractedAt: rec.ExtractedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if _, err := sitefetch.NormalizePageURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.fetcher.Fetch(r.Context(), req.URL, sitefetch.Options{RenderJS: req.RenderJS})
	if err != nil {
		themeExtractionsTotal.WithLabelValues("fetch_error").Inc()
		s.logger.Error("site fetch failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusBadGateway, "site fetch failed: "+err.Error())
		return
	}

	site := siteKey(snap.URL)
	if site == "" {
		writeError(w, http.StatusBadRequest, "cannot derive a site key from "+snap.URL)
		return
	}

	th := theme.Extract(snap.HTML, snap.CSSTexts)
	th.SiteCSSURLs = snap.CSSURLs
	th = th.ResolveAssetURLs(snap.URL)
	s.fetcher.RefineAccents(r.Context(), &th)
	if ov := s.overrides.Find(site); ov != nil {
		ov.apply(&th)
		s.logger.Debug("site override applied", zap.String("site", site))
	}

	now := s.clock().UTC()
	rec := themestore.Record{Site: site, Theme: th, ExtractedAt: now, UpdatedAt: now}
	if s.store != nil {
		if err := s.store.Save(r.Context(), rec); err != nil {
			themeExtractionsTotal.WithLabelValues("save_error").Inc()
			s.logger.Error("save theme failed", zap.String("site", site), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "save theme: "+err.Error())
			return
		}
	}
	s.cache.put(site, rec)
	themeExtractionsTotal.WithLabelValues("ok").Inc()

	s.logger.Info("theme extracted",
		zap.String("site", site),
		zap.String("via", snap.FetchedVia),
		zap.String("primary", th.PrimaryColor),
		zap.Bool("dark", th.IsDark),
	)

	resp := toResponse(rec)
	resp.FetchedVia = snap.FetchedVia
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	site := themestore.CanonicalSite(r.PathValue("site"))
	if site == "" {
		writeError(w, http.StatusBadRequest, "site is required")
		return
	}
	rec, err := s.lookup(r, site)
	if err != nil {
		if errors.Is(err, themestore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no theme stored for "+site)
			return
		}
		s.logger.Error("load theme failed", zap.String("site", site), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load theme: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rec))
}

func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request) {
	site := themestore.CanonicalSite(r.PathValue("site"))
	if site == "" {
		writeError(w, http.StatusBadRequest, "site is required")
		return
	}
	rec, err := s.lookup(r, site)
	if err != nil {
		if errors.Is(err, themestore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no theme stored for "+site)
			return
		}
		s.logger.Error("load theme failed", zap.String("site", site), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load theme: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(":root {\n"))
	_, _ = w.Write([]byte(rec.Theme.StyleVariables()))
	_, _ = w.Write([]byte("}\n"))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	site := themestore.CanonicalSite(r.PathValue("site"))
	if site == "" {
		writeError(w, http.StatusBadRequest, "site is required")
		return
	}
	cached := s.cache.drop(site)

	if s.store == nil {
		if !cached {
			writeError(w, http.StatusNotFound, "no theme stored for "+site)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.store.Delete(r.Context(), site); err != nil {
		if errors.Is(err, themestore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no theme stored for "+site)
			return
		}
		s.logger.Error("delete theme failed", zap.String("site", site), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete theme: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []ThemeResponse{})
		return
	}
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list themes failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list themes: "+err.Error())
		return
	}
	out := make([]ThemeResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// lookup serves a record from the cache, falling back to the store and
// repopulating the cache on a hit.
func (s *Server) lookup(r *http.Request, site string) (themestore.Record, error) {
	if rec, ok := s.cache.get(site); ok {
		return rec, nil
	}
	if s.store == nil {
		return themestore.Record{}, themestore.ErrNotFound
	}
	rec, err := s.store.Get(r.Context(), site)
	if err != nil {
		return themestore.Record{}, err
	}
	s.cache.put(site, rec)
	return rec, nil
}

// siteKey derives the canonical storage key from a page URL.
func siteKey(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return themestore.CanonicalSite(u.Hostname())
}
