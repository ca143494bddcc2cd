package server

import (
	"crypto/subtle"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"

	"github.com/go-chi/chi/v5"

	"enrichd/internal/ledger"
	"enrichd/internal/mediaserver"
	"enrichd/internal/reconcile"
)

var oidPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{2,63}$`)

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if secret := s.cfg.Server.WebhookSecret; secret != "" {
		provided := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var notification reconcile.Notification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if notification.EnrichmentID == "" {
		http.Error(w, "missing enrichment id", http.StatusBadRequest)
		return
	}

	if err := s.notifications.HandleNotification(r.Context(), notification); err != nil {
		s.logger.Error("webhook processing failed",
			"request_id", RequestID(r.Context()),
			"enrichment_id", notification.EnrichmentID,
			"error", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "oid")
	if !oidPattern.MatchString(oid) {
		http.Error(w, "invalid oid", http.StatusBadRequest)
		return
	}

	downloadURL, err := s.resolver.BestResourceURL(r.Context(), oid)
	if err != nil {
		switch {
		case errors.Is(err, mediaserver.ErrNoResource):
			// Permanently unenrichable: nothing downloadable exists.
			if setErr := s.store.SetStatus(r.Context(), oid, ledger.StatusNotDownloadable); setErr != nil && !errors.Is(setErr, ledger.ErrNotFound) {
				s.logger.Error("mark not downloadable failed", "oid", oid, "error", setErr)
			}
			http.Error(w, "no downloadable resource", http.StatusNotFound)
		default:
			s.logger.Error("resource resolution failed", "oid", oid, "error", err)
			http.Error(w, "media platform unavailable", http.StatusBadGateway)
		}
		return
	}

	resp, err := s.streamer.StreamResource(r.Context(), downloadURL)
	if err != nil {
		s.logger.Error("resource fetch failed", "oid", oid, "error", err)
		http.Error(w, "media platform unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		w.Header().Set("Content-Length", contentLength)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(downloadURL, oid)))

	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("export stream interrupted", "oid", oid, "error", err)
	}
}

// exportFileName derives the attachment name from the resolved URL path.
func exportFileName(downloadURL, oid string) string {
	parsed, err := url.Parse(downloadURL)
	if err != nil || path.Base(parsed.Path) == "/" || path.Base(parsed.Path) == "." {
		return oid
	}
	return path.Base(parsed.Path)
}

func (s *Server) handlePortalRedirect(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "oid")

	row, err := s.store.Get(r.Context(), oid)
	if errors.Is(err, ledger.ErrNotFound) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "no enrichment request found for %s\n", oid)
		return
	}
	if err != nil {
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, s.portal.PortalURL(row.EnrichmentID), http.StatusFound)
}

func (s *Server) handleRequestsCSV(w http.ResponseWriter, r *http.Request) {
	user := s.cfg.Server.CSVUser
	password := s.cfg.Server.CSVPassword
	if user == "" {
		http.NotFound(w, r)
		return
	}

	basicAuth(user, password, func(w http.ResponseWriter, r *http.Request) {
		rows, err := s.store.ListByStatus(r.Context(), ledger.StatusSuccess)
		if err != nil {
			http.Error(w, "listing failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="requests.csv"`)

		writer := csv.NewWriter(w)
		_ = writer.Write([]string{"name", "oid", "enrichment_id", "parent_oid", "portal_link"})
		for _, row := range rows {
			_ = writer.Write([]string{
				row.Name,
				row.OID,
				row.EnrichmentID,
				row.ParentOID,
				s.portal.PortalURL(row.EnrichmentID),
			})
		}
		writer.Flush()
	})(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
