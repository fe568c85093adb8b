package server

import (
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// qrHandler renders a PNG QR code for a room's join link, so a phone can
// scan straight into the lobby.
func (s *Server) qrHandler(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := NormalizeRoomID(p.ByName("id"))
	if err := ValidateRoomID(id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	base := s.cfg.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	png, err := qrcode.Encode(base+"/?room="+url.QueryEscape(id), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=86400")
	if _, err := w.Write(png); err != nil {
		log.Debug().Err(err).Msg("failed to write QR response")
	}
}
