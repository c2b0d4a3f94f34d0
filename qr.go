package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/life4today/life4today/game"
)

// serveJoinQR renders a PNG QR code for joining the game, so a host can put
// the code on a screen instead of dictating the game ID.
func serveJoinQR(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		gameID := p.ByName("gameid")

		if _, err := repo.Get(gameID); err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		// Respect TLS termination at a proxy.
		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "?game=" + gameID

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			respondFailure(cfg, w, http.StatusInternalServerError, "QR generation failed")

			return
		}

		securityHeaders(cfg, w)
		w.Header().Set("Content-Type", "image/png")

		_, _ = w.Write(png)
	}
}
