package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
)

// CORSConfig lets the admin front-end, served from another origin, call the
// API and read the total count header. An empty origins list allows any origin.
func CORSConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{TotalCountHeader},
		MaxAge:        10 * time.Minute,
	}

	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cfg
}
