package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"pool-attendance-backend/config"
	"pool-attendance-backend/internal/auth"
	"pool-attendance-backend/internal/ledger"
	"pool-attendance-backend/internal/pass"
	"pool-attendance-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cfg     *config.Config
	store   store.Store
	ledger  *ledger.Service
	auth    *auth.Service
	passes  *pass.Generator
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(cfg *config.Config, s store.Store, l *ledger.Service, a *auth.Service, p *pass.Generator, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   s,
		ledger:  l,
		auth:    a,
		passes:  p,
		webpush: webpushOptions,
	}
}

// respondStudentLookup maps a directory lookup error to a response.
func respondStudentLookup(c *gin.Context, err error) {
	if errors.Is(err, store.ErrStudentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
