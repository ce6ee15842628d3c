package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/verisearch/internal/safety"
	"github.com/mohammad-safakhou/verisearch/internal/synth"
	"github.com/mohammad-safakhou/verisearch/internal/telemetry"
	"github.com/mohammad-safakhou/verisearch/models"
)

type ResearchHandler struct {
	Answerer       Answerer
	DefaultBullets int
	Timeout        time.Duration
	Metrics        *telemetry.Metrics
}

type researchResponse struct {
	OK         bool            `json:"ok"`
	Answer     string          `json:"answer"`
	Sources    []models.Source `json:"sources"`
	Subqueries []string        `json:"subqueries"`
	Receipt    string          `json:"receipt"`
}

func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("/complete", h.complete)
}

// complete accepts {"message": string, "bullets": int|string}.
func (h *ResearchHandler) complete(c echo.Context) error {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil || body == nil {
		h.Metrics.Request("rejected")
		return safety.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	message, err := safety.AsString(body["message"], "message")
	if err != nil {
		h.Metrics.Request("rejected")
		return err
	}
	bullets := synth.ParseBulletCount(body["bullets"], h.DefaultBullets)

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	res, err := h.Answerer.Answer(ctx, message, bullets)
	if err != nil {
		var ve safety.ValidationError
		var pe safety.PolicyError
		if !errors.As(err, &ve) && !errors.As(err, &pe) {
			h.Metrics.Request("error")
		}
		return err
	}
	sources := res.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	return c.JSON(http.StatusOK, researchResponse{
		OK:         true,
		Answer:     res.Answer,
		Sources:    sources,
		Subqueries: res.Subqueries,
		Receipt:    res.Receipt,
	})
}
