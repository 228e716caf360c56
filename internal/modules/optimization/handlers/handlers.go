// Package handlers provides HTTP handlers for optimization runs.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Optimizer runs optimization sessions.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.OptimizeRequest) (*optimization.Report, error)
	Defaults() optimization.Defaults
}

// Handler handles optimization HTTP requests
type Handler struct {
	optimizer Optimizer
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(optimizer Optimizer, log zerolog.Logger) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		optimizer: optimizer,
		validate:  v,
		log:       log.With().Str("handler", "optimization").Logger(),
	}
}

// RunRequest is the JSON body of a run. Start and End are YYYY-MM-DD, given
// together or not at all; omitted, they default to the lookback window.
type RunRequest struct {
	Symbols        []string `json:"symbols" validate:"required,min=3,unique,dive,required"`
	Start          string   `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End            string   `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Mode           string   `json:"mode" validate:"omitempty,oneof=max_sharpe target_return"`
	TargetReturn   *float64 `json:"target_return"`
	FrontierPoints *int     `json:"frontier_points" validate:"omitempty,gte=0,lte=500"`
	ClipFrontier   *bool    `json:"clip_frontier"`
	Samples        *int     `json:"samples" validate:"omitempty,gte=0,lte=100000"`
	Seed           *uint64  `json:"seed"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Kind   string       `json:"kind,omitempty"`
	Fields []FieldError `json:"fields,omitempty"`
}

// HandleGetDefaults handles GET /api/optimizer/
func (h *Handler) HandleGetDefaults(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"modes":    []optimization.Mode{optimization.ModeMaxSharpe, optimization.ModeTargetReturn},
		"defaults": h.optimizer.Defaults(),
	})
}

// HandleRun handles POST /api/optimizer/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	report, ok := h.run(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, report)
}

// HandleChart handles POST /api/optimizer/chart?kind=frontier|weights
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := charts.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "configuration"})
		return
	}

	report, ok := h.run(w, r)
	if !ok {
		return
	}

	img, err := charts.Render(kind, report.Result)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, charts.ErrNothingToPlot) {
			status = http.StatusUnprocessableEntity
		}
		h.log.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to render chart")
		h.writeJSON(w, r, status, ErrorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Session-ID", report.SessionID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart")
	}
}

// run decodes, validates and executes a RunRequest. It writes the error
// response itself and reports false when the run did not complete.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*optimization.Report, bool) {
	var body RunRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: "configuration"})
		return nil, false
	}

	if err := h.validate.Struct(body); err != nil {
		resp := ErrorResponse{Error: "invalid request", Kind: "configuration"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				resp.Fields = append(resp.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
		}
		h.writeJSON(w, r, http.StatusBadRequest, resp)
		return nil, false
	}

	req, err := body.toOptimizeRequest()
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	report, err := h.optimizer.Optimize(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return report, true
}

func (b RunRequest) toOptimizeRequest() (optimization.OptimizeRequest, error) {
	symbols := make([]string, len(b.Symbols))
	for i, s := range b.Symbols {
		symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	req := optimization.OptimizeRequest{
		Symbols:        symbols,
		Mode:           optimization.Mode(b.Mode),
		TargetReturn:   b.TargetReturn,
		FrontierPoints: b.FrontierPoints,
		ClipFrontier:   b.ClipFrontier,
		Samples:        b.Samples,
		Seed:           b.Seed,
	}
	if b.Start != "" || b.End != "" {
		rng, err := universe.ParseDateRange(b.Start, b.End)
		if err != nil {
			return req, err
		}
		req.Range = rng
	}
	return req, nil
}

// statusFor maps an optimization error to an HTTP status and error kind.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest, "configuration"
	case errors.Is(err, domain.ErrDegenerateInput):
		return http.StatusUnprocessableEntity, "degenerate_input"
	case errors.Is(err, domain.ErrSolver):
		return http.StatusUnprocessableEntity, "solver"
	case errors.Is(err, domain.ErrData):
		return http.StatusUnprocessableEntity, "data"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, ""
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Optimization request failed")
	} else {
		h.log.Debug().Err(err).Str("kind", kind).Msg("Optimization request rejected")
	}

	h.writeJSON(w, r, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, data)
}
