package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/finhaus/cpf-forecast/internal/config"
	"github.com/finhaus/cpf-forecast/internal/cpf"
	"github.com/finhaus/cpf-forecast/internal/projection"
)

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the projection API.
func NewHandler(logger *zap.Logger, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
		if err := cfg.normalize(); err != nil {
			panic(fmt.Sprintf("failed to normalize default server config: %v", err))
		}
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxBodySize: cfg.BodySizeBytes(), version: trimmedVersion}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/projection", h.handleProjection)
		r.Get("/ratetables", h.handleRateTables)
		r.Get("/version", h.handleVersion)
	})

	return r
}

// requestLogger logs one line per completed request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("op", "server.request"),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// projectionRequest is the JSON input contract for POST /api/projection. It
// mirrors the YAML configuration file's household and projection sections.
type projectionRequest struct {
	Members []memberPayload `json:"members"`
	Incomes []incomePayload `json:"incomes"`
	Loans   []loanPayload   `json:"loans,omitempty"`

	HorizonMonths int    `json:"horizonMonths"`
	BaselineDate  string `json:"baselineDate,omitempty"`

	Policy *policyPayload `json:"policy,omitempty"`
}

type memberPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

type incomePayload struct {
	MemberID        string         `json:"memberId"`
	BaseMonthlyWage float64        `json:"baseMonthlyWage"`
	SubjectToCpf    bool           `json:"subjectToCpf"`
	AccountForBonus bool           `json:"accountForBonus"`
	Bonuses         []bonusPayload `json:"bonuses,omitempty"`
	Active          bool           `json:"active"`
}

type bonusPayload struct {
	Month      int     `json:"month"`
	Multiplier float64 `json:"multiplier"`
}

type loanPayload struct {
	Name           string  `json:"name,omitempty"`
	MonthlyAmount  float64 `json:"monthlyAmount"`
	StartMonth     int     `json:"startMonth"`
	DurationMonths int     `json:"durationMonths"`
	AttributeTo    string  `json:"attributeTo,omitempty"`
}

type policyPayload struct {
	OrdinaryWageCeiling float64 `json:"ordinaryWageCeiling,omitempty"`
	AnnualWageCeiling   float64 `json:"annualWageCeiling,omitempty"`
	TableVersion        string  `json:"tableVersion,omitempty"`
}

type projectionResponse struct {
	Projection *projection.Projection `json:"projection"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), "server.handleProjection")
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), "server.handleProjection")
		return
	}

	var req projectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), "server.handleProjection")
		return
	}

	cfg := req.configuration()
	warnings := cfg.ValidateConfiguration()

	contrib, alloc, err := cfg.Tables()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleProjection")
		return
	}

	sim, err := projection.NewSimulator(h.logger, contrib, alloc, cfg.CeilingPolicy())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to initialize simulator: %v", err), "server.handleProjection")
		return
	}

	input, err := cfg.ProjectionInput()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleProjection")
		return
	}

	result, err := sim.Project(input)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to compute projection: %v", err), "server.handleProjection")
		return
	}

	h.writeJSON(w, http.StatusOK, projectionResponse{
		Projection: result,
		Warnings:   warnings,
		Duration:   time.Since(start).String(),
	})
}

// configuration maps the request payload onto the file-based configuration
// type so both entry points share conversion and validation.
func (req *projectionRequest) configuration() *config.Configuration {
	cfg := &config.Configuration{
		Projection: config.Projection{
			HorizonMonths: req.HorizonMonths,
			BaselineDate:  req.BaselineDate,
		},
	}

	for _, m := range req.Members {
		cfg.Household.Members = append(cfg.Household.Members, config.Member{
			ID:          m.ID,
			Name:        m.Name,
			DateOfBirth: m.DateOfBirth,
		})
	}
	for _, inc := range req.Incomes {
		income := config.Income{
			MemberID:        inc.MemberID,
			BaseMonthlyWage: inc.BaseMonthlyWage,
			SubjectToCpf:    inc.SubjectToCpf,
			AccountForBonus: inc.AccountForBonus,
			Active:          inc.Active,
		}
		for _, b := range inc.Bonuses {
			income.Bonuses = append(income.Bonuses, config.Bonus{Month: b.Month, Multiplier: b.Multiplier})
		}
		cfg.Household.Incomes = append(cfg.Household.Incomes, income)
	}
	for _, loan := range req.Loans {
		cfg.Household.Loans = append(cfg.Household.Loans, config.Loan{
			Name:           loan.Name,
			MonthlyAmount:  loan.MonthlyAmount,
			StartMonth:     loan.StartMonth,
			DurationMonths: loan.DurationMonths,
			AttributeTo:    loan.AttributeTo,
		})
	}

	if req.Policy != nil {
		cfg.Policy = config.Policy{
			OrdinaryWageCeiling: req.Policy.OrdinaryWageCeiling,
			AnnualWageCeiling:   req.Policy.AnnualWageCeiling,
			TableVersion:        req.Policy.TableVersion,
		}
	}

	return cfg
}

type rateTablesResponse struct {
	Version       string            `json:"version"`
	Contributions []rateBandJSON    `json:"contributions"`
	Allocations   []allocBandJSON   `json:"allocations"`
	Ceilings      ceilingPolicyJSON `json:"ceilings"`
}

type rateBandJSON struct {
	MinAge   int    `json:"minAge"`
	MaxAge   int    `json:"maxAge"` // -1 means open-ended
	Employee string `json:"employee"`
	Employer string `json:"employer"`
}

type allocBandJSON struct {
	MinAge int    `json:"minAge"`
	MaxAge int    `json:"maxAge"`
	OA     string `json:"oa"`
	SA     string `json:"sa"`
	MA     string `json:"ma"`
}

type ceilingPolicyJSON struct {
	OrdinaryWageCeiling string `json:"ordinaryWageCeiling"`
	AnnualWageCeiling   string `json:"annualWageCeiling"`
}

func (h *handler) handleRateTables(w http.ResponseWriter, r *http.Request) {
	contrib := cpf.DefaultContributionTable()
	alloc := cpf.DefaultAllocationTable()
	policy := cpf.DefaultCeilingPolicy()

	resp := rateTablesResponse{
		Version: contrib.Version,
		Ceilings: ceilingPolicyJSON{
			OrdinaryWageCeiling: policy.OrdinaryCeiling.StringFixed(2),
			AnnualWageCeiling:   policy.AnnualCeiling.StringFixed(2),
		},
	}
	for _, band := range contrib.Bands {
		resp.Contributions = append(resp.Contributions, rateBandJSON{
			MinAge:   band.MinAge,
			MaxAge:   band.MaxAge,
			Employee: band.Employee.String(),
			Employer: band.Employer.String(),
		})
	}
	for _, band := range alloc.Bands {
		resp.Allocations = append(resp.Allocations, allocBandJSON{
			MinAge: band.MinAge,
			MaxAge: band.MaxAge,
			OA:     band.OA.String(),
			SA:     band.SA.String(),
			MA:     band.MA.String(),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("projection request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
