// Package api provides the HTTP API for watching and steering a running pub.
// GET endpoints are public (read-only observation).
// POST and DELETE endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talgya/pubsim/internal/chaos"
	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/persistence"
	"github.com/talgya/pubsim/internal/staff"
)

// Server serves the simulation over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB // Optional run journal
	RunID    string
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	// AdminRate caps admin requests per client per minute. Zero uses 120.
	AdminRate int

	mux *chi.Mux
}

// Handler builds the router. It is safe to call once per Server.
func (s *Server) Handler() http.Handler {
	if s.mux != nil {
		return s.mux
	}
	rate := s.AdminRate
	if rate <= 0 {
		rate = 120
	}
	limiter := NewRateLimiter(rate, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints.
		r.Get("/status", s.handleStatus)
		r.Get("/report", s.handleReport)
		r.Get("/reports", s.handleReports)
		r.Get("/events", s.handleEvents)
		r.Get("/credit", s.handleCredit)
		r.Get("/stock", s.handleStock)
		r.Get("/staff", s.handleStaff)
		r.Get("/punters", s.handlePunters)

		// Admin endpoints.
		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Use(RateLimitMiddleware(limiter))

			r.Post("/speed", s.handleSpeed)
			r.Post("/night/close", s.handleCloseNight)
			r.Post("/stock/wine", s.handleBuyWine)
			r.Post("/stock/food", s.handleBuyFood)
			r.Post("/suppliers/{supplier}/pay", s.handlePaySupplier)
			r.Post("/credit/lines", s.handleOpenLine)
			r.Post("/credit/shark", s.handleOpenShark)
			r.Post("/credit/lines/{id}/pay", s.handlePayLine)
			r.Post("/credit/lines/{id}/repay", s.handleRepayLine)
			r.Post("/credit/lines/{id}/enabled", s.handleSetLineEnabled)
			r.Post("/staff", s.handleHire)
			r.Delete("/staff/{id}", s.handleFire)
			r.Post("/price", s.handlePrice)
			r.Post("/upgrades", s.handleBuyUpgrade)
			r.Post("/activities", s.handleScheduleActivity)
			r.Post("/security/upgrade", s.handleUpgradeSecurity)
			r.Post("/bouncers", s.handleHireBouncer)
		})
	})

	s.mux = r
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no PUBSIM_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return sign + "£" + humanize.FormatFloat("#,###.##", v)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var status map[string]any
	s.Eng.Do(func(sim *engine.Simulation) {
		status = map[string]any{
			"name":         sim.PubName,
			"seed":         sim.Seed,
			"sim_time":     engine.SimTime(sim),
			"week":         sim.Week,
			"day":          sim.DayIndex,
			"round":        sim.Round,
			"open":         sim.NightOpen,
			"speed":        s.Eng.Speed,
			"steps":        s.Eng.Steps,
			"cash":         sim.Cash,
			"cash_display": money(sim.Cash),
			"debt":         sim.TotalDebt(),
			"debt_display": money(sim.TotalDebt()),
			"reputation":   sim.Reputation,
			"chaos":        sim.Chaos,
			"chaos_label":  chaos.Label(sim.Chaos),
			"identity":     sim.Identity.Current.String(),
			"seasons":      sim.ActiveSeasons(),
			"district":     sim.Market.Summary(),
			"pub_level":    sim.PubLevel,
			"credit_score": sim.Credit.Score,
			"in_bar":       len(sim.Crowd.InBar()),
			"staff":        sim.Staff.Count(),
			"game_over":    sim.GameOver,
			"reason":       sim.GameOverReason,
		}
	})
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	var out map[string]any
	s.Eng.Do(func(sim *engine.Simulation) {
		out = map[string]any{
			"current":     sim.Report(),
			"last_week":   sim.LastWeek,
			"last_report": sim.LastReport,
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReports(w http.ResponseWriter, _ *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "journal not available")
		return
	}
	rows, err := s.DB.Reports(s.RunID)
	if err != nil {
		slog.Error("load reports failed", "error", err)
		writeError(w, http.StatusInternalServerError, "load reports failed")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	if s.DB != nil {
		rows, err := s.DB.RecentEvents(s.RunID, limit)
		if err != nil {
			slog.Error("load events failed", "error", err)
			writeError(w, http.StatusInternalServerError, "load events failed")
			return
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}

	// Without a journal, serve whatever the log still holds.
	var out []map[string]any
	s.Eng.Do(func(sim *engine.Simulation) {
		recs := sim.Log.Records()
		start := max(0, len(recs)-limit)
		for i := len(recs) - 1; i >= start; i-- {
			rec := recs[i]
			out = append(out, map[string]any{
				"week": rec.Week, "day": rec.Day, "round": rec.Round,
				"kind": rec.Kind.String(), "category": rec.Category,
				"title": rec.Title, "text": rec.Text,
			})
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCredit(w http.ResponseWriter, _ *http.Request) {
	var out map[string]any
	s.Eng.Do(func(sim *engine.Simulation) {
		out = map[string]any{
			"score":        sim.Credit.Score,
			"trust":        sim.Credit.Trust().String(),
			"lines":        sim.Credit.Lines,
			"total":        sim.Credit.TotalBalance(),
			"limit":        sim.Credit.TotalLimit(),
			"utilization":  sim.Credit.Utilization(),
			"weekly_due":   sim.Credit.WeeklyDue(),
			"supplier_cap": sim.Credit.SupplierCap(sim.PubLevel),
			"wine":         sim.Credit.Wine,
			"food":         sim.Credit.Food,
			"informal":     sim.Debt,
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStock(w http.ResponseWriter, _ *http.Request) {
	var out map[string]any
	s.Eng.Do(func(sim *engine.Simulation) {
		out = map[string]any{
			"wine":            sim.Wine.Counts(),
			"wine_capacity":   sim.Wine.Capacity,
			"food":            sim.Food.Counts(),
			"food_capacity":   sim.Food.Capacity,
			"wine_deliveries": sim.WineDeliveries,
			"food_deliveries": sim.FoodDeliveries,
			"deal":            sim.Deal,
			"price":           sim.PriceMultiplier,
			"happy_hour":      sim.HappyHour,
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStaff(w http.ResponseWriter, _ *http.Request) {
	type memberSummary struct {
		ID     staff.ID `json:"id"`
		Name   string   `json:"name"`
		Role   string   `json:"role"`
		Key    string   `json:"key"`
		Level  int      `json:"level"`
		Morale int      `json:"morale"`
		Wage   float64  `json:"weekly_wage"`
	}

	var out []memberSummary
	var morale float64
	s.Eng.Do(func(sim *engine.Simulation) {
		for _, m := range sim.Staff.Members {
			out = append(out, memberSummary{
				ID: m.ID, Name: m.Name, Role: m.Role.String(), Key: m.Role.Key(),
				Level: m.Level, Morale: m.Morale, Wage: m.WeeklyWage,
			})
		}
		morale = sim.Staff.TeamMorale()
	})
	writeJSON(w, http.StatusOK, map[string]any{"members": out, "team_morale": morale})
}

func (s *Server) handlePunters(w http.ResponseWriter, _ *http.Request) {
	type punterSummary struct {
		Name   string `json:"name"`
		Age    int    `json:"age"`
		Tier   string `json:"tier"`
		Mood   string `json:"mood"`
		Drinks int    `json:"drinks"`
	}

	var out []punterSummary
	moods := map[string]int{}
	s.Eng.Do(func(sim *engine.Simulation) {
		for _, p := range sim.Crowd.InBar() {
			out = append(out, punterSummary{
				Name: p.Name, Age: p.Age, Tier: p.Tier.String(), Mood: p.Mood.String(), Drinks: p.DrinksBought,
			})
			moods[p.Mood.String()]++
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "moods": moods, "punters": out})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		writeError(w, http.StatusBadRequest, "speed must be 0-1000")
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, http.StatusOK, map[string]float64{"speed": req.Speed})
}

func (s *Server) handleCloseNight(w http.ResponseWriter, _ *http.Request) {
	var closed bool
	s.Eng.Do(func(sim *engine.Simulation) {
		closed = sim.CloseNight(engine.ReasonLandlordDecided)
	})
	if !closed {
		writeError(w, http.StatusConflict, engine.ErrNightClosed.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"closed": true})
}

type orderRequest struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

func (s *Server) handleBuyWine(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.BuyWine(req.Name, req.Qty) })
}

func (s *Server) handleBuyFood(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.BuyFood(req.Name, req.Qty) })
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
	Source string  `json:"source,omitempty"` // Defaults to cash
}

func (p paymentRequest) source() string {
	if p.Source == "" {
		return credit.SourceCash
	}
	return p.Source
}

func (s *Server) handlePaySupplier(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sup := engine.Supplier(chi.URLParam(r, "supplier"))
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.PaySupplier(sup, req.Amount, req.source()) })
}

func (s *Server) handleOpenLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bank string `json:"bank"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	bank, ok := parseBank(req.Bank)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown bank %q", req.Bank))
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.OpenCreditLine(bank) })
}

func parseBank(name string) (credit.Bank, bool) {
	for _, b := range credit.Banks() {
		if strings.EqualFold(b.String(), name) {
			return b, true
		}
	}
	return 0, false
}

func (s *Server) handleOpenShark(w http.ResponseWriter, _ *http.Request) {
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.OpenShark() })
}

func (s *Server) handlePayLine(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.PayLine(id, req.Amount, req.source()) })
}

func (s *Server) handleRepayLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.RepayLine(id) })
}

func (s *Server) handleSetLineEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return map[string]any{"id": id, "enabled": req.Enabled}, sim.SetLineEnabled(id, req.Enabled)
	})
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	role, ok := staff.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown role %q", req.Role))
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) { return sim.Hire(role) })
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff id")
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return map[string]any{"fired": id}, sim.Fire(staff.ID(id))
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Multiplier *float64 `json:"multiplier,omitempty"`
		HappyHour  *bool    `json:"happy_hour,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		if req.Multiplier != nil {
			if err := sim.SetPrice(*req.Multiplier); err != nil {
				return nil, err
			}
		}
		if req.HappyHour != nil {
			sim.SetHappyHour(*req.HappyHour)
		}
		return map[string]any{"multiplier": sim.PriceMultiplier, "happy_hour": sim.HappyHour}, nil
	})
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		return map[string]any{"installs": sim.Installs}, sim.BuyUpgrade(engine.UpgradeID(req.ID))
	})
}

func (s *Server) handleScheduleActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.act(w, func(sim *engine.Simulation) (any, error) {
		err := sim.ScheduleActivity(engine.ActivityID(req.ID))
		return map[string]any{"scheduled": sim.Scheduled}, err
	})
}

func (s *Server) handleUpgradeSecurity(w http.ResponseWriter, _ *http.Request) {
	s.act(w, func(sim *engine.Simulation) (any, error) {
		err := sim.UpgradeSecurity()
		return map[string]any{"level": sim.BaseSecurityLevel}, err
	})
}

func (s *Server) handleHireBouncer(w http.ResponseWriter, _ *http.Request) {
	s.act(w, func(sim *engine.Simulation) (any, error) {
		q, err := sim.HireBouncer()
		return map[string]any{"quality": q.String(), "hired": sim.Bouncers.Hired}, err
	})
}

// act runs a player action under the engine lock. Rule refusals map to 409.
func (s *Server) act(w http.ResponseWriter, fn func(sim *engine.Simulation) (any, error)) {
	var (
		out any
		err error
	)
	s.Eng.Do(func(sim *engine.Simulation) { out, err = fn(sim) })

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case engine.IsRuleError(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("admin action failed", "error", err)
		writeError(w, http.StatusInternalServerError, "action failed")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
