package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/scheduler"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	QuickCheck(ctx context.Context) error
}

// SystemHandlers serves health, status and manual job triggers
type SystemHandlers struct {
	cacheDB   HealthChecker
	jobs      map[string]scheduler.Job
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, cacheDB *database.DB, jobs []scheduler.Job) *SystemHandlers {
	h := &SystemHandlers{
		jobs:      make(map[string]scheduler.Job, len(jobs)),
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
	if cacheDB != nil {
		h.cacheDB = cacheDB
	}
	for _, job := range jobs {
		h.jobs[job.Name()] = job
	}
	return h
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
	CPUs          int     `json:"cpus"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		Database: "not configured",
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
	}
	status := http.StatusOK

	if h.cacheDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cacheDB.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Cache database health check failed")
			resp.Status = "degraded"
			resp.Database = "error"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	h.writeJSON(w, status, resp)
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	h.writeJSON(w, http.StatusOK, SystemStatusResponse{
		Status:        "running",
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUs:          runtime.NumCPU(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		HeapAllocMB:   float64(ms.HeapAlloc) / 1024 / 1024,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleListJobs handles GET /api/jobs/
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob handles POST /api/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "unknown job " + name,
		})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")

	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": name + " completed",
	})
}

// getSystemStats returns CPU and RAM usage percentages, sampling CPU over 100ms
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
