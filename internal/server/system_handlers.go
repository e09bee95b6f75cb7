package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/database"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/vectorstore"
)

// SystemHandlers serves system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	configDB    *database.DB
	portfolioDB *database.DB
	historyDB   *database.DB
	store       *vectorstore.Store
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	configDB, portfolioDB, historyDB *database.DB,
	store *vectorstore.Store,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		configDB:    configDB,
		portfolioDB: portfolioDB,
		historyDB:   historyDB,
		store:       store,
	}
}

// SystemHealthResponse is the GET /api/system/health body
type SystemHealthResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	Databases     map[string]string `json:"databases"`
	VectorStore   int               `json:"vector_store_documents"`
	Timestamp     string            `json:"timestamp"`
}

// HandleSystemHealth handles GET /api/system/health
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	ctx := r.Context()
	status := "ok"
	databases := map[string]string{
		"config":    h.dbStatus(ctx, h.configDB),
		"portfolio": h.dbStatus(ctx, h.portfolioDB),
		"history":   h.dbStatus(ctx, h.historyDB),
	}
	for _, st := range databases {
		if st != "ok" {
			status = "degraded"
		}
	}

	resp := SystemHealthResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		Databases:     databases,
		VectorStore:   h.store.Count(),
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// systemStats samples CPU and memory usage. The 100ms CPU window keeps the
// endpoint fast enough for dashboard polling.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// dbStatus pings one database
func (h *SystemHandlers) dbStatus(ctx context.Context, db *database.DB) string {
	if db == nil {
		return "not configured"
	}
	if err := db.QuickCheck(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
