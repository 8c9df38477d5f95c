package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// HealthResponse defines the structure for consistent JSON ordering.
type HealthResponse struct {
	Status        string                 `json:"status"`
	LastUpdate    string                 `json:"last_update"`
	DataAgeHours  float64                `json:"data_age_hours"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	UptimeHuman   string                 `json:"uptime_human"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// HealthCheck returns server health information. Health degrades when the
// registry data is older than a day and turns unhealthy when no data is
// loaded at all.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.dataStore.GetServerStartTime())

	products := h.dataStore.GetProducts()
	sources := h.dataStore.GetSources()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	dataAge := time.Since(lastUpdate)

	var healthStatus string
	var httpStatus int
	switch {
	case len(products) == 0:
		healthStatus = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case dataAge > 24*time.Hour:
		healthStatus = "degraded"
		httpStatus = http.StatusOK
	default:
		healthStatus = "healthy"
		httpStatus = http.StatusOK
	}

	counts := make(map[string]interface{}, len(sources))
	for _, source := range sources {
		counts[source] = len(h.dataStore.GetProductsBySource(source))
	}

	response := HealthResponse{
		Status:        healthStatus,
		LastUpdate:    lastUpdate.Format(time.RFC3339),
		DataAgeHours:  dataAge.Hours(),
		UptimeSeconds: uptime.Seconds(),
		UptimeHuman:   formatUptimeHuman(uptime),
		Data: map[string]interface{}{
			"api_version": "1.0",
			"products":    len(products),
			"sources":     counts,
			"is_updating": isUpdating,
			"next_update": calculateNextUpdate().Format(time.RFC3339),
		},
		System: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	RespondWithJSON(w, httpStatus, response)
}

// formatUptimeHuman formats duration into a human-readable string.
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// calculateNextUpdate returns the next scheduled registry refresh, daily at
// 05:30 local time.
func calculateNextUpdate() time.Time {
	now := time.Now()

	next := time.Date(now.Year(), now.Month(), now.Day(), 5, 30, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
