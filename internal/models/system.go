package models

import "time"

// SystemMetrics is a lightweight snapshot of process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	StoreFlushes             uint64    `json:"storeFlushes"`
	StoreFlushFailures       uint64    `json:"storeFlushFailures"`
	AverageFlushDurationMs   float64   `json:"averageFlushDurationMs"`
	AccountLockouts          uint64    `json:"accountLockouts"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// HealthStatus is returned by the health and readiness endpoints.
type HealthStatus struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment,omitempty"`
	Uptime      string            `json:"uptime,omitempty"`
	Checks      map[string]string `json:"checks,omitempty"`
	Metrics     *SystemMetrics    `json:"metrics,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}
