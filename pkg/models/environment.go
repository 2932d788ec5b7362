package models

import "time"

// EnvironmentSnapshot describes where and when a report was generated
type EnvironmentSnapshot struct {
	Environment string    `json:"environment"`
	Branch      string    `json:"branch"`
	RunID       string    `json:"run_id"`
	CI          bool      `json:"ci"`
	GoVersion   string    `json:"go_version"`
	OS          string    `json:"os"`
	Arch        string    `json:"arch"`
	Hostname    string    `json:"hostname,omitempty"`
	NumCPU      int       `json:"num_cpu"`
	StartedAt   time.Time `json:"started_at"`
	GeneratedAt time.Time `json:"generated_at"`
}
