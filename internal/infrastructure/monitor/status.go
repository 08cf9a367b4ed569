package monitor

import "time"

type Status struct {
	RemoteEnabled bool      `json:"remote_enabled"`
	PostgreSQL    bool      `json:"postgresql"`
	Redis         bool      `json:"redis"`
	Local         bool      `json:"local"`
	LocalSize     int       `json:"local_size"`
	LastCheck     time.Time `json:"last_check"`
}

// Healthy reports whether every configured dependency answered the last check.
func (s Status) Healthy() bool {
	if !s.Local {
		return false
	}
	if s.RemoteEnabled {
		return s.PostgreSQL && s.Redis
	}
	return true
}
