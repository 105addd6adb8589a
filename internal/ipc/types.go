package ipc

import (
	"time"

	"dawpresence/internal/notifications"
)

// ServiceName is the RPC receiver name registered by the server.
const ServiceName = "DAWPresence"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and presence status.
type StatusResponse struct {
	Running        bool             `json:"running"`
	PID            int              `json:"pid"`
	StartedAt      time.Time        `json:"started_at"`
	DawName        string           `json:"daw_name"`
	ProjectName    string           `json:"project_name"`
	CPUUsage       string           `json:"cpu_usage"`
	RAMUsage       string           `json:"ram_usage"`
	Version        string           `json:"version,omitempty"`
	Message        string           `json:"message"`
	Connected      bool             `json:"connected"`
	ClientID       string           `json:"client_id,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Settings       SettingsResponse `json:"settings"`
	CatalogEntries int              `json:"catalog_entries"`
	LockPath       string           `json:"lock_path"`
	LogPath        string           `json:"log_path"`
}

// SettingsRequest fetches the current settings.
type SettingsRequest struct{}

// SettingsResponse mirrors the persisted user settings.
type SettingsResponse struct {
	HideProjectName  bool  `json:"hide_project_name"`
	HideSystemUsage  bool  `json:"hide_system_usage"`
	UpdateIntervalMS int64 `json:"update_interval_ms"`
}

// SetUpdateIntervalRequest changes the polling interval.
type SetUpdateIntervalRequest struct {
	IntervalMS int64 `json:"interval_ms"`
}

// SetHideRequest sets one of the hide toggles.
type SetHideRequest struct {
	Hide bool `json:"hide"`
}

// EventsRequest reads notifications after a cursor.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"wait_millis"`
}

// Event is the wire form of a notification.
type Event struct {
	Sequence    uint64    `json:"seq"`
	Timestamp   time.Time `json:"ts"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	DawName     string    `json:"daw_name,omitempty"`
	ProjectName string    `json:"project_name,omitempty"`
	Connected   bool      `json:"connected"`
}

// EventsResponse carries events and the cursor for the next request.
type EventsResponse struct {
	Events []Event `json:"events"`
	Next   uint64  `json:"next"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

func convertEvents(events []notifications.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		out = append(out, Event{
			Sequence:    evt.Sequence,
			Timestamp:   evt.Timestamp,
			Kind:        string(evt.Kind),
			Message:     evt.Message,
			DawName:     evt.DawName,
			ProjectName: evt.ProjectName,
			Connected:   evt.Connected,
		})
	}
	return out
}
