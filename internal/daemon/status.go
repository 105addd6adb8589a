package daemon

import (
	"time"

	"dawpresence/internal/monitor"
	"dawpresence/internal/presence"
)

const (
	idleMessage      = "Open a DAW to begin displaying RPC"
	connectedMessage = "Connected to Discord"
)

// PublishedStatus is what the presentation layer displays.
type PublishedStatus struct {
	DawName     string    `json:"daw_name"`
	ProjectName string    `json:"project_name"`
	CPUUsage    string    `json:"cpu_usage"`
	RAMUsage    string    `json:"ram_usage"`
	Connected   bool      `json:"connected"`
	Message     string    `json:"message"`
	PID         int32     `json:"pid,omitempty"`
	Version     string    `json:"version,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultStatus is the "no DAW running" status.
func DefaultStatus() PublishedStatus {
	return PublishedStatus{
		DawName:     monitor.UnknownProject,
		ProjectName: monitor.UnknownProject,
		CPUUsage:    presence.Undefined,
		RAMUsage:    presence.Undefined,
		Message:     idleMessage,
	}
}

func runningStatus(status monitor.Status, err error, now time.Time) PublishedStatus {
	published := PublishedStatus{
		DawName:     status.DisplayName,
		ProjectName: status.ProjectName,
		CPUUsage:    presence.FormatCPU(status),
		RAMUsage:    presence.FormatRAM(status),
		Connected:   err == nil,
		Message:     connectedMessage,
		PID:         status.PID,
		Version:     status.Version,
		UpdatedAt:   now,
	}
	if err != nil {
		published.Message = "Connection failed: " + err.Error()
	}
	return published
}
