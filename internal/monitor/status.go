package monitor

const (
	// UnknownProject is reported when no project name can be recovered.
	UnknownProject = "None"
	// HiddenProject replaces the project name when the user hides it.
	HiddenProject = "(hidden)"
)

// Status describes one detected DAW process.
type Status struct {
	Running     bool    `json:"running"`
	DisplayName string  `json:"display_name"`
	ProjectName string  `json:"project_name"`
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryMB    uint64  `json:"memory_mb"`
	Version     string  `json:"version"`
	PID         int32   `json:"pid"`
	ClientID    string  `json:"client_id"`
	HideVersion bool    `json:"hide_version"`
}

// IdentityKey distinguishes "a different DAW or project" from "the same one
// with new resource numbers".
func (s Status) IdentityKey() string {
	return s.DisplayName + "|" + s.ProjectName + "|" + s.ClientID
}
