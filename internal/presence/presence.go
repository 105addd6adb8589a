package presence

import (
	"fmt"
	"strings"

	"dawpresence/internal/monitor"
	"dawpresence/internal/platform"
	"dawpresence/internal/settings"
)

// Undefined is shown for resource figures when no DAW is running.
const Undefined = "Undefined"

const (
	defaultLargeImage = "icon"
	defaultLargeText  = "DAWPresence"
)

// Activity is the rich-presence payload pushed to Discord.
type Activity struct {
	Details    string `json:"details"`
	State      string `json:"state"`
	LargeImage string `json:"large_image"`
	LargeText  string `json:"large_text"`
}

// Options carries the static presentation assets.
type Options struct {
	LargeImage string
	LargeText  string
}

// Compose builds the activity for a detected DAW. It has no side effects.
func Compose(status monitor.Status, s settings.Settings, opts Options) Activity {
	activity := Activity{
		Details:    details(status.ProjectName),
		State:      state(status, s),
		LargeImage: strings.TrimSpace(opts.LargeImage),
		LargeText:  strings.TrimSpace(opts.LargeText),
	}
	if activity.LargeImage == "" {
		activity.LargeImage = defaultLargeImage
	}
	if activity.LargeText == "" {
		activity.LargeText = defaultLargeText
	}
	return activity
}

func details(project string) string {
	if project == "" || project == monitor.UnknownProject {
		return "Opening an untitled project"
	}
	return "Opening project: " + project
}

func state(status monitor.Status, s settings.Settings) string {
	if s.HideSystemUsage {
		return "Using " + status.DisplayName
	}
	parts := make([]string, 0, 3)
	if !status.HideVersion && status.Version != "" && status.Version != platform.UnknownVersion {
		parts = append(parts, "v"+status.Version)
	}
	parts = append(parts, FormatCPU(status)+" CPU", FormatRAM(status)+" RAM")
	return strings.Join(parts, ", ")
}

// FormatCPU renders usage as a percentage with two decimals, or Undefined.
func FormatCPU(status monitor.Status) string {
	if !status.Running {
		return Undefined
	}
	return fmt.Sprintf("%.2f%%", status.CPUUsage)
}

// FormatRAM renders resident memory as KB, MB or GB, or Undefined.
func FormatRAM(status monitor.Status) string {
	if !status.Running {
		return Undefined
	}
	kb := status.MemoryMB * 1024
	switch {
	case kb >= 1024*1024:
		return fmt.Sprintf("%.2fGB", float64(kb)/(1024*1024))
	case kb >= 1024:
		return fmt.Sprintf("%dMB", status.MemoryMB)
	default:
		return fmt.Sprintf("%dKB", kb)
	}
}
