// Package monitor detects which cataloged DAW is running and gathers its
// project name, version and resource usage.
//
// Each Scan enumerates the process table exactly once via gopsutil. Catalog
// order decides between several running DAWs. CPU usage is the share of all
// logical cores consumed since the previous scan of the same process.
package monitor
