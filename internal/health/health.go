// Package health holds the pure evaluators that derive a device's
// connectivity status and health score from its heartbeat and alert load.
//
// Two classification policies coexist on purpose: LiveStatus (seconds-tiered,
// drives the operational dashboard) and ReportCategory (minutes-tiered,
// drives the health report). They are tuned for different audiences and must
// not be merged.
package health

import "time"

// Connectivity status values.
const (
	StatusOK       = "OK"
	StatusWarning  = "WARNING"
	StatusCritical = "CRITICAL"
)

// Health report categories.
const (
	CategoryHealthy  = "healthy"
	CategoryWarning  = "warning"
	CategoryCritical = "critical"
	CategoryOffline  = "offline"
)

// StatusInfo is the result of the live connectivity classification.
type StatusInfo struct {
	Status        string `json:"status"`
	Message       string `json:"status_message"`
	TimeSinceSeen *int   `json:"time_since_seen"`
}

// LiveStatus classifies a device's connectivity from the age of its last
// heartbeat, in seconds: never seen is CRITICAL, up to 2 minutes is OK,
// up to 10 minutes is WARNING, beyond that CRITICAL.
func LiveStatus(lastSeen *time.Time, now time.Time) StatusInfo {
	if lastSeen == nil {
		return StatusInfo{Status: StatusCritical, Message: "Never seen"}
	}

	elapsed := int(now.Sub(*lastSeen).Seconds())
	info := StatusInfo{TimeSinceSeen: &elapsed}

	switch {
	case elapsed <= 120:
		info.Status = StatusOK
		info.Message = "Online"
	case elapsed <= 600:
		info.Status = StatusWarning
		info.Message = "Delayed"
	default:
		info.Status = StatusCritical
		info.Message = "Offline"
	}
	return info
}

// ReportCategory buckets a device for the health report using minute-grained
// thresholds, returning the category name and its fixed score.
func ReportCategory(lastSeen *time.Time, now time.Time) (string, int) {
	if lastSeen == nil {
		return CategoryOffline, 0
	}

	minutes := now.Sub(*lastSeen).Minutes()
	switch {
	case minutes <= 1:
		return CategoryHealthy, 100
	case minutes <= 3:
		return CategoryWarning, 70
	case minutes <= 5:
		return CategoryCritical, 40
	default:
		return CategoryOffline, 0
	}
}

// Score computes the 0-100 health score: each active alert costs 10 points
// and a device that has never reported costs a further 20. The score floors
// at zero and is independent of the connectivity tiering above.
func Score(lastSeen *time.Time, activeAlerts int) int {
	score := 100 - activeAlerts*10
	if lastSeen == nil {
		score -= 20
	}
	if score < 0 {
		return 0
	}
	return score
}
