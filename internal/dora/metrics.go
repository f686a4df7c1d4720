package dora

import (
	"strings"
	"time"
)

// Result holds the four DORA metrics computed for one measurement window.
// All four values are always populated; degraded input resolves to the
// documented defaults instead of errors.
type Result struct {
	DeploymentFrequency  float64 `json:"deployment_frequency" yaml:"deployment_frequency"`
	LeadTimeForChanges   float64 `json:"lead_time_for_changes" yaml:"lead_time_for_changes"`
	ChangeFailureRate    float64 `json:"change_failure_rate" yaml:"change_failure_rate"`
	TimeToRestoreService float64 `json:"time_to_restore_service" yaml:"time_to_restore_service"`
}

const (
	// defaultLeadTimeHours is reported when no deployment has a usable
	// start/end pair.
	defaultLeadTimeHours = 24.0

	// defaultRestoreHours is reported when no incident has a usable
	// start/resolution pair.
	defaultRestoreHours = 4.0

	// incidentWindow is how long after a deployment an incident is still
	// attributed to it.
	incidentWindow = 24 * time.Hour
)

// Compute calculates all four DORA metrics from deployment and incident
// records. It never fails: malformed records are dropped field by field and
// empty working sets fall back to defaults.
func Compute(deployments []DeploymentRecord, incidents []IncidentRecord) Result {
	return Result{
		DeploymentFrequency:  DeploymentFrequency(deployments),
		LeadTimeForChanges:   LeadTimeForChanges(deployments),
		ChangeFailureRate:    ChangeFailureRate(deployments, incidents),
		TimeToRestoreService: TimeToRestoreService(incidents),
	}
}

// DeploymentFrequency returns deployments per day over the span between the
// earliest and latest deployment timestamps.
func DeploymentFrequency(deployments []DeploymentRecord) float64 {
	if len(deployments) == 0 {
		return 0
	}

	present := 0
	var times []time.Time
	for _, d := range deployments {
		if !hasValue(d.Timestamp) {
			continue
		}
		present++
		if t, ok := NormalizeTime(d.Timestamp); ok {
			times = append(times, t)
		}
	}
	if present == 0 {
		return 0
	}

	// With fewer than two parseable timestamps there is no span to divide
	// by, so the record count stands in for the rate.
	if len(times) < 2 {
		return float64(len(deployments))
	}

	minTime, maxTime := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(minTime) {
			minTime = t
		}
		if t.After(maxTime) {
			maxTime = t
		}
	}

	spanDays := int(maxTime.Sub(minTime).Hours() / 24)
	if spanDays == 0 {
		spanDays = 1
	}

	return float64(len(deployments)) / float64(spanDays)
}

// LeadTimeForChanges returns the mean hours between deployment start and end
// times. Deployments missing either bound, with an unparseable bound, or
// with end before start do not contribute.
func LeadTimeForChanges(deployments []DeploymentRecord) float64 {
	var leadTimes []float64

	for _, d := range deployments {
		if !hasValue(d.StartTime) || !hasValue(d.EndTime) {
			continue
		}

		start, ok := NormalizeTime(d.StartTime)
		if !ok {
			continue
		}
		end, ok := NormalizeTime(d.EndTime)
		if !ok {
			continue
		}

		hours := end.Sub(start).Hours()
		if hours >= 0 {
			leadTimes = append(leadTimes, hours)
		}
	}

	if len(leadTimes) == 0 {
		return defaultLeadTimeHours
	}
	return mean(leadTimes)
}

// failureStatuses are the deployment status values counted as failed,
// compared case-insensitively.
var failureStatuses = []string{"failed", "error", "failure"}

// ChangeFailureRate returns the percentage of deployments that count as
// failures: deployments with a failed status plus incidents that occurred
// within 24 hours after some deployment. Each incident credits at most one
// deployment (the first match), but a deployment that both failed and has a
// related incident is counted twice, and the rate is not capped at 100.
func ChangeFailureRate(deployments []DeploymentRecord, incidents []IncidentRecord) float64 {
	if len(deployments) == 0 {
		return 0
	}

	failedDeployments := 0
	for _, d := range deployments {
		status := strings.ToLower(d.Status)
		for _, f := range failureStatuses {
			if status == f {
				failedDeployments++
				break
			}
		}
	}

	relatedIncidents := 0
	for _, inc := range incidents {
		if !hasValue(inc.Timestamp) {
			continue
		}
		incidentTime, ok := NormalizeTime(inc.Timestamp)
		if !ok {
			continue
		}

		for _, d := range deployments {
			if !hasValue(d.Timestamp) {
				continue
			}
			deployTime, ok := NormalizeTime(d.Timestamp)
			if !ok {
				continue
			}

			diff := incidentTime.Sub(deployTime)
			if diff >= 0 && diff <= incidentWindow {
				relatedIncidents++
				break // one credit per incident
			}
		}
	}

	totalFailures := failedDeployments + relatedIncidents
	return float64(totalFailures) / float64(len(deployments)) * 100
}

// TimeToRestoreService returns the mean hours from incident detection to
// resolution. Detection falls back from start_time to timestamp, resolution
// from end_time to resolved_time. Negative spans are discarded.
func TimeToRestoreService(incidents []IncidentRecord) float64 {
	var recoveries []float64

	for _, inc := range incidents {
		start := firstValue(inc.StartTime, inc.Timestamp)
		end := firstValue(inc.EndTime, inc.ResolvedTime)
		if start == nil || end == nil {
			continue
		}

		startTime, ok := NormalizeTime(start)
		if !ok {
			continue
		}
		endTime, ok := NormalizeTime(end)
		if !ok {
			continue
		}

		hours := endTime.Sub(startTime).Hours()
		if hours >= 0 {
			recoveries = append(recoveries, hours)
		}
	}

	if len(recoveries) == 0 {
		return defaultRestoreHours
	}
	return mean(recoveries)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
