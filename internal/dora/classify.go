package dora

// Tier is one of the four DORA performance bands.
type Tier string

const (
	TierElite  Tier = "Elite"
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// Classification maps each metric to its performance tier.
type Classification struct {
	DeploymentFrequency  Tier `json:"deployment_frequency" yaml:"deployment_frequency"`
	LeadTimeForChanges   Tier `json:"lead_time_for_changes" yaml:"lead_time_for_changes"`
	ChangeFailureRate    Tier `json:"change_failure_rate" yaml:"change_failure_rate"`
	TimeToRestoreService Tier `json:"time_to_restore_service" yaml:"time_to_restore_service"`
}

// Classify grades a result against the industry-standard DORA bands. Each
// metric is checked Elite first, then High, then Medium; anything else is
// Low. The bands do not overlap.
func Classify(r Result) Classification {
	return Classification{
		DeploymentFrequency:  classifyFrequency(r.DeploymentFrequency),
		LeadTimeForChanges:   classifyLeadTime(r.LeadTimeForChanges),
		ChangeFailureRate:    classifyFailureRate(r.ChangeFailureRate),
		TimeToRestoreService: classifyRestoreTime(r.TimeToRestoreService),
	}
}

// classifyFrequency grades deployments per day: at least daily is Elite,
// roughly weekly is High, roughly monthly is Medium.
func classifyFrequency(perDay float64) Tier {
	switch {
	case perDay >= 1:
		return TierElite
	case perDay >= 0.14:
		return TierHigh
	case perDay >= 0.033:
		return TierMedium
	default:
		return TierLow
	}
}

// classifyLeadTime grades lead time in hours: under a day, a week, a month.
func classifyLeadTime(hours float64) Tier {
	switch {
	case hours <= 24:
		return TierElite
	case hours <= 168:
		return TierHigh
	case hours <= 720:
		return TierMedium
	default:
		return TierLow
	}
}

func classifyFailureRate(percent float64) Tier {
	switch {
	case percent <= 15:
		return TierElite
	case percent <= 30:
		return TierHigh
	case percent <= 45:
		return TierMedium
	default:
		return TierLow
	}
}

// classifyRestoreTime grades recovery in hours: under an hour, a day, a week.
func classifyRestoreTime(hours float64) Tier {
	switch {
	case hours <= 1:
		return TierElite
	case hours <= 24:
		return TierHigh
	case hours <= 168:
		return TierMedium
	default:
		return TierLow
	}
}
