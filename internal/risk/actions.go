package risk

// Per-level action playbooks. The lists are ordered by urgency and returned
// as-is; callers append the conditional extras below but never reorder.
var levelActions = map[Level][]string{
	LevelCritical: {
		"IMMEDIATE: Contact emergency services (911)",
		"Alert vehicle owner with emergency notification",
		"Activate vehicle horn and lights",
		"If possible, remotely activate climate control",
		"Dispatch security/law enforcement to location",
	},
	LevelHigh: {
		"URGENT: Send emergency alert to vehicle owner",
		"Activate vehicle alarm system",
		"Send notification to backup contacts",
		"Monitor vital signs continuously",
		"Prepare emergency services dispatch",
	},
	LevelModerate: {
		"WARNING: Send alert to vehicle owner",
		"Check if this is a false positive",
		"Monitor situation for 5 minutes",
		"Alert backup contact",
		"Record all sensor data for analysis",
	},
	LevelLow: {
		"NOTIFICATION: Send informational alert",
		"Monitor for changes",
		"Check environmental conditions",
		"Update risk assessment in 2 minutes",
	},
	LevelSafe: {
		"Continue routine monitoring",
		"Log normal conditions",
		"Update dashboard status",
	},
}

// recommendedActions returns the playbook for the level plus the
// context-conditional extras.
func recommendedActions(level Level, in Input) []string {
	base := levelActions[level]
	actions := make([]string, len(base), len(base)+3)
	copy(actions, base)

	if in.Vehicle.cabinTemperature() > 35 || in.Environment.TemperatureC > 35 {
		actions = append(actions, "High temperature detected - expedite response")
	}
	if in.ElapsedMinutes > 20 {
		actions = append(actions, "Vehicle occupied for extended period")
	}
	if in.Scan.VitalSigns.Detected {
		actions = append(actions, "Occupant detected via mmWave radar")
	}
	return actions
}
