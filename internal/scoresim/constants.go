package scoresim

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	defaultDisplayTopN   = 10
)

// Sheet generation ranges.
const (
	maxHazardModifier = 8
	maxLevelPoints    = 8
	goalChancePercent = 50
	teamIDLength      = 8
)
