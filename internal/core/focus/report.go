package focus

import (
	"math"
	"time"
)

// QualityLevel is the coarse label shown for a quality percentage.
type QualityLevel string

const (
	LevelExcellent QualityLevel = "excellent"
	LevelGood      QualityLevel = "good"
	LevelNeedsWork QualityLevel = "needs_work"
)

// LevelFor labels a quality percentage.
func LevelFor(percent int) QualityLevel {
	switch {
	case percent >= 80:
		return LevelExcellent
	case percent >= 60:
		return LevelGood
	default:
		return LevelNeedsWork
	}
}

// Report summarizes a completed focus interval.
type Report struct {
	TaskID         string
	FocusSeconds   int
	QualityPercent int
	Level          QualityLevel
	Quality        Quality
	Stats          Stats
	CompletedAt    time.Time
}

// QualityPercent returns active time as a share of the measured window.
// An empty window scores 100 and the result never exceeds 100.
func QualityPercent(activeSeconds int, window time.Duration) int {
	seconds := window.Seconds()
	if seconds <= 0 {
		return 100
	}
	percent := int(math.Round(float64(activeSeconds) / seconds * 100))
	if percent > 100 {
		return 100
	}
	if percent < 0 {
		return 0
	}
	return percent
}

func percentOf(part, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(clampFraction(float64(part)/float64(total)) * 100))
}

func clampFraction(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
