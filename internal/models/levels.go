package models

import "fmt"

// CompetencyLevel is the ordered skill rating for a (worker, task) pair
type CompetencyLevel string

const (
	LevelNotAssessed      CompetencyLevel = "NOT_ASSESSED"
	LevelNotCompetent     CompetencyLevel = "NOT_COMPETENT"
	LevelAdvancedBeginner CompetencyLevel = "ADVANCED_BEGINNER"
	LevelCompetent        CompetencyLevel = "COMPETENT"
	LevelProficient       CompetencyLevel = "PROFICIENT"
	LevelExpert           CompetencyLevel = "EXPERT"
)

var levelRanks = map[CompetencyLevel]int{
	LevelNotAssessed:      0,
	LevelNotCompetent:     1,
	LevelAdvancedBeginner: 2,
	LevelCompetent:        3,
	LevelProficient:       4,
	LevelExpert:           5,
}

// Rank returns the position of the level in the competency ordering,
// NOT_ASSESSED being the lowest. Unknown levels rank below everything.
func (l CompetencyLevel) Rank() int {
	if rank, ok := levelRanks[l]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the level is one of the known values
func (l CompetencyLevel) Valid() bool {
	_, ok := levelRanks[l]
	return ok
}

// ParseCompetencyLevel validates a raw level string from an API request
func ParseCompetencyLevel(raw string) (CompetencyLevel, error) {
	level := CompetencyLevel(raw)
	if !level.Valid() {
		return "", fmt.Errorf("unknown competency level: %q", raw)
	}
	return level, nil
}

// RatingSource is the provenance of a competency rating
type RatingSource string

const (
	SourceAssessment RatingSource = "ASSESSMENT"
	SourceManual     RatingSource = "MANUAL"
)

// Valid reports whether the source is one of the known values
func (s RatingSource) Valid() bool {
	return s == SourceAssessment || s == SourceManual
}

// CompletionPercentage derives the percentage shown for a completion count
// against a task's target. Counts above the target clamp at 100; a
// non-positive target renders 0 rather than dividing by zero.
func CompletionPercentage(completionCount, targetCount int) int {
	if targetCount <= 0 || completionCount <= 0 {
		return 0
	}
	pct := (completionCount*100 + targetCount/2) / targetCount
	if pct > 100 {
		pct = 100
	}
	return pct
}
