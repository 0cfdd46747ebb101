package models

import "time"

type Tier string

const (
	TierPerfect        Tier = "perfect"
	TierGood           Tier = "good"
	TierKeepPracticing Tier = "keep practicing"
)

type Score struct {
	Correct    int `bson:"correct_count" json:"correctCount"`
	Total      int `bson:"total_count" json:"totalCount"`
	Percentage int `bson:"percentage" json:"percentage"`
}

// ItemResult is the review line for one graded item. Blank is -1 for mcq
// questions, which grade as a single item.
type ItemResult struct {
	Question  int    `bson:"question" json:"question"`
	Blank     int    `bson:"blank" json:"blank"`
	Submitted string `bson:"submitted" json:"submitted"`
	Expected  string `bson:"expected" json:"expected"`
	Correct   bool   `bson:"correct" json:"correct"`
}

type GradeReport struct {
	Score Score        `bson:"score" json:"score"`
	Tier  Tier         `bson:"tier" json:"tier"`
	Items []ItemResult `bson:"items" json:"items"`
}

type ExerciseResult struct {
	ID         string       `bson:"_id,omitempty" json:"id"`
	ExerciseID string       `bson:"exercise_id" json:"exerciseId"`
	UserID     string       `bson:"user_id" json:"userId"`
	Type       ExerciseType `bson:"type" json:"type"`
	Lang       string       `bson:"lang" json:"lang"`
	Score      Score        `bson:"score" json:"score"`
	Tier       Tier         `bson:"tier" json:"tier"`
	XPAwarded  int          `bson:"xp_awarded" json:"xpAwarded"`
	Completed  bool         `bson:"completed" json:"completed"`
	CreatedAt  time.Time    `bson:"created_at" json:"createdAt"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	XP     int64  `json:"xp"`
}
