package model

import "time"

type Lang string

const (
	LangEN Lang = "en"
	LangES Lang = "es"
)

type PhraseType string

const (
	PhraseCustom    PhraseType = "custom"
	PhraseGlobal    PhraseType = "global"
	PhraseCommunity PhraseType = "community"
	PhraseChallenge PhraseType = "challenge"
)

type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
	PeriodTotal  Period = "total"
)

// SelectionSource tells the client which pool the served phrases came from.
// SourceNone is a legitimate terminal state, not an error.
type SelectionSource string

const (
	SourceTargeted SelectionSource = "targeted"
	SourceGlobal   SelectionSource = "global"
	SourceSkipped  SelectionSource = "skipped"
	SourceNone     SelectionSource = "none"
)

type Phrase struct {
	ID         string
	Content    string
	Hint       string
	Lang       Lang
	Difficulty int
	IsGlobal   bool
	IsApproved bool
	Type       PhraseType
	Priority   int
	CreatedBy  string // empty for external/anonymous contributions
	CreatedAt  time.Time
}

type Assignment struct {
	PhraseID    string
	PlayerID    string
	Delivered   bool
	DeliveredAt time.Time
	CreatedAt   time.Time
}

type SkipRecord struct {
	PlayerID  string
	PhraseID  string
	SkippedAt time.Time
}

type Completion struct {
	PlayerID         string
	PhraseID         string
	Score            int
	CompletionTimeMs int64
	CompletedAt      time.Time
}

type HintUsage struct {
	PlayerID string
	PhraseID string
	Level    int
	UsedAt   time.Time
}

type ScoreAggregate struct {
	Period     Period
	PlayerID   string
	Score      int
	Rank       int
	AchievedAt time.Time
}
