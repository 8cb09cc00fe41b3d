package hints

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/oliban/anagram-game-sub002/internal/model"
)

// MaxLevel is the last hint level; using it leaves the player at half score.
const MaxLevel = 3

// ErrInvalidOrder is returned when a player requests a hint level without
// having used the level right before it. Levels never skip.
var ErrInvalidOrder = errors.New("hint levels must be used in order")

// decayFactors maps hints-used to the fraction of difficulty still awarded.
// Fixed constants, not configurable per phrase.
var decayFactors = [MaxLevel + 1]float64{1.00, 0.90, 0.70, 0.50}

// ScoreAtLevel computes the score a player receives when completing after
// using the given number of hints. Levels outside [0, MaxLevel] are clamped.
func ScoreAtLevel(difficulty, level int) int {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return int(math.Round(float64(difficulty) * decayFactors[level]))
}

// Preview returns the four possible scores (no hints, then levels 1..3) for a
// phrase of the given difficulty. Pure function of difficulty, no player state.
func Preview(difficulty int) [MaxLevel + 1]int {
	var scores [MaxLevel + 1]int
	for lvl := range scores {
		scores[lvl] = ScoreAtLevel(difficulty, lvl)
	}
	return scores
}

// ValidateUse checks that requesting the given level is a legal forward step
// from the highest level already used.
func ValidateUse(highestUsed, requested int) error {
	if requested < 1 || requested > MaxLevel {
		return fmt.Errorf("hint level %d out of range: %w", requested, ErrInvalidOrder)
	}
	if requested != highestUsed+1 {
		return fmt.Errorf("hint level %d requested at level %d: %w", requested, highestUsed, ErrInvalidOrder)
	}
	return nil
}

// Status describes a player's hint position on one phrase.
type Status struct {
	UsedLevels   []int
	NextLevel    int // 0 when exhausted
	Remaining    int
	CurrentScore int
	NextScore    int // 0 when exhausted
	CanUseHint   bool
}

// StatusFor derives the full hint status from the persisted used levels.
func StatusFor(difficulty int, usedLevels []int) Status {
	highest := HighestLevel(usedLevels)

	s := Status{
		UsedLevels:   usedLevels,
		Remaining:    MaxLevel - highest,
		CurrentScore: ScoreAtLevel(difficulty, highest),
	}
	if highest < MaxLevel {
		s.NextLevel = highest + 1
		s.NextScore = ScoreAtLevel(difficulty, highest+1)
		s.CanUseHint = true
	}
	return s
}

// HighestLevel returns the highest used level, 0 for none. The store keeps
// levels strictly increasing, so the max is the count as well.
func HighestLevel(usedLevels []int) int {
	highest := 0
	for _, lvl := range usedLevels {
		if lvl > highest {
			highest = lvl
		}
	}
	return highest
}

var countWords = [...]string{1: "One", 2: "Two", 3: "Three", 4: "Four", 5: "Five", 6: "Six"}

// Content renders the hint text for a level. Level 1 reveals word structure,
// level 2 the author-supplied hint, level 3 the first letter of each word.
func Content(p model.Phrase, level int) string {
	words := strings.Fields(p.Content)

	switch level {
	case 1:
		return structureHint(words)
	case 2:
		return p.Hint
	case 3:
		return initialsHint(words)
	}

	return ""
}

func structureHint(words []string) string {
	if len(words) == 0 {
		return ""
	}

	name := fmt.Sprintf("%d", len(words))
	if len(words) < len(countWords) {
		name = countWords[len(words)]
	}

	if len(words) == 1 {
		return fmt.Sprintf("%s word: %d letters", name, len([]rune(words[0])))
	}

	counts := make([]string, len(words))
	for i, w := range words {
		counts[i] = fmt.Sprintf("%d", len([]rune(w)))
	}
	return fmt.Sprintf("%s words: %s letters", name, strings.Join(counts, " and "))
}

func initialsHint(words []string) string {
	initials := make([]string, 0, len(words))
	for _, w := range words {
		for _, r := range w {
			initials = append(initials, string(unicode.ToUpper(r)))
			break
		}
	}
	return "First letters: " + strings.Join(initials, " ")
}
