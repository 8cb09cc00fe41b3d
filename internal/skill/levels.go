package skill

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
)

// Levels maps a player skill level to the hardest phrase difficulty the
// selector may serve them. Loaded from an ops-owned properties file so the
// curve can be tuned without a deploy.
type Levels struct {
	maxDifficulty map[int]int
	sorted        []int
}

// Load reads a properties file with entries like "level.3.max_difficulty=60".
func Load(path string) (*Levels, error) {
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("load skill levels: %w", err)
	}

	maxDifficulty := make(map[int]int)
	for _, key := range props.Keys() {
		if !strings.HasPrefix(key, "level.") || !strings.HasSuffix(key, ".max_difficulty") {
			continue
		}

		lvlStr := strings.TrimSuffix(strings.TrimPrefix(key, "level."), ".max_difficulty")
		lvl, err := strconv.Atoi(lvlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid skill level key %q: %w", key, err)
		}

		maxDifficulty[lvl] = props.GetInt(key, 0)
	}

	if len(maxDifficulty) == 0 {
		return nil, fmt.Errorf("no level.N.max_difficulty entries in %s", path)
	}

	return newLevels(maxDifficulty), nil
}

// Default is the fallback curve used when no properties file is configured.
func Default() *Levels {
	return newLevels(map[int]int{
		1: 20,
		2: 40,
		3: 60,
		4: 80,
		5: 0, // no cap
	})
}

func newLevels(maxDifficulty map[int]int) *Levels {
	sorted := make([]int, 0, len(maxDifficulty))
	for lvl := range maxDifficulty {
		sorted = append(sorted, lvl)
	}
	sort.Ints(sorted)

	return &Levels{maxDifficulty: maxDifficulty, sorted: sorted}
}

// MaxDifficultyForLevel returns the difficulty cap for a skill level, falling
// back to the nearest configured level below it. 0 means no cap.
func (l *Levels) MaxDifficultyForLevel(level int) int {
	if cap, ok := l.maxDifficulty[level]; ok {
		return cap
	}

	best := 0
	for _, lvl := range l.sorted {
		if lvl > level {
			break
		}
		best = l.maxDifficulty[lvl]
	}
	return best
}
