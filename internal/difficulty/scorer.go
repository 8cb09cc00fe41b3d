package difficulty

import (
	"math"
	"strings"
	"unicode"

	"github.com/oliban/anagram-game-sub002/internal/model"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Score is the single source of truth for phrase difficulty. It is pure and
// deterministic: every call site (server scoring, client preview) must get
// bit-identical results for the same content and language.
//
// Three additive factors: a super-linear word-count factor, a letter-count
// factor, and a letter-commonality factor derived from the language's fixed
// frequency table. The sum is clamped to a minimum of 1.
func Score(content string, lang model.Lang) int {
	alpha := alphabetFor(lang)
	words := strings.Fields(content)
	letters := normalize(content, alpha)

	if len(words) == 0 || len(letters) == 0 {
		return 1
	}

	wordFactor := math.Pow(float64(len(words)-1), 1.5) * 10
	letterFactor := math.Pow(float64(len(letters)), 1.2) * 1.5

	var sum float64
	for _, r := range letters {
		sum += alpha.freq[r]
	}
	mean := sum / float64(len(letters))
	commonality := mean / alpha.maxFreq * 25
	if len(letters) <= 3 {
		commonality /= 2
	}

	total := int(math.Round(wordFactor + letterFactor + commonality))
	if total < 1 {
		return 1
	}
	return total
}

// Label maps a difficulty score to its display bucket.
func Label(score int) string {
	switch {
	case score <= 20:
		return "Very Easy"
	case score <= 40:
		return "Easy"
	case score <= 60:
		return "Medium"
	case score <= 80:
		return "Hard"
	default:
		return "Very Hard"
	}
}

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases the content and reduces it to letters of the language's
// alphabet. Runes outside the alphabet are folded (diacritic marks stripped)
// and kept if the base letter is alphabetic; everything else is dropped. The
// alphabet check runs before folding so letters like the Spanish ñ survive.
func normalize(content string, alpha alphabet) []rune {
	var letters []rune
	for _, r := range strings.ToLower(content) {
		if _, ok := alpha.freq[r]; ok {
			letters = append(letters, r)
			continue
		}

		folded, _, err := transform.String(foldMarks, string(r))
		if err != nil {
			continue
		}
		for _, fr := range folded {
			if _, ok := alpha.freq[fr]; ok {
				letters = append(letters, fr)
			}
		}
	}

	return letters
}
