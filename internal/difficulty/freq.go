package difficulty

import "github.com/oliban/anagram-game-sub002/internal/model"

// alphabet holds a language's per-letter relative frequencies (percent).
// The tables are fixed constants; changing them changes every stored
// difficulty, so they are append-only in practice.
type alphabet struct {
	freq    map[rune]float64
	maxFreq float64
}

func newAlphabet(freq map[rune]float64) alphabet {
	var maxFreq float64
	for _, f := range freq {
		if f > maxFreq {
			maxFreq = f
		}
	}
	return alphabet{freq: freq, maxFreq: maxFreq}
}

var english = newAlphabet(map[rune]float64{
	'a': 8.17, 'b': 1.49, 'c': 2.78, 'd': 4.25, 'e': 12.70, 'f': 2.23,
	'g': 2.02, 'h': 6.09, 'i': 6.97, 'j': 0.15, 'k': 0.77, 'l': 4.03,
	'm': 2.41, 'n': 6.75, 'o': 7.51, 'p': 1.93, 'q': 0.10, 'r': 5.99,
	's': 6.33, 't': 9.06, 'u': 2.76, 'v': 0.98, 'w': 2.36, 'x': 0.15,
	'y': 1.97, 'z': 0.07,
})

var spanish = newAlphabet(map[rune]float64{
	'a': 12.53, 'b': 1.42, 'c': 4.68, 'd': 5.86, 'e': 13.68, 'f': 0.69,
	'g': 1.01, 'h': 0.70, 'i': 6.25, 'j': 0.44, 'k': 0.02, 'l': 4.97,
	'm': 3.15, 'n': 6.71, 'o': 8.68, 'p': 2.51, 'q': 0.88, 'r': 6.87,
	's': 7.98, 't': 4.63, 'u': 3.93, 'v': 0.90, 'w': 0.01, 'x': 0.22,
	'y': 0.90, 'z': 0.52, 'ñ': 0.31,
})

func alphabetFor(lang model.Lang) alphabet {
	if lang == model.LangES {
		return spanish
	}
	return english
}
