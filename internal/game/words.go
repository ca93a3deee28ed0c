package game

import (
	"math/rand"
	"strings"
	"unicode"
)

// wordList holds the drawable prompts offered to drawers.
var wordList = []string{
	"apple", "banana", "bicycle", "bridge", "butterfly", "cactus",
	"camera", "candle", "castle", "cloud", "compass", "crown",
	"dolphin", "dragon", "drum", "elephant", "envelope", "feather",
	"fireworks", "flashlight", "flower", "fountain", "giraffe",
	"guitar", "hammer", "hamburger", "helicopter", "hourglass",
	"igloo", "island", "kangaroo", "kite", "ladder", "lighthouse",
	"lightning", "mermaid", "microscope", "moon", "mountain",
	"mushroom", "octopus", "owl", "palm tree", "parachute", "peacock",
	"penguin", "piano", "pineapple", "pirate", "pizza", "pyramid",
	"rainbow", "robot", "rocket", "sailboat", "sandcastle", "scarecrow",
	"skateboard", "snowman", "spider", "submarine", "sunflower",
	"telescope", "tornado", "treasure", "trophy", "turtle", "umbrella",
	"unicorn", "volcano", "waterfall", "whale", "windmill", "wizard",
}

// pickCandidates draws n distinct words for the drawer to choose from.
func pickCandidates(n int) []string {
	if n > len(wordList) {
		n = len(wordList)
	}
	picked := rand.Perm(len(wordList))[:n]
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = wordList[idx]
	}
	return out
}

// maskWord hides letters behind underscores. Spaces stay visible so
// guessers know the word count.
func maskWord(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// revealOne uncovers one random still-hidden letter of word in shown.
// Returns shown unchanged when nothing is left to reveal.
func revealOne(word, shown string) string {
	w := []rune(word)
	s := []rune(shown)
	hidden := make([]int, 0, len(s))
	for i, r := range s {
		if r == '_' {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return shown
	}
	i := hidden[rand.Intn(len(hidden))]
	s[i] = w[i]
	return string(s)
}

// normalizeGuess folds case and surrounding whitespace.
func normalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// levenshtein computes the edit distance between two strings, used to
// flag near-miss guesses without revealing the word.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
