package utils

// Similarity returns the Sorensen-Dice coefficient of the rune-bigram
// multisets of a and b, in [0,1]. It is symmetric and deterministic.
// Two empty strings compare as identical (1.0); strings shorter than
// two runes are compared by equality only.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}

	matches := 0
	for i := 0; i < len(rb)-1; i++ {
		key := string(rb[i : i+2])
		if bigrams[key] > 0 {
			bigrams[key]--
			matches++
		}
	}

	return 2.0 * float64(matches) / float64(len(ra)+len(rb)-2)
}
