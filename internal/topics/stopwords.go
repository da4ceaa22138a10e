package topics

// stopWords never appear as keywords.
var stopWords = toSet(
	// English function words
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "can", "this", "that", "these", "those",
	"i", "you", "he", "she", "it", "we", "they", "what", "which", "who",
	"when", "where", "why", "how", "all", "each", "every", "both", "few",
	"more", "most", "other", "some", "such", "no", "nor", "not", "only",
	"own", "same", "so", "than", "too", "very", "just", "and", "but",
	"if", "or", "because", "as", "until", "while", "of", "at", "by",
	"for", "with", "about", "against", "between", "into", "through",
	"during", "before", "after", "above", "below", "to", "from", "up",
	"down", "in", "out", "on", "off", "over", "under", "again", "further",
	"then", "once", "here", "there", "your", "my", "his", "her", "its",
	"our", "their", "them", "get", "got", "like", "dont", "im", "ive",
	"youre", "youve", "weve", "theyre", "theyve", "hes", "shes", "thats",
	"whats", "heres", "theres", "cant", "wont", "also", "really",

	// Platform noise
	"https", "http", "www", "amp", "rt", "via", "link", "bio", "comment",
	"follow", "check", "fyp", "foryou", "foryoupage", "viral", "trending",
	"reels", "explore", "xyzbca",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsStopWord reports whether w (lower case) is excluded from keywords.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
