package signal

// Fixed lexicons driving the analyzer. A word may belong to several sets;
// each set's hit count is tallied independently.

var positiveWords = []string{
	"love", "like", "happy", "glad", "wonderful", "great", "amazing",
	"beautiful", "sweet", "good", "nice", "fun", "enjoy", "laugh", "smile",
	"thank", "thanks", "awesome", "perfect", "best", "adore", "cherish",
	"care", "warm", "safe", "proud",
}

var negativeWords = []string{
	"hate", "angry", "mad", "sad", "terrible", "awful", "annoying", "annoyed",
	"upset", "bad", "disappointed", "disappointing", "disgusting", "boring",
	"stupid", "ugly", "worst", "cry", "hurt", "leave me alone", "shut up",
	"go away", "whatever",
}

var romanticWords = []string{
	"love", "miss you", "kiss", "hug", "cuddle", "darling", "sweetheart",
	"romantic", "romance", "date", "hold you", "hold me", "heart",
	"together", "forever", "soulmate", "my dear", "honey",
}

var sexualWords = []string{
	"sexy", "naked", "undress", "strip", "bed", "touch you", "touch me",
	"make love", "desire", "lust", "aroused", "turn on", "turned on",
	"body", "tease", "seduce", "intimate",
}

var complimentWords = []string{
	"beautiful", "gorgeous", "pretty", "cute", "smart", "clever", "stunning",
	"lovely", "amazing", "perfect", "charming", "attractive", "brilliant",
	"adorable", "incredible", "wonderful",
}

var interrogativeOpeners = []string{
	"what", "who", "where", "when", "why", "how", "which",
	"do", "does", "did", "are", "is", "was", "were",
	"can", "could", "would", "will", "should", "have", "has",
}
