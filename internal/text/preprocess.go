package text

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNumberForWords is the largest integer Preprocess spells out.
const MaxNumberForWords = 999999

// Private-use runes delimit placeholders for URLs and emails so that no later
// rewrite can match inside them.
const (
	placeholderOpen = '\uE000'
	placeholderBase = 0xE100
)

var (
	urlPattern       = regexp.MustCompile(`https?://\S+`)
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	numberPattern    = regexp.MustCompile(`\d+`)
	groupedNumber    = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b`)
	referencePattern = regexp.MustCompile(`\[\d+\]|\(\d+\)|[¹²³⁴⁵⁶⁷⁸⁹⁰]+`)
	citationPattern  = regexp.MustCompile(`\([^)]*\d{4}[^)]*\)|\b\w+\s+et\s+al\.`)
	repeatedMarks    = regexp.MustCompile(`([!?,;:])[!?,;:]+`)
	spaceBeforeMark  = regexp.MustCompile(` +([.,;:!?])`)

	abbreviationReplacer = strings.NewReplacer(
		"Mr.", "Mister",
		"Mrs.", "Misses",
		"Ms.", "Miss",
		"Dr.", "Doctor",
		"St.", "Saint",
		"Co.", "Company",
		"Ltd.", "Limited",
		"Corp.", "Corporation",
		"Inc.", "Incorporated",
	)

	punctuationReplacer = strings.NewReplacer(
		"—", "-",
		"–", "-",
		"‒", "-",
		"…", "...",
		"‘", "'",
		"’", "'",
		"“", `"`,
		"”", `"`,
	)
)

// Preprocess rewrites text into a form that reads aloud cleanly: common
// abbreviations are expanded, integers up to MaxNumberForWords are spelled
// out, bracketed references and author-year citations are removed, runs of
// punctuation collapse to their first mark and the text ends with ., ! or ?.
// URLs and email addresses pass through untouched.
//
// It is not applied by SplitAndRecombine; callers opt in.
func Preprocess(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	s, tokens := protectTokens(s)

	s = referencePattern.ReplaceAllString(s, "")
	s = citationPattern.ReplaceAllString(s, "")
	s = abbreviationReplacer.Replace(s)
	s = groupedNumber.ReplaceAllStringFunc(s, func(digits string) string {
		return strings.ReplaceAll(digits, ",", "")
	})
	s = numberPattern.ReplaceAllStringFunc(s, func(digits string) string {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return digits
		}

		return integerToWords(n)
	})
	s = punctuationReplacer.Replace(s)
	s = repeatedMarks.ReplaceAllString(s, "$1")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = spaceBeforeMark.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)

	return endSentence(restoreTokens(s, tokens))
}

// protectTokens swaps URLs and emails for placeholders.
func protectTokens(s string) (string, []string) {
	var tokens []string

	for _, pattern := range []*regexp.Regexp{urlPattern, emailPattern} {
		s = pattern.ReplaceAllStringFunc(s, func(match string) string {
			tokens = append(tokens, match)

			return placeholder(len(tokens) - 1)
		})
	}

	return s, tokens
}

func restoreTokens(s string, tokens []string) string {
	for i, token := range tokens {
		s = strings.Replace(s, placeholder(i), token, 1)
	}

	return s
}

func placeholder(i int) string {
	return string([]rune{placeholderOpen, rune(placeholderBase + i)})
}

func endSentence(s string) string {
	if s == "" {
		return s
	}

	last, _ := utf8.DecodeLastRuneInString(s)

	switch {
	case last == '.' || last == '!' || last == '?':
		return s
	case last == '"' || last == '\'':
		return s
	case unicode.IsPunct(last):
		return strings.TrimRightFunc(s, unicode.IsPunct) + "."
	default:
		return s + "."
	}
}

var (
	onesWords = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tensWords = []string{
		"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
	}
)

// integerToWords spells n in English. Numbers outside 0..MaxNumberForWords
// are returned as digits.
func integerToWords(n int) string {
	if n < 0 || n > MaxNumberForWords {
		return strconv.Itoa(n)
	}

	if n < len(onesWords) {
		return onesWords[n]
	}

	var parts []string

	if thousands := n / 1000; thousands > 0 {
		parts = append(parts, belowThousand(thousands), "thousand")
		n %= 1000
	}

	if n > 0 {
		parts = append(parts, belowThousand(n))
	}

	return strings.Join(parts, " ")
}

func belowThousand(n int) string {
	var parts []string

	if hundreds := n / 100; hundreds > 0 {
		parts = append(parts, onesWords[hundreds], "hundred")
		n %= 100
	}

	switch {
	case n == 0:
	case n < len(onesWords):
		parts = append(parts, onesWords[n])
	case n%10 == 0:
		parts = append(parts, tensWords[n/10])
	default:
		parts = append(parts, tensWords[n/10]+"-"+onesWords[n%10])
	}

	return strings.Join(parts, " ")
}
