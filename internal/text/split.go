// Package text splits long prompts into chunks sized for a speech model's
// context window.
package text

import (
	"regexp"
	"strings"
)

const (
	// DefaultDesiredLength is the soft chunk size in runes.
	DefaultDesiredLength = 200
	// DefaultMaxLength is the hard chunk ceiling in runes.
	DefaultMaxLength = 300
)

// Rune sets consulted while scanning.
const (
	sentenceEnds = "!?\n"
	markerRunes  = "!?."
	breakRunes   = " \n"
	wordBreaks   = "!?.\n "
	quoteRune    = '"'
)

var (
	blankLinesPattern      = regexp.MustCompile(`\n\n+`)
	whitespacePattern      = regexp.MustCompile(`\s+`)
	punctuationOnlyPattern = regexp.MustCompile(`^[\s.,;:!?]*$`)
	quoteReplacer          = strings.NewReplacer("“", `"`, "”", `"`)
)

// Split is SplitAndRecombine with the default lengths.
func Split(s string) []string {
	return SplitAndRecombine(s, DefaultDesiredLength, DefaultMaxLength)
}

// SplitAndRecombine splits s into chunks of roughly desiredLength runes, never
// longer than maxLength unless a quoted boundary pushes one rune past it.
// Breaks prefer sentence ends outside quotes and the end of a quotation, then
// fall back to word boundaries. Chunks are trimmed; chunks holding only
// whitespace or punctuation are dropped.
//
// desiredLength is raised to 1 and maxLength to desiredLength when smaller.
func SplitAndRecombine(s string, desiredLength, maxLength int) []string {
	desiredLength = max(desiredLength, 1)
	maxLength = max(maxLength, desiredLength)

	c := &chunker{
		text:    []rune(normalize(s)),
		desired: desiredLength,
		max:     maxLength,
		pos:     -1,
	}

	raw := c.run()

	chunks := make([]string, 0, len(raw))
	for _, chunk := range raw {
		chunk = strings.TrimSpace(chunk)
		if punctuationOnlyPattern.MatchString(chunk) {
			continue
		}

		chunks = append(chunks, chunk)
	}

	return chunks
}

// Join renders chunks one per line.
func Join(chunks []string) string {
	return strings.Join(chunks, "\n")
}

func normalize(s string) string {
	s = blankLinesPattern.ReplaceAllString(s, "\n")
	s = whitespacePattern.ReplaceAllString(s, " ")

	return quoteReplacer.Replace(s)
}

type scanState int

const (
	stateScanning scanState = iota
	stateHardLimit
	stateCommitting
	stateDone
)

// chunker holds the cursor for one SplitAndRecombine call. The current chunk
// is always text[start : pos+1].
type chunker struct {
	text       []rune
	desired    int
	max        int
	pos        int
	start      int
	boundaries []int
	inQuote    bool
	chunks     []string
}

func (c *chunker) run() []string {
	state := stateScanning

	var current rune

	for state != stateDone {
		switch state {
		case stateScanning:
			if c.pos >= len(c.text)-1 {
				c.commit()

				state = stateDone

				continue
			}

			current = c.advance()

			switch {
			case c.length() >= c.max:
				state = stateHardLimit
			case !c.inQuote && c.isSentenceEnd(current):
				for c.pos < len(c.text)-1 && c.length() < c.max && c.peekIn(1, markerRunes) {
					c.advance()
				}

				c.boundaries = append(c.boundaries, c.pos)

				if c.length() >= c.desired {
					state = stateCommitting
				}
			case c.inQuote && c.peekIn(1, string(quoteRune)) && c.peekIn(2, breakRunes):
				c.advance()
				c.advance()
				c.boundaries = append(c.boundaries, c.pos)
			}
		case stateHardLimit:
			if len(c.boundaries) > 0 && 2*c.length() > c.desired {
				last := c.boundaries[len(c.boundaries)-1]
				for c.pos > last {
					c.retreat()
				}
			} else {
				for !strings.ContainsRune(wordBreaks, current) && c.pos > 0 && c.length() > c.desired {
					current = c.retreat()
				}
			}

			state = stateCommitting
		case stateCommitting:
			c.commit()

			state = stateScanning
		}
	}

	return c.chunks
}

func (c *chunker) length() int {
	return c.pos + 1 - c.start
}

// advance consumes the next rune and returns it.
func (c *chunker) advance() rune {
	c.pos++

	r := c.text[c.pos]
	if r == quoteRune {
		c.inQuote = !c.inQuote
	}

	return r
}

// retreat un-consumes the current rune and returns the new current one.
func (c *chunker) retreat() rune {
	if c.text[c.pos] == quoteRune {
		c.inQuote = !c.inQuote
	}

	c.pos--

	return c.text[c.pos]
}

// peekIn reports whether the rune delta places ahead exists and is in set.
func (c *chunker) peekIn(delta int, set string) bool {
	p := c.pos + delta
	if p < 0 || p >= len(c.text) {
		return false
	}

	return strings.ContainsRune(set, c.text[p])
}

// isSentenceEnd treats "." as an end only when a space or newline follows.
func (c *chunker) isSentenceEnd(r rune) bool {
	return strings.ContainsRune(sentenceEnds, r) || (r == '.' && c.peekIn(1, breakRunes))
}

func (c *chunker) commit() {
	c.chunks = append(c.chunks, string(c.text[c.start:c.pos+1]))
	c.start = c.pos + 1
	c.boundaries = c.boundaries[:0]
}
