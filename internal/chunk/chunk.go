package chunk

import (
	"strings"
	"unicode/utf8"
)

const separator = "\n\n"

// Scanner splits text into synthesis-sized chunks. Paragraphs (text between
// blank-line separators) are packed greedily up to the budget and stay intact
// unless a single paragraph alone exceeds it, in which case the paragraph is
// sliced into budget-sized pieces. Lengths are counted in runes. Zero-length
// chunks are never produced.
type Scanner struct {
	paras   []string
	max     int
	acc     strings.Builder
	accLen  int
	pending []string
	cur     string
	idx     int
}

// NewScanner returns a Scanner over text with a chunk budget of maxChars
// runes. It panics if maxChars is not positive; callers validate the budget
// before it reaches here.
func NewScanner(text string, maxChars int) *Scanner {
	if maxChars <= 0 {
		panic("chunk: max chars must be positive")
	}
	return &Scanner{
		paras: strings.Split(text, separator),
		max:   maxChars,
		idx:   -1,
	}
}

// Scan advances the Scanner to the next chunk, returning false once the text
// is exhausted.
func (s *Scanner) Scan() bool {
	if len(s.pending) > 0 {
		s.cur = s.pending[0]
		s.pending = s.pending[1:]
		s.idx++
		return true
	}

	for len(s.paras) > 0 {
		p := s.paras[0]
		s.paras = s.paras[1:]
		plen := utf8.RuneCountInString(p)

		sep := 0
		if s.accLen > 0 {
			sep = len(separator)
		}
		if s.accLen+plen+sep <= s.max {
			if sep > 0 {
				s.acc.WriteString(separator)
			}
			s.acc.WriteString(p)
			s.accLen += plen + sep
			continue
		}

		if plen > s.max {
			s.pending = sliceRunes(p, s.max)
			if s.accLen > 0 {
				s.cur = s.flush()
				s.idx++
				return true
			}
			s.cur = s.pending[0]
			s.pending = s.pending[1:]
			s.idx++
			return true
		}

		// The accumulator cannot be empty here: an empty accumulator
		// accepts any paragraph within the budget.
		out := s.flush()
		s.acc.WriteString(p)
		s.accLen = plen
		s.cur = out
		s.idx++
		return true
	}

	if s.accLen > 0 {
		s.cur = s.flush()
		s.idx++
		return true
	}
	s.cur = ""
	return false
}

// Text returns the chunk produced by the last successful Scan.
func (s *Scanner) Text() string {
	return s.cur
}

// Index returns the zero-based index of the current chunk, or -1 before the
// first Scan.
func (s *Scanner) Index() int {
	return s.idx
}

func (s *Scanner) flush() string {
	out := s.acc.String()
	s.acc.Reset()
	s.accLen = 0
	return out
}

func sliceRunes(p string, size int) []string {
	runes := []rune(p)
	pieces := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

// Chunks drains a Scanner over text and returns every chunk in order.
func Chunks(text string, maxChars int) []string {
	var out []string
	sc := NewScanner(text, maxChars)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}
