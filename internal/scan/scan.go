// Package scan splits a decoded byte stream into lines and matches each
// line against the search pattern.
//
// The stream is consumed incrementally: a line that spans multiple buffer
// refills accumulates in a pooled buffer, so no line boundary depends on
// where a read chunk happens to end.
package scan

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/s3tools/s3grep/internal/pool"
)

// Matcher tests lines against a pattern with the configured case rule.
type Matcher struct {
	pattern       string
	folded        string
	caseSensitive bool
}

// NewMatcher builds a matcher. For case-insensitive matching the pattern
// is folded once up front rather than per line.
func NewMatcher(pattern string, caseSensitive bool) Matcher {
	return Matcher{
		pattern:       pattern,
		folded:        strings.ToLower(pattern),
		caseSensitive: caseSensitive,
	}
}

// MatchLine reports whether line contains the pattern. The line is the
// unit of reporting: multiple occurrences still count as one match.
func (m Matcher) MatchLine(line string) bool {
	if m.caseSensitive {
		return strings.Contains(line, m.pattern)
	}
	return strings.Contains(strings.ToLower(line), m.folded)
}

// Sink receives scan events as lines are consumed.
// Implementations must tolerate calls from the scanning goroutine only;
// the scanner itself is single-threaded per object.
type Sink interface {
	// LineScanned reports the byte length of one consumed line.
	LineScanned(n int64)

	// Match reports one matching line with its 1-indexed number.
	Match(lineNum int, line string)
}

// Lines consumes br to exhaustion, reporting every line and every match
// to sink. Line numbers are 1-indexed in encounter order; a non-empty
// final segment without a trailing newline counts as a line. The returned
// count is the total content bytes scanned (line bytes, excluding
// newline delimiters).
func Lines(br *bufio.Reader, m Matcher, sink Sink) (int64, error) {
	buf := pool.GetLineBuffer()
	// buf may be reallocated by append; return whichever backing array it
	// ends up with.
	defer func() { pool.PutLineBuffer(buf) }()

	var total int64
	lineNum := 0

	for {
		frag, err := br.ReadSlice('\n')
		buf = append(buf, frag...)

		if errors.Is(err, bufio.ErrBufferFull) {
			// Line continues past the read buffer; keep accumulating.
			continue
		}

		if err == nil {
			// Complete line; drop the delimiter.
			line := string(buf[:len(buf)-1])
			lineNum++
			total += int64(len(line))
			sink.LineScanned(int64(len(line)))
			if m.MatchLine(line) {
				sink.Match(lineNum, line)
			}
			buf = buf[:0]
			continue
		}

		if errors.Is(err, io.EOF) {
			if len(buf) > 0 {
				line := string(buf)
				lineNum++
				total += int64(len(line))
				sink.LineScanned(int64(len(line)))
				if m.MatchLine(line) {
					sink.Match(lineNum, line)
				}
			}
			return total, nil
		}

		return total, err
	}
}
