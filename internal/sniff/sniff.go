// Package sniff classifies decoded content as text or binary from a
// bounded leading window, before line scanning begins.
package sniff

import (
	"github.com/gabriel-vasile/mimetype"
)

const (
	// DefaultWindow is how many leading decoded bytes are examined.
	DefaultWindow = 1024

	// DefaultBinaryThreshold is the non-printable byte ratio above which
	// content is classified binary. A NUL byte anywhere in the window is
	// binary regardless of ratio.
	DefaultBinaryThreshold = 0.30
)

// Classifier applies the binary-content heuristic.
type Classifier struct {
	window    int
	threshold float64
}

// New creates a classifier. Non-positive window or threshold values fall
// back to the defaults.
func New(window int, threshold float64) *Classifier {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultBinaryThreshold
	}
	return &Classifier{
		window:    window,
		threshold: threshold,
	}
}

// Window returns how many leading bytes Classify expects to examine.
func (c *Classifier) Window() int {
	return c.window
}

// Result is the outcome of classifying one object's leading window.
type Result struct {
	// Binary is true when the object should be skipped without scanning.
	Binary bool

	// MIME is the detected content type of the window, for skip
	// diagnostics. Best effort; empty for an empty window.
	MIME string
}

// Classify examines the leading window of decoded bytes. An empty window
// (empty object) is text. Only the first Window() bytes are considered
// even if the caller hands over more.
func (c *Classifier) Classify(window []byte) Result {
	if len(window) > c.window {
		window = window[:c.window]
	}
	if len(window) == 0 {
		return Result{Binary: false}
	}

	nonPrintable := 0
	for _, b := range window {
		if b == 0x00 {
			return Result{Binary: true, MIME: detect(window)}
		}
		if isNonPrintable(b) {
			nonPrintable++
		}
	}

	if float64(nonPrintable)/float64(len(window)) > c.threshold {
		return Result{Binary: true, MIME: detect(window)}
	}
	return Result{Binary: false, MIME: detect(window)}
}

// isNonPrintable reports whether b is a control byte other than the
// whitespace controls that commonly appear in text.
func isNonPrintable(b byte) bool {
	switch b {
	case '\n', '\r', '\t', '\f', '\v':
		return false
	}
	return b < 0x20 || b == 0x7f
}

func detect(window []byte) string {
	if mt := mimetype.Detect(window); mt != nil {
		return mt.String()
	}
	return ""
}
