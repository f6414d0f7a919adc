// Package detection turns OCR tokens into a redaction plan.
//
// Each token is tested against a patterns.Catalog. Literal rules are tried
// before builtin patterns and the first matching rule wins, so a token
// contributes at most one region. Tokens whose bounding box could not be
// parsed, and tokens with blank text, are skipped.
//
// # Ordering
//
// A Plan lists regions in the order the engine reported the tokens. The
// redactor applies regions sequentially, so this order is part of the
// output: overlapping regions are blurred again on top of earlier blurs.
//
// Detection is a pure function of its inputs. The Detector type evaluates
// large token lists across several goroutines but always returns the same
// plan as the sequential Detect.
package detection
