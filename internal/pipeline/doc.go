// Package pipeline runs one image through recognition, detection and
// redaction.
//
// A run decodes the input, asks the OCR engine for words, classifies them
// into a redaction plan and, when the plan is not empty, writes a blurred
// copy. A run that finds nothing succeeds without writing a file. Engine
// failures are never retried.
package pipeline
