// Package redaction irreversibly blurs rectangular regions of an image.
//
// Each region gets a separable Gaussian blur whose kernel spans roughly half
// the region in each direction, which is enough to make recognized text
// unreadable while keeping the surrounding layout intact.
package redaction
