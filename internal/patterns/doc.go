// Package patterns holds the detection rules used to classify recognized
// words as sensitive.
//
// A Catalog is built once per run from Options and never changes. Rules are
// evaluated in a fixed order: user literal strings first, in the order they
// were supplied, then the builtin patterns mail, ipv6, ipv4 and phone.
//
// Builtin patterns only anchor at the start of the word. "192.168.1.1abc"
// is therefore classified as an IPv4 address.
package patterns
