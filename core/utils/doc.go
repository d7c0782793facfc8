// Package utils converts the loosely typed values found in provider responses
// (XML text nodes, JSON numbers that are sometimes strings) into Go types.
package utils
