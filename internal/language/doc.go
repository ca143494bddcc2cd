// Package language normalizes language codes used by channel configuration
// and transcript metadata.
package language
