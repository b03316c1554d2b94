// Package sanitizer provides input normalization for free-text fields
// (trainer names, class types, block reasons) before validation and storage.
//
// All functions are idempotent - applying them multiple times produces the
// same result. Invalid input is handled gracefully, typically by returning
// an empty string rather than an error.
package sanitizer
