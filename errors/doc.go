// Package errors provides the structured error type used across the
// extraction pipeline.
//
// Every failure that crosses a package boundary is an *AppError carrying a
// machine-readable ErrorCode, a message, a retryable flag and optional
// details. Stage failures (parse, deserialize, validate, transform) travel
// inside frames as values and only escalate at the attempt boundary, where
// they are collected into a RetriesExhausted error.
package errors
