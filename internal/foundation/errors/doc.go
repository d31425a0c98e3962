// Package errors provides the classified error primitives used across repodoc.
//
// A ClassifiedError carries a category, a severity and a retry strategy so
// callers can route failures (abort the run, retry a generation call, degrade
// a section) without inspecting message text.
//
//	err := errors.NewError(errors.CategoryAcquisition, "clone failed").
//		Fatal().
//		WithContext("url", repoURL).
//		WithCause(cloneErr).
//		Build()
package errors
