// Package errors provides the classified error type shared by every pageassets component.
//
// A ClassifiedError carries a category (what kind of failure), a severity (how far the
// failure reaches) and structured context (which page, which reference). Errors are
// constructed with the fluent ErrorBuilder:
//
//	err := errors.NotFoundError("asset reference could not be resolved").
//		WithContext("reference", ref).
//		WithContext("input_path", page.InputPath).
//		Wrap(resolve.ErrNotFound).
//		Build()
//
// The CLIErrorAdapter maps categories to process exit codes.
package errors
