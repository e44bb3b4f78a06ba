// Package errors provides coded, actionable error messages for the signal
// workshop CLI.
//
// Errors are organized into categories:
//   - runtime: failures reported by the reactive runtime (cycles, failing
//     effects, runaway flushes)
//   - config: configuration file errors
//   - service: invalid input to a workshop service
//   - cli: command-line usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "R001") that maps to a short message,
// a detailed explanation and, where one helps, a hint.
//
// # Usage
//
//	err := errors.New("C002").
//	    WithDetail("batchSize must be at least 1").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR C002: Invalid configuration value
//	//
//	//   batchSize must be at least 1
//	//
//	//   Hint: Check workshop.json against the documented defaults
//
// Errors returned by pkg/reactive are mapped to runtime codes with
// FromReactive.
package errors
