// Package workflows runs the multi-step Cliniko operations behind the test
// data and demo tools.
//
// Every workflow issues its remote calls one at a time through a Throttle,
// which spaces calls at a fixed interval and pauses once after a rate-limited
// response. A failed step is recorded in the workflow's report and the run
// continues with the next item; nothing already created is rolled back.
// Cancelling the context stops a run between calls.
//
// Records created by the generators are recognisable afterwards:
//
//   - patients have an email on the configured test domain
//     (default "test.cliniko.com"); demo patients also carry "_TEST" in
//     their surname
//   - products are named "<name> - TEST" with an item code "TEST-<ts>-<i>"
//   - appointments carry "Test" in their notes
//
// The cleanup workflows use these markers to find what to delete.
package workflows
