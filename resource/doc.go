// Package resource governs the memory, worker and IO budgets of a calculation.
//
//   - Memory: determinant-store growth is accounted against a hard limit and
//     fails fast with ErrMemoryLimitExceeded instead of exhausting the process.
//   - Workers: caps the parallelism of selection and operator construction,
//     both per call (Workers) and across concurrent calls (AcquireWorker).
//   - IO: token-bucket rate limiting for snapshot reads and writes.
//
// All methods are safe for concurrent use and treat a nil *Controller as
// "unlimited", so callers never need nil checks.
package resource
