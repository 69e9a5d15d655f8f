// Package resilience provides the concurrency and rate guards used by the
// worker.
//
//   - Bulkhead: bounds how many pipelines run at once (worker.Pool)
//   - RateLimiter: token bucket for outbound media fetches (httpclient)
//
// Neither retries anything. A rejected call is reported to the caller.
package resilience
