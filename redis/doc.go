// Package redis provides a go-redis client with service logging, a
// lifecycle component and JSON-typed key access.
//
//	c := redis.NewComponent(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	// after Start:
//	records := redis.NewTypedStore[job.Record](c.Client(), "jobs")
package redis
