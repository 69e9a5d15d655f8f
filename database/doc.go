// Package database opens the job history database: GORM over the pure-Go
// modernc SQLite driver, with pooling, connection retry, query logging
// through the service logger and a lifecycle component.
//
//	comp := database.NewComponent(cfg, log).WithAutoMigrate(&jobRow{})
//	registry.Register(comp)
//	...
//	db := comp.DB().WithContext(ctx)
package database
