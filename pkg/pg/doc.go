// Package pg provides PostgreSQL connection management for the notification
// engine's reference persistence: pooled connections via pgx, retrying
// startup, healthchecks, and goose-driven schema migrations from an embedded
// filesystem.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		// handle error
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, notification.MigrationsFS, slog.Default()); err != nil {
//		// handle error
//	}
package pg
