// Package bootstrap runs a service through a two-phase lifecycle.
//
// Phase 1 starts the infrastructure components registered before Run
// (database, redis). Phase 2 runs configure callbacks that build the
// business layer on top of them and may register further components, such
// as the HTTP server, which are started before the service reports ready.
//
//	app, err := bootstrap.NewApp(&cfg)
//	_ = app.RegisterComponent(database.NewComponent(cfg.Database, log))
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    return a.RegisterComponent(server.NewComponent(srv))
//	})
//	err = app.Run(ctx)
//
// Shutdown on SIGINT/SIGTERM stops components in reverse order, then runs
// OnStop hooks.
package bootstrap
