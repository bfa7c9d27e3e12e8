// Package database provides the GORM connection used by the account, provider,
// role and session stores.
//
// The dialector is chosen from Config.Driver: "postgres" for deployments and
// "sqlite" for tests and single-node setups. Queries are logged through the
// service logger, and driver errors are translated to AppError values with
// FromError.
//
//	db, err := database.New(ctx, cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// The Component type wraps DB for the component registry and runs
// auto-migration on Start.
package database
