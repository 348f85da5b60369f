// Package storage provides SQLite-based persistence for search runs.
//
// A run records one model searched against one sequence source together
// with the pipeline accounting of that search. Its reported hits and their
// domains are stored alongside it.
//
// # Database Schema
//
// Tables:
//   - runs: model identity, sequence source, Z and domZ, hit counts
//   - hits: ranked hits of a run (score, lnP, flags)
//   - domains: envelope, alignment and model coordinates of each hit domain
//   - schema_version: applied migrations, compared as semantic versions
//
// Only lnP is stored. E-values are computed on read as exp(lnP) times the
// run's Z.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	run, err := storage.SaveResult(ctx, db, "targets.fa", res)
//	hits, err := db.ListHits(ctx, run.ID)
//
// # Transactions
//
// Use transactions for atomic operations:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.CreateRun(ctx, run); err != nil {
//	    return err
//	}
//	for _, rec := range res.Records() {
//	    if _, err := tx.SaveHit(ctx, run.ID, &rec); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// Deleting a run removes its hits and domains.
//
// # Build Modes
//
// The default build uses the pure Go driver modernc.org/sqlite. Building
// with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3 (CGO).
package storage
