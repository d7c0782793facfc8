// Package database opens the SQL connection behind the gorm Document Store.
//
// Connect supports the mysql and sqlite drivers. The mongo driver is handled
// by the docstore package directly and only reads URI and TablePrefix from
// Config.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for both dialects and
// MissingColumns compares them against the columns a store expects. The
// "store inspect" command uses both to report drifted tables.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	columns, err := database.GetTableColumns(db, "records")
package database
