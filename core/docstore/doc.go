// Package docstore persists canonical items, one collection per kind.
//
// Store is the narrow document interface the reconciler and cache depend on:
// Find, FindOne, Upsert, DeleteByID and DropCollection. Two backends exist:
//
//   - GormStore: one table per kind on mysql or sqlite. Filterable fields are
//     real columns; the full item is kept as a JSON document column.
//   - MongoStore: one mongo collection per kind keyed by the item id.
//
// Open picks the backend from database.Config.Driver. Each upsert or delete is
// atomic on its own; no multi-item transactions are used.
package docstore
