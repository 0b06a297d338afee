// Package store keeps JSON documents in SQLite, grouped into named
// collections.
//
// A document is one row of the documents table. seq is the insertion
// clock, (collection, id) is the identity, and body holds the JSON object.
// Put on an existing id swaps the body and keeps seq, so a document does
// not move among its ties when it is rewritten.
//
// Queries arrive as queryir.Select values. querysql compiles them with the
// document layout, so filters and sort keys run inside SQLite through
// json_extract, and every SELECT ends with seq ASC, id COLLATE BINARY ASC.
//
// Open applies WAL, synchronous=NORMAL, a busy timeout (WithBusyTimeout,
// 5s by default) and foreign_keys, then runs pending migrations. user_version
// records the last one applied.
package store
