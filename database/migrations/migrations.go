// Package migrations registers the relational schema. Importing it for
// side effects makes every step known to pkg/migration.
package migrations
