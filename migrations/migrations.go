// Package migrations holds the versioned schema changes of the checkout
// MongoDB database. Every migration registers itself on init and is applied
// in ascending version order by the storage layer.
package migrations

import (
	"context"
	"maps"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"
)

// MigrationFunc applies or reverts a schema change on the given database.
type MigrationFunc func(ctx context.Context, database *mongo.Database) error

// Migration is a single versioned schema change.
type Migration struct {
	Version int
	Name    string
	Up      MigrationFunc
	Down    MigrationFunc
}

var registry = make(map[int]Migration)

// AddMigration registers a migration. Registering the same version twice
// replaces the previous one.
func AddMigration(version int, name string, up, down MigrationFunc) {
	registry[version] = Migration{
		Version: version,
		Name:    name,
		Up:      up,
		Down:    down,
	}
}

// DelMigration removes a migration from the registry.
func DelMigration(version int) { delete(registry, version) }

// SortedByVersionAsc returns the registered migrations in ascending version
// order.
func SortedByVersionAsc() []Migration {
	migs := make([]Migration, 0, len(registry))
	for _, mig := range registry {
		migs = append(migs, mig)
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	return migs
}

// Latest returns the highest registered version, or 0 if there is none.
func Latest() int {
	latest := 0
	for version := range registry {
		if version > latest {
			latest = version
		}
	}
	return latest
}

// AsMap returns a copy of the registry indexed by version.
func AsMap() map[int]Migration {
	return maps.Clone(registry)
}
