package db

import (
	"context"
	"embed"
	"strings"

	"github.com/pkg/errors"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate はスキーマを作成する（CREATE ... IF NOT EXISTS のみなので何度実行しても良い）
func Migrate(ctx context.Context, db *DB) error {
	buf, err := schemaFS.ReadFile("schema/" + string(db.Dialect) + ".sql")
	if err != nil {
		return errors.Wrapf(err, "schema for %s", db.Dialect)
	}
	// go-sql-driver/mysql は multiStatements 無効なので1文ずつ流す
	for _, stmt := range strings.Split(string(buf), ";\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migrate: %.60s", stmt)
		}
	}
	return nil
}
