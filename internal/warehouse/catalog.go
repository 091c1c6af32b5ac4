package warehouse

import (
	"context"
	"errors"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/viper"

	"shipquote/internal/errs"
)

// Catalog supplies the warehouse list. It is consulted once per quote and
// callers must not mutate the returned slice.
type Catalog interface {
	Warehouses(ctx context.Context) ([]Warehouse, error)
}

// StaticCatalog serves a fixed in-memory list.
type StaticCatalog []Warehouse

func (c StaticCatalog) Warehouses(context.Context) ([]Warehouse, error) {
	return slices.Clone(c), nil
}

// FileCatalog reads a JSON document of the form {"warehouses": [...]} on
// every call, so edits to the file apply to the next quote.
type FileCatalog struct {
	Path string
}

func NewFileCatalog(path string) *FileCatalog { return &FileCatalog{Path: path} }

func (c *FileCatalog) Warehouses(context.Context) ([]Warehouse, error) {
	v := viper.New()
	v.SetConfigFile(c.Path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, errs.NewConfigurationErrorWithCause("read warehouse catalog "+c.Path, err)
	}
	var ws []Warehouse
	if err := v.UnmarshalKey("warehouses", &ws); err != nil {
		return nil, errs.NewConfigurationErrorWithCause("decode warehouse catalog "+c.Path, err)
	}
	if err := validate(ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// Querier is the subset of *pgxpool.Pool used by PostgresCatalog.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresCatalog reads the warehouses table. It never writes.
type PostgresCatalog struct {
	db Querier
}

func NewPostgresCatalog(db Querier) *PostgresCatalog { return &PostgresCatalog{db: db} }

const selectWarehouses = `
    SELECT id, country, zip, carriers_allowed
    FROM warehouses
    ORDER BY position, id`

func (c *PostgresCatalog) Warehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := c.db.Query(ctx, selectWarehouses)
	if err != nil {
		return nil, catalogQueryError(err)
	}
	ws, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Warehouse, error) {
		var w Warehouse
		err := row.Scan(&w.ID, &w.Country, &w.Zip, &w.CarriersAllowed)
		return w, err
	})
	if err != nil {
		return nil, catalogQueryError(err)
	}
	if err := validate(ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func catalogQueryError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" { // undefined_table
		return errs.NewConfigurationErrorWithCause("warehouses table is missing", err)
	}
	return errs.NewConfigurationErrorWithCause("query warehouses", err)
}
