package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product/dto"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, company_id, name, sku, quantity, variants, created_at, updated_at
        )
        VALUES (
            :id, :company_id, :name, :sku, :quantity, :variants, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.findByID(ctx, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT * FROM products WHERE id = $1`
	if postgres.InTx(ctx) {
		query += ` FOR UPDATE`
	}
	return r.findByID(ctx, query, id)
}

func (r *PGRepository) FindByName(ctx context.Context, companyID, name string) (*model.Product, error) {
	query := `SELECT * FROM products WHERE company_id = $1 AND name = $2 ORDER BY created_at ASC, id ASC LIMIT 1`
	var product model.Product
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &product, query, companyID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) findByID(ctx context.Context, query, id string) (*model.Product, error) {
	if !postgres.IsUUID(id) {
		return nil, nil
	}
	var product model.Product
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CompanyID != "" {
		conditions = append(conditions, "company_id = :company_id")
		args["company_id"] = f.CompanyID
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	// List
	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Whitelisted, never interpolate user input
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "quantity":
			orderBy = "quantity"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            sku = :sku,
            updated_at = :updated_at
        WHERE id = :id AND company_id = :company_id
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, p)
	return err
}

func (r *PGRepository) UpdateStock(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET quantity = :quantity,
            variants = :variants,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, p)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, companyID, sku, excludeID string) (bool, error) {
	if sku == "" {
		return true, nil
	}
	var count int
	query := `SELECT count(*) FROM products WHERE company_id = $1 AND sku = $2`
	args := []interface{}{companyID, sku}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}

	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &count, query, args...)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
