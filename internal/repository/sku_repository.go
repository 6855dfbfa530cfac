package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSKUNotFound = domain.NewNotFoundError("SKU not found")
)

// SKURepository defines the interface for SKU data access
type SKURepository interface {
	CreateMany(ctx context.Context, skus []*domain.SKU) error
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.SKU, error)
	Update(ctx context.Context, sku *domain.SKU) error
	ClearDimensions(ctx context.Context, productID uuid.UUID, at time.Time) error
}

type skuRepository struct {
	db DBTX
}

// NewSKURepository creates a new instance of SKURepository
func NewSKURepository(db DBTX) SKURepository {
	return &skuRepository{db: db}
}

const skuColumns = `id, product_id, variant_combination, combination_key, price, quantity, dimensions, created_at, updated_at`

// skuInsertBatch keeps each multi-row insert well under PostgreSQL's 65535 bind parameters
const skuInsertBatch = 1000

// CreateMany bulk-inserts SKUs, skuInsertBatch rows per statement
func (r *skuRepository) CreateMany(ctx context.Context, skus []*domain.SKU) error {
	for start := 0; start < len(skus); start += skuInsertBatch {
		end := min(start+skuInsertBatch, len(skus))
		if err := r.insertBatch(ctx, skus[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *skuRepository) insertBatch(ctx context.Context, skus []*domain.SKU) error {
	const columnsPerRow = 9
	placeholders := make([]string, len(skus))
	args := make([]any, 0, len(skus)*columnsPerRow)
	for i, sku := range skus {
		base := i * columnsPerRow
		marks := make([]string, columnsPerRow)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders[i] = "(" + strings.Join(marks, ", ") + ")"
		args = append(args,
			sku.ID,
			sku.ProductID,
			sku.Combination,
			sku.Combination.Key(),
			sku.Price,
			sku.Quantity,
			sku.Dimensions,
			sku.CreatedAt,
			sku.UpdatedAt,
		)
	}

	query := `INSERT INTO skus (` + skuColumns + `) VALUES ` + strings.Join(placeholders, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "skus_product_combination_key") {
			return domain.NewConflictError("Duplicate variant combination for product")
		}
		return fmt.Errorf("failed to create skus: %w", err)
	}

	return nil
}

// DeleteByProduct removes every SKU owned by a product and reports how many were removed
func (r *skuRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM skus WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete skus: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ListByProduct returns the fully populated SKUs of a product
func (r *skuRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.SKU, error) {
	query := `SELECT ` + skuColumns + ` FROM skus WHERE product_id = $1 ORDER BY combination_key`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skus: %w", err)
	}
	defer rows.Close()

	skus := []*domain.SKU{}
	for rows.Next() {
		var (
			sku        = &domain.SKU{}
			key        string
			dimensions []byte
		)
		err := rows.Scan(
			&sku.ID,
			&sku.ProductID,
			&sku.Combination,
			&key,
			&sku.Price,
			&sku.Quantity,
			&dimensions,
			&sku.CreatedAt,
			&sku.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sku: %w", err)
		}
		if dimensions != nil {
			sku.Dimensions = &domain.Dimensions{}
			if err := sku.Dimensions.Scan(dimensions); err != nil {
				return nil, err
			}
		}
		skus = append(skus, sku)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skus: %w", err)
	}

	return skus, nil
}

// Update writes the price, quantity and dimensions of a SKU
func (r *skuRepository) Update(ctx context.Context, sku *domain.SKU) error {
	query := `
		UPDATE skus
		SET price = $2, quantity = $3, dimensions = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, sku.ID, sku.Price, sku.Quantity, sku.Dimensions, sku.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update sku: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSKUNotFound
	}

	return nil
}

// ClearDimensions drops the dimensions of every SKU of a product
func (r *skuRepository) ClearDimensions(ctx context.Context, productID uuid.UUID, at time.Time) error {
	query := `UPDATE skus SET dimensions = NULL, updated_at = $2 WHERE product_id = $1 AND dimensions IS NOT NULL`

	if _, err := r.db.ExecContext(ctx, query, productID, at); err != nil {
		return fmt.Errorf("failed to clear sku dimensions: %w", err)
	}

	return nil
}
