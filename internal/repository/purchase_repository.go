package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

type purchaseRepository struct {
	db DBTX
}

// NewPurchaseRepository builds repository.
func NewPurchaseRepository(db DBTX) PurchaseRepository {
	return &purchaseRepository{db: db}
}

const purchaseColumns = `id, ticket_id, buyer_id, seller_id, quantity, unit_price, cost, charged, seller_proceeds, request_key, created_at`

func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	const query = `
        INSERT INTO purchases (id, ticket_id, buyer_id, seller_id, quantity, unit_price, cost, charged, seller_proceeds, request_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		purchase.ID,
		purchase.TicketID,
		purchase.BuyerID,
		purchase.SellerID,
		purchase.Quantity,
		purchase.UnitPrice,
		purchase.Cost,
		purchase.Charged,
		purchase.SellerProceeds,
		purchase.RequestKey,
	).Scan(&purchase.CreatedAt)
	return mapPgError(err)
}

func (r *purchaseRepository) GetByRequestKey(ctx context.Context, buyerID, key string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE buyer_id=$1 AND request_key=$2`
	return scanPurchase(r.db.QueryRow(ctx, query, buyerID, key))
}

func (r *purchaseRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE buyer_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *purchase)
	}
	return result, rows.Err()
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var purchase domain.Purchase
	if err := row.Scan(
		&purchase.ID,
		&purchase.TicketID,
		&purchase.BuyerID,
		&purchase.SellerID,
		&purchase.Quantity,
		&purchase.UnitPrice,
		&purchase.Cost,
		&purchase.Charged,
		&purchase.SellerProceeds,
		&purchase.RequestKey,
		&purchase.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &purchase, nil
}
