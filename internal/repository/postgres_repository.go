package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "tracker_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) AddProduct(ctx context.Context, url string) error {
	query := `INSERT INTO products (url, created_at) VALUES ($1, NOW())
	          ON CONFLICT (url) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, url); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repository) AppendRecord(ctx context.Context, record *domain.PriceRecord) error {
	query := `INSERT INTO price_history
	          (id, product_url, name, price, currency, main_image_url, is_available, recorded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, insertErr := r.db.ExecContext(ctx, query,
		record.ID,
		record.ProductURL,
		record.Name,
		record.Price,
		record.Currency,
		nullableString(record.MainImageURL),
		record.IsAvailable,
		record.Timestamp)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrDuplicateRecord
			case "23503":
				return ErrProductNotFound
			}
		}
		return fmt.Errorf("insert price record: %w", insertErr)
	}
	return nil
}

func (r *Repository) HistoryFor(ctx context.Context, url string) (domain.PriceHistory, error) {
	query := `SELECT id, product_url, name, price, currency, main_image_url, is_available, recorded_at
	          FROM price_history WHERE product_url = $1 ORDER BY recorded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var history domain.PriceHistory
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		history = append(history, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return history, nil
}

func (r *Repository) LatestRecord(ctx context.Context, url string) (*domain.PriceRecord, error) {
	query := `SELECT id, product_url, name, price, currency, main_image_url, is_available, recorded_at
	          FROM price_history WHERE product_url = $1 ORDER BY recorded_at DESC LIMIT 1`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *Repository) AllTrackedURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT url FROM products ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query tracked urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return urls, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]domain.ProductSummary, error) {
	// Latest record per product via lateral join; products with no history
	// yet come back with null price fields.
	query := `SELECT p.url, ph.name, ph.price, ph.currency, ph.main_image_url, ph.is_available
	          FROM products p
	          LEFT JOIN LATERAL (
	              SELECT name, price, currency, main_image_url, is_available
	              FROM price_history
	              WHERE product_url = p.url
	              ORDER BY recorded_at DESC LIMIT 1
	          ) ph ON true
	          ORDER BY p.created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ProductSummary
	for rows.Next() {
		var s domain.ProductSummary
		var name, currency, imageURL sql.NullString
		var price decimal.NullDecimal
		var available sql.NullBool
		if err := rows.Scan(&s.URL, &name, &price, &currency, &imageURL, &available); err != nil {
			return nil, fmt.Errorf("scan product summary: %w", err)
		}
		if price.Valid {
			s.LatestPrice = &price.Decimal
		}
		s.LatestName = name.String
		s.Currency = currency.String
		s.MainImageURL = imageURL.String
		s.IsAvailable = available.Bool
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return summaries, nil
}

func (r *Repository) RemoveProduct(ctx context.Context, url string) error {
	// price_history rows go with the product via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE url = $1`, url)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.PriceRecord, error) {
	var record domain.PriceRecord
	var imageURL sql.NullString
	err := row.Scan(
		&record.ID,
		&record.ProductURL,
		&record.Name,
		&record.Price,
		&record.Currency,
		&imageURL,
		&record.IsAvailable,
		&record.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan price record: %w", err)
	}

	record.MainImageURL = imageURL.String
	return &record, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
