package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/aoztanir/email-agent/models"
	"github.com/aoztanir/email-agent/utils"
)

// PostgresStore persists prompts and scraped companies to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS prompt (
			id              UUID        PRIMARY KEY,
			query_text      TEXT        NOT NULL,
			total_requested INT         NOT NULL,
			total_found     INT         NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS scraped_company (
			id                BIGSERIAL    PRIMARY KEY,
			name              TEXT         NOT NULL DEFAULT '',
			address           TEXT         NOT NULL DEFAULT '',
			website           TEXT         NOT NULL DEFAULT '',
			normalized_domain TEXT         UNIQUE NOT NULL,
			phone_number      TEXT         NOT NULL DEFAULT '',
			reviews_count     INT,
			reviews_average   NUMERIC(3,1),
			store_shopping    VARCHAR(3)   NOT NULL DEFAULT 'No',
			in_store_pickup   VARCHAR(3)   NOT NULL DEFAULT 'No',
			store_delivery    VARCHAR(3)   NOT NULL DEFAULT 'No',
			place_type        TEXT         NOT NULL DEFAULT '',
			opens_at          TEXT         NOT NULL DEFAULT '',
			introduction      TEXT         NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS prompt_to_scraped_company (
			prompt_id          UUID   NOT NULL REFERENCES prompt(id),
			scraped_company_id BIGINT NOT NULL REFERENCES scraped_company(id),
			PRIMARY KEY (prompt_id, scraped_company_id)
		);

		CREATE INDEX IF NOT EXISTS idx_scraped_company_created ON scraped_company(created_at);
	`)
	return err
}

// CreatePrompt records one search run and returns it with its generated ID.
func (ps *PostgresStore) CreatePrompt(query string, totalRequested, totalFound int) (*models.Prompt, error) {
	prompt := &models.Prompt{
		ID:             uuid.NewString(),
		QueryText:      query,
		TotalRequested: totalRequested,
		TotalFound:     totalFound,
		CreatedAt:      time.Now(),
	}

	_, err := ps.db.Exec(`
		INSERT INTO prompt (id, query_text, total_requested, total_found, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, prompt.ID, prompt.QueryText, prompt.TotalRequested, prompt.TotalFound, prompt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: create prompt: %w", err)
	}
	return prompt, nil
}

const companyColumns = `
	id, name, address, website, normalized_domain, phone_number,
	reviews_count, reviews_average, store_shopping, in_store_pickup,
	store_delivery, place_type, opens_at, introduction, created_at, updated_at`

// UpsertCompanies inserts companies keyed on normalized_domain, refreshing
// the record on conflict, and returns the stored rows with their IDs.
func (ps *PostgresStore) UpsertCompanies(companies []*models.Company) ([]*models.Company, error) {
	if len(companies) == 0 {
		return nil, nil
	}

	valueStrings := make([]string, 0, len(companies))
	valueArgs := make([]interface{}, 0, len(companies)*13)

	for idx, c := range companies {
		base := idx * 13
		placeholders := make([]string, 13)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			c.Name, c.Address, c.Website, c.NormalizedDomain, c.PhoneNumber,
			c.ReviewsCount, c.ReviewsAverage, c.StoreShopping, c.InStorePickup,
			c.StoreDelivery, c.PlaceType, c.OpensAt, c.Introduction)
	}

	query := fmt.Sprintf(`
		INSERT INTO scraped_company (
			name, address, website, normalized_domain, phone_number,
			reviews_count, reviews_average, store_shopping, in_store_pickup,
			store_delivery, place_type, opens_at, introduction
		)
		VALUES %s
		ON CONFLICT (normalized_domain) DO UPDATE SET
			name            = EXCLUDED.name,
			address         = EXCLUDED.address,
			website         = EXCLUDED.website,
			phone_number    = EXCLUDED.phone_number,
			reviews_count   = EXCLUDED.reviews_count,
			reviews_average = EXCLUDED.reviews_average,
			store_shopping  = EXCLUDED.store_shopping,
			in_store_pickup = EXCLUDED.in_store_pickup,
			store_delivery  = EXCLUDED.store_delivery,
			place_type      = EXCLUDED.place_type,
			opens_at        = EXCLUDED.opens_at,
			introduction    = EXCLUDED.introduction,
			updated_at      = NOW()
		RETURNING %s
	`, strings.Join(valueStrings, ","), companyColumns)

	rows, err := ps.db.Query(query, valueArgs...)
	if err != nil {
		return nil, fmt.Errorf("postgres: upsert companies: %w", err)
	}
	defer rows.Close()

	return scanCompanies(rows)
}

// LinkPrompt associates stored companies with the run that produced them.
func (ps *PostgresStore) LinkPrompt(promptID string, companyIDs []int64) error {
	if len(companyIDs) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(companyIDs))
	valueArgs := make([]interface{}, 0, len(companyIDs)+1)
	valueArgs = append(valueArgs, promptID)

	for idx, id := range companyIDs {
		valueStrings = append(valueStrings, fmt.Sprintf("($1,$%d)", idx+2))
		valueArgs = append(valueArgs, id)
	}

	query := fmt.Sprintf(`
		INSERT INTO prompt_to_scraped_company (prompt_id, scraped_company_id)
		VALUES %s
		ON CONFLICT (prompt_id, scraped_company_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := ps.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: link prompt: %w", err)
	}
	return nil
}

// FetchCompanies returns stored companies, newest first. With a non-empty
// promptID only the companies linked to that run are returned.
func (ps *PostgresStore) FetchCompanies(promptID string) ([]*models.Company, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if promptID == "" {
		rows, err = ps.db.Query(fmt.Sprintf(`
			SELECT %s FROM scraped_company ORDER BY created_at DESC
		`, companyColumns))
	} else {
		rows, err = ps.db.Query(`
			SELECT c.id, c.name, c.address, c.website, c.normalized_domain,
			       c.phone_number, c.reviews_count, c.reviews_average,
			       c.store_shopping, c.in_store_pickup, c.store_delivery,
			       c.place_type, c.opens_at, c.introduction, c.created_at, c.updated_at
			FROM scraped_company c
			JOIN prompt_to_scraped_company link ON link.scraped_company_id = c.id
			WHERE link.prompt_id = $1
			ORDER BY c.created_at DESC
		`, promptID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch companies: %w", err)
	}
	defer rows.Close()

	return scanCompanies(rows)
}

func scanCompanies(rows *sql.Rows) ([]*models.Company, error) {
	var companies []*models.Company
	for rows.Next() {
		c := &models.Company{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Address, &c.Website, &c.NormalizedDomain,
			&c.PhoneNumber, &c.ReviewsCount, &c.ReviewsAverage,
			&c.StoreShopping, &c.InStorePickup, &c.StoreDelivery,
			&c.PlaceType, &c.OpensAt, &c.Introduction, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
