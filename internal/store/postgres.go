package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/db"
	"github.com/sells-group/mfi-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	tier   TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	size   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cycles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	start_date TIMESTAMPTZ,
	end_date   TIMESTAMPTZ,
	active     BOOLEAN NOT NULL DEFAULT false,
	locked_at  TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_cycles_single_active ON cycles(active) WHERE active;

CREATE TABLE IF NOT EXISTS categories (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	weight     DOUBLE PRECISION NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS brands (
	id           TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL REFERENCES companies(id),
	product_type TEXT NOT NULL,
	name         TEXT NOT NULL,
	active       BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS answers (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	type         TEXT NOT NULL,
	company_id   TEXT NOT NULL REFERENCES companies(id),
	cycle_id     TEXT NOT NULL REFERENCES cycles(id),
	category_id  TEXT NOT NULL,
	tier         TEXT NOT NULL,
	response     TEXT NOT NULL,
	points       DOUBLE PRECISION NOT NULL DEFAULT 0,
	approved     BOOLEAN NOT NULL DEFAULT false,
	submitted_by TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (type, company_id, cycle_id, category_id, tier)
);

CREATE TABLE IF NOT EXISTS assessment_scores (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id  TEXT NOT NULL REFERENCES companies(id),
	cycle_id    TEXT NOT NULL,
	category_id TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL DEFAULT 0,
	weight      DOUBLE PRECISION NOT NULL DEFAULT 0,
	score       DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS product_tests (
	id                     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	brand_id               TEXT NOT NULL REFERENCES brands(id),
	company_id             TEXT NOT NULL,
	cycle_id               TEXT NOT NULL,
	product_type           TEXT NOT NULL DEFAULT '',
	sample_production_date TIMESTAMPTZ,
	sample_collection_date TIMESTAMPTZ,
	batch_number           TEXT NOT NULL DEFAULT '',
	collector_name         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS micronutrient_scores (
	id                        TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	product_test_id           TEXT NOT NULL REFERENCES product_tests(id) ON DELETE CASCADE,
	product_micro_nutrient_id TEXT NOT NULL DEFAULT '',
	name                      TEXT NOT NULL,
	value                     DOUBLE PRECISION NOT NULL,
	expected_value            DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS computed_scores (
	company_id  TEXT NOT NULL,
	cycle_id    TEXT NOT NULL,
	score_type  TEXT NOT NULL,
	value       DOUBLE PRECISION,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (company_id, cycle_id, score_type)
);

CREATE TABLE IF NOT EXISTS rankings (
	cycle_id     TEXT NOT NULL,
	granularity  TEXT NOT NULL,
	product_type TEXT NOT NULL DEFAULT '',
	entity_id    TEXT NOT NULL,
	entity_name  TEXT NOT NULL,
	kind         TEXT NOT NULL,
	company_id   TEXT NOT NULL,
	rank         INTEGER NOT NULL,
	mfi          DOUBLE PRECISION NOT NULL,
	computed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (cycle_id, granularity, product_type, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_answers_company_cycle ON answers(company_id, cycle_id);
CREATE INDEX IF NOT EXISTS idx_assessment_scores_company_cycle ON assessment_scores(company_id, cycle_id);
CREATE INDEX IF NOT EXISTS idx_product_tests_brand ON product_tests(brand_id);
CREATE INDEX IF NOT EXISTS idx_micronutrient_scores_test ON micronutrient_scores(product_test_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Reader ---

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, tier, active, size FROM companies ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Company, error) {
		var c model.Company
		err := row.Scan(&c.ID, &c.Name, &c.Tier, &c.Active, &c.Size)
		return c, err
	})
	return out, eris.Wrap(err, "postgres: scan companies")
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, tier, active, size FROM companies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Tier, &c.Active, &c.Size)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return &c, nil
}

const pgCycleCols = `id, name, start_date, end_date, active, locked_at`

func scanPgCycle(row pgx.Row) (*model.Cycle, error) {
	var c model.Cycle
	var start, end *time.Time
	if err := row.Scan(&c.ID, &c.Name, &start, &end, &c.Active, &c.LockedAt); err != nil {
		return nil, err
	}
	if start != nil {
		c.StartDate = *start
	}
	if end != nil {
		c.EndDate = *end
	}
	return &c, nil
}

func (s *PostgresStore) GetCycle(ctx context.Context, id string) (*model.Cycle, error) {
	c, err := scanPgCycle(s.pool.QueryRow(ctx, `SELECT `+pgCycleCols+` FROM cycles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "cycle %s", id)
	}
	return c, eris.Wrapf(err, "postgres: get cycle %s", id)
}

func (s *PostgresStore) GetActiveCycle(ctx context.Context) (*model.Cycle, error) {
	c, err := scanPgCycle(s.pool.QueryRow(ctx, `SELECT `+pgCycleCols+` FROM cycles WHERE active LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "active cycle")
	}
	return c, eris.Wrap(err, "postgres: get active cycle")
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, parent_id, name, weight, sort_order FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list categories")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Category, error) {
		var c model.Category
		err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.Weight, &c.SortOrder)
		return c, err
	})
	return out, eris.Wrap(err, "postgres: scan categories")
}

func (s *PostgresStore) ListBrands(ctx context.Context, companyID string) ([]model.Brand, error) {
	var w where
	w.eq("company_id", companyID)
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, product_type, name, active FROM brands`+w.postgres()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list brands")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Brand, error) {
		var b model.Brand
		err := row.Scan(&b.ID, &b.CompanyID, &b.ProductType, &b.Name, &b.Active)
		return b, err
	})
	return out, eris.Wrap(err, "postgres: scan brands")
}

func (s *PostgresStore) ListAnswers(ctx context.Context, filter AnswerFilter) ([]model.Answer, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("cycle_id", filter.CycleID)
	w.eq("type", string(filter.Type))

	rows, err := s.pool.Query(ctx, `SELECT `+answerCols+` FROM answers`+w.postgres()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list answers")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Answer, error) {
		a, err := scanAnswer(row)
		if err != nil {
			return model.Answer{}, err
		}
		return *a, nil
	})
	return out, eris.Wrap(err, "postgres: scan answers")
}

func (s *PostgresStore) ListAssessmentScores(ctx context.Context, filter ScoreFilter) ([]model.AssessmentScore, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("cycle_id", filter.CycleID)
	w.eq("type", string(filter.Type))

	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, cycle_id, category_id, type, value, weight, score FROM assessment_scores`+
			w.postgres()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessment scores")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AssessmentScore, error) {
		var sc model.AssessmentScore
		err := row.Scan(&sc.ID, &sc.CompanyID, &sc.CycleID, &sc.CategoryID, &sc.Type, &sc.Value, &sc.Weight, &sc.Score)
		return sc, err
	})
	return out, eris.Wrap(err, "postgres: scan assessment scores")
}

func (s *PostgresStore) ListProductTests(ctx context.Context, filter TestFilter) ([]model.ProductTest, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("cycle_id", filter.CycleID)
	w.eq("brand_id", filter.BrandID)
	clause := w.postgres()

	rows, err := s.pool.Query(ctx,
		`SELECT id, brand_id, company_id, cycle_id, product_type, sample_production_date, sample_collection_date,
		        batch_number, collector_name
		 FROM product_tests`+clause+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list product tests")
	}
	tests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ProductTest, error) {
		var t model.ProductTest
		var produced, collected *time.Time
		err := row.Scan(&t.ID, &t.BrandID, &t.CompanyID, &t.CycleID, &t.ProductType, &produced, &collected,
			&t.BatchNumber, &t.CollectorName)
		if produced != nil {
			t.SampleProductionDate = *produced
		}
		if collected != nil {
			t.SampleCollectionDate = *collected
		}
		return t, err
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan product tests")
	}
	if len(tests) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(tests))
	for i, t := range tests {
		index[t.ID] = i
	}

	scoreRows, err := s.pool.Query(ctx,
		`SELECT id, product_test_id, product_micro_nutrient_id, name, value, expected_value
		 FROM micronutrient_scores
		 WHERE product_test_id IN (SELECT id FROM product_tests`+clause+`)
		 ORDER BY product_test_id, name, id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list micronutrient scores")
	}
	defer scoreRows.Close()

	for scoreRows.Next() {
		var m model.MicroNutrientScore
		var testID string
		if err := scoreRows.Scan(&m.ID, &testID, &m.ProductMicroNutrientID, &m.Name, &m.Value, &m.ExpectedValue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan micronutrient score")
		}
		if i, ok := index[testID]; ok {
			tests[i].Scores = append(tests[i].Scores, m)
		}
	}
	return tests, eris.Wrap(scoreRows.Err(), "postgres: list micronutrient scores iterate")
}

func (s *PostgresStore) ListComputedScores(ctx context.Context, cycleID, companyID string) ([]model.ComputedAssessmentScore, error) {
	var w where
	w.eq("cycle_id", cycleID)
	w.eq("company_id", companyID)

	rows, err := s.pool.Query(ctx,
		`SELECT company_id, cycle_id, score_type, value, computed_at FROM computed_scores`+w.postgres()+
			` ORDER BY company_id, score_type`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list computed scores")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ComputedAssessmentScore, error) {
		var c model.ComputedAssessmentScore
		err := row.Scan(&c.CompanyID, &c.CycleID, &c.ScoreType, &c.Value, &c.ComputedAt)
		return c, err
	})
	return out, eris.Wrap(err, "postgres: scan computed scores")
}

func (s *PostgresStore) ListRankings(ctx context.Context, cycleID, granularity string, productType model.ProductType) ([]model.RankingEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cycle_id, granularity, product_type, entity_id, entity_name, kind, company_id, rank, mfi, computed_at
		 FROM rankings WHERE cycle_id = $1 AND granularity = $2 AND product_type = $3
		 ORDER BY rank, entity_id`,
		cycleID, granularity, string(productType))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rankings")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.RankingEntry, error) {
		var r model.RankingEntry
		err := row.Scan(&r.CycleID, &r.Granularity, &r.ProductType, &r.EntityID, &r.EntityName, &r.Kind,
			&r.CompanyID, &r.Rank, &r.MFI, &r.ComputedAt)
		return r, err
	})
	return out, eris.Wrap(err, "postgres: scan rankings")
}

// --- Writer ---

var computedScoreColumns = []string{"company_id", "cycle_id", "score_type", "value", "computed_at"}

func (s *PostgresStore) SaveComputedScores(ctx context.Context, scores []model.ComputedAssessmentScore) error {
	rows := make([][]any, 0, len(scores))
	for _, c := range scores {
		rows = append(rows, []any{c.CompanyID, c.CycleID, string(c.ScoreType), c.Value, c.ComputedAt.UTC()})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "computed_scores",
		Columns:      computedScoreColumns,
		ConflictKeys: []string{"company_id", "cycle_id", "score_type"},
	}, rows)
	return eris.Wrap(err, "postgres: save computed scores")
}

var rankingColumns = []string{
	"cycle_id", "granularity", "product_type", "entity_id", "entity_name", "kind", "company_id", "rank", "mfi", "computed_at",
}

func (s *PostgresStore) SaveRankings(ctx context.Context, cycleID, granularity string, productType model.ProductType, entries []model.RankingEntry) error {
	rows := make([][]any, 0, len(entries))
	for _, r := range entries {
		rows = append(rows, []any{
			cycleID, granularity, string(productType), r.EntityID, r.EntityName, r.Kind, r.CompanyID,
			int32(r.Rank), r.MFI, r.ComputedAt.UTC(),
		})
	}
	_, err := db.ReplaceSnapshot(ctx, s.pool, db.ReplaceConfig{
		Table:   "rankings",
		Columns: rankingColumns,
		Match: map[string]any{
			"cycle_id":     cycleID,
			"granularity":  granularity,
			"product_type": string(productType),
		},
	}, rows)
	return eris.Wrap(err, "postgres: save rankings")
}

// --- Loader ---

func (s *PostgresStore) UpsertCompany(ctx context.Context, c model.Company) error {
	if err := checkCompanyTier(ctx, s, c); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, name, tier, active, size) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, tier = EXCLUDED.tier,
		   active = EXCLUDED.active, size = EXCLUDED.size`,
		c.ID, c.Name, string(c.Tier), c.Active, c.Size,
	)
	return eris.Wrapf(err, "postgres: upsert company %s", c.ID)
}

func (s *PostgresStore) UpsertCycle(ctx context.Context, c model.Cycle) error {
	return s.inTx(ctx, "upsert cycle", func(tx pgx.Tx) error {
		if c.Active {
			if _, err := tx.Exec(ctx, `UPDATE cycles SET active = false WHERE id <> $1 AND active`, c.ID); err != nil {
				return eris.Wrap(err, "postgres: deactivate cycles")
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO cycles (id, name, start_date, end_date, active, locked_at) VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, start_date = EXCLUDED.start_date,
			   end_date = EXCLUDED.end_date, active = EXCLUDED.active, locked_at = EXCLUDED.locked_at`,
			c.ID, c.Name, c.StartDate, c.EndDate, c.Active, c.LockedAt,
		)
		return eris.Wrapf(err, "postgres: upsert cycle %s", c.ID)
	})
}

func (s *PostgresStore) UpsertCategory(ctx context.Context, c model.Category) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (id, parent_id, name, weight, sort_order) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET parent_id = EXCLUDED.parent_id, name = EXCLUDED.name,
		   weight = EXCLUDED.weight, sort_order = EXCLUDED.sort_order`,
		c.ID, c.ParentID, c.Name, c.Weight, c.SortOrder,
	)
	return eris.Wrapf(err, "postgres: upsert category %s", c.ID)
}

func (s *PostgresStore) UpsertBrand(ctx context.Context, b model.Brand) error {
	if !b.ProductType.Valid() {
		return eris.Errorf("postgres: brand %s has unknown product type %q", b.ID, b.ProductType)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO brands (id, company_id, product_type, name, active) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET company_id = EXCLUDED.company_id, product_type = EXCLUDED.product_type,
		   name = EXCLUDED.name, active = EXCLUDED.active`,
		b.ID, b.CompanyID, string(b.ProductType), b.Name, b.Active,
	)
	return eris.Wrapf(err, "postgres: upsert brand %s", b.ID)
}

// UpsertAnswer stores a, replacing any earlier answer for the same
// (type, company, cycle, category, tier) in place.
func (s *PostgresStore) UpsertAnswer(ctx context.Context, a model.Answer) (*model.Answer, error) {
	now := s.now().UTC()
	if err := checkAnswer(ctx, s, a, now); err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	stored, err := scanAnswer(s.pool.QueryRow(ctx,
		`INSERT INTO answers (`+answerCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (type, company_id, cycle_id, category_id, tier)
		 DO UPDATE SET response = EXCLUDED.response, points = EXCLUDED.points, approved = EXCLUDED.approved,
		   submitted_by = EXCLUDED.submitted_by, updated_at = EXCLUDED.updated_at
		 RETURNING `+answerCols,
		a.ID, string(a.Type), a.CompanyID, a.CycleID, a.CategoryID, string(a.Tier), string(a.Response),
		a.Points, a.Approved, a.SubmittedBy, a.CreatedAt, a.UpdatedAt,
	))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert answer %s", a.ID)
	}
	return stored, nil
}

func (s *PostgresStore) UpsertAssessmentScore(ctx context.Context, sc model.AssessmentScore) error {
	if !sc.Type.Valid() {
		return eris.Errorf("postgres: assessment score %s has unknown type %q", sc.ID, sc.Type)
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assessment_scores (id, company_id, cycle_id, category_id, type, value, weight, score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET company_id = EXCLUDED.company_id, cycle_id = EXCLUDED.cycle_id,
		   category_id = EXCLUDED.category_id, type = EXCLUDED.type, value = EXCLUDED.value,
		   weight = EXCLUDED.weight, score = EXCLUDED.score`,
		sc.ID, sc.CompanyID, sc.CycleID, sc.CategoryID, string(sc.Type), sc.Value, sc.Weight, sc.Score,
	)
	return eris.Wrapf(err, "postgres: upsert assessment score %s", sc.ID)
}

var micronutrientColumns = []string{"id", "product_test_id", "product_micro_nutrient_id", "name", "value", "expected_value"}

// UpsertProductTest stores a test and replaces its micronutrient measurements.
func (s *PostgresStore) UpsertProductTest(ctx context.Context, t model.ProductTest) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return s.inTx(ctx, "upsert product test", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO product_tests (id, brand_id, company_id, cycle_id, product_type, sample_production_date,
			   sample_collection_date, batch_number, collector_name)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET brand_id = EXCLUDED.brand_id, company_id = EXCLUDED.company_id,
			   cycle_id = EXCLUDED.cycle_id, product_type = EXCLUDED.product_type,
			   sample_production_date = EXCLUDED.sample_production_date,
			   sample_collection_date = EXCLUDED.sample_collection_date,
			   batch_number = EXCLUDED.batch_number, collector_name = EXCLUDED.collector_name`,
			t.ID, t.BrandID, t.CompanyID, t.CycleID, string(t.ProductType), t.SampleProductionDate,
			t.SampleCollectionDate, t.BatchNumber, t.CollectorName,
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert product test %s", t.ID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM micronutrient_scores WHERE product_test_id = $1`, t.ID); err != nil {
			return eris.Wrapf(err, "postgres: clear micronutrient scores for %s", t.ID)
		}
		if len(t.Scores) == 0 {
			return nil
		}
		rows := make([][]any, 0, len(t.Scores))
		for _, m := range t.Scores {
			id := m.ID
			if id == "" {
				id = uuid.New().String()
			}
			rows = append(rows, []any{id, t.ID, m.ProductMicroNutrientID, m.Name, m.Value, m.ExpectedValue})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"micronutrient_scores"}, micronutrientColumns, pgx.CopyFromRows(rows)); err != nil {
			return eris.Wrapf(err, "postgres: COPY micronutrient scores for %s", t.ID)
		}
		return nil
	})
}

// helpers

func (s *PostgresStore) inTx(ctx context.Context, action string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "postgres: %s: begin tx", action)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrapf(tx.Commit(ctx), "postgres: %s: commit", action)
}

func (w *where) postgres() string {
	if len(w.cols) == 0 {
		return ""
	}
	parts := make([]string, len(w.cols))
	for i, c := range w.cols {
		parts[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return " WHERE " + strings.Join(parts, " AND ")
}
