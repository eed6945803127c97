package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/mfi-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	tier   TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	size   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cycles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	start_date DATETIME,
	end_date   DATETIME,
	active     INTEGER NOT NULL DEFAULT 0,
	locked_at  DATETIME
);

CREATE TABLE IF NOT EXISTS categories (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	weight     REAL NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS brands (
	id           TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL REFERENCES companies(id),
	product_type TEXT NOT NULL,
	name         TEXT NOT NULL,
	active       INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS answers (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	company_id   TEXT NOT NULL REFERENCES companies(id),
	cycle_id     TEXT NOT NULL REFERENCES cycles(id),
	category_id  TEXT NOT NULL,
	tier         TEXT NOT NULL,
	response     TEXT NOT NULL,
	points       REAL NOT NULL DEFAULT 0,
	approved     INTEGER NOT NULL DEFAULT 0,
	submitted_by TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL,
	UNIQUE (type, company_id, cycle_id, category_id, tier)
);

CREATE TABLE IF NOT EXISTS assessment_scores (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES companies(id),
	cycle_id    TEXT NOT NULL,
	category_id TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL,
	value       REAL NOT NULL DEFAULT 0,
	weight      REAL NOT NULL DEFAULT 0,
	score       REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS product_tests (
	id                     TEXT PRIMARY KEY,
	brand_id               TEXT NOT NULL REFERENCES brands(id),
	company_id             TEXT NOT NULL,
	cycle_id               TEXT NOT NULL,
	product_type           TEXT NOT NULL DEFAULT '',
	sample_production_date DATETIME,
	sample_collection_date DATETIME,
	batch_number           TEXT NOT NULL DEFAULT '',
	collector_name         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS micronutrient_scores (
	id                        TEXT PRIMARY KEY,
	product_test_id           TEXT NOT NULL REFERENCES product_tests(id) ON DELETE CASCADE,
	product_micro_nutrient_id TEXT NOT NULL DEFAULT '',
	name                      TEXT NOT NULL,
	value                     REAL NOT NULL,
	expected_value            REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS computed_scores (
	company_id  TEXT NOT NULL,
	cycle_id    TEXT NOT NULL,
	score_type  TEXT NOT NULL,
	value       REAL,
	computed_at DATETIME NOT NULL,
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
	mfi          REAL NOT NULL,
	computed_at  DATETIME NOT NULL,
	PRIMARY KEY (cycle_id, granularity, product_type, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_answers_company_cycle ON answers(company_id, cycle_id);
CREATE INDEX IF NOT EXISTS idx_assessment_scores_company_cycle ON assessment_scores(company_id, cycle_id);
CREATE INDEX IF NOT EXISTS idx_product_tests_brand ON product_tests(brand_id);
CREATE INDEX IF NOT EXISTS idx_micronutrient_scores_test ON micronutrient_scores(product_test_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Reader ---

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, tier, active, size FROM companies ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Tier, &c.Active, &c.Size); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, tier, active, size FROM companies WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Tier, &c.Active, &c.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return &c, nil
}

const sqliteCycleCols = `id, name, start_date, end_date, active, locked_at`

func (s *SQLiteStore) GetCycle(ctx context.Context, id string) (*model.Cycle, error) {
	c, err := scanSQLiteCycle(s.db.QueryRowContext(ctx, `SELECT `+sqliteCycleCols+` FROM cycles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "cycle %s", id)
	}
	return c, eris.Wrapf(err, "sqlite: get cycle %s", id)
}

func (s *SQLiteStore) GetActiveCycle(ctx context.Context) (*model.Cycle, error) {
	c, err := scanSQLiteCycle(s.db.QueryRowContext(ctx, `SELECT `+sqliteCycleCols+` FROM cycles WHERE active = 1 LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "active cycle")
	}
	return c, eris.Wrap(err, "sqlite: get active cycle")
}

func scanSQLiteCycle(row scannable) (*model.Cycle, error) {
	var c model.Cycle
	var start, end, locked sql.NullTime
	if err := row.Scan(&c.ID, &c.Name, &start, &end, &c.Active, &locked); err != nil {
		return nil, err
	}
	c.StartDate = start.Time
	c.EndDate = end.Time
	if locked.Valid {
		t := locked.Time
		c.LockedAt = &t
	}
	return &c, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, name, weight, sort_order FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list categories")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.Weight, &c.SortOrder); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list categories iterate")
}

func (s *SQLiteStore) ListBrands(ctx context.Context, companyID string) ([]model.Brand, error) {
	var w where
	w.eq("company_id", companyID)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, product_type, name, active FROM brands`+w.sqlite()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list brands")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Brand
	for rows.Next() {
		var b model.Brand
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.ProductType, &b.Name, &b.Active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brand")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list brands iterate")
}

const answerCols = `id, type, company_id, cycle_id, category_id, tier, response, points, approved, submitted_by, created_at, updated_at`

func (s *SQLiteStore) ListAnswers(ctx context.Context, filter AnswerFilter) ([]model.Answer, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("cycle_id", filter.CycleID)
	w.eq("type", string(filter.Type))

	rows, err := s.db.QueryContext(ctx, `SELECT `+answerCols+` FROM answers`+w.sqlite()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list answers")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan answer")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list answers iterate")
}

func scanAnswer(row scannable) (*model.Answer, error) {
	var a model.Answer
	err := row.Scan(&a.ID, &a.Type, &a.CompanyID, &a.CycleID, &a.CategoryID, &a.Tier, &a.Response,
		&a.Points, &a.Approved, &a.SubmittedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) ListAssessmentScores(ctx context.Context, filter ScoreFilter) ([]model.AssessmentScore, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("cycle_id", filter.CycleID)
	w.eq("type", string(filter.Type))

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, cycle_id, category_id, type, value, weight, score FROM assessment_scores`+
			w.sqlite()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessment scores")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.AssessmentScore
	for rows.Next() {
		var sc model.AssessmentScore
		if err := rows.Scan(&sc.ID, &sc.CompanyID, &sc.CycleID, &sc.CategoryID, &sc.Type, &sc.Value, &sc.Weight, &sc.Score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment score")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assessment scores iterate")
}

func (s *SQLiteStore) ListProductTests(ctx context.Context, filter TestFilter) ([]model.ProductTest, error) {
	var w where
	w.eq("company_id", filter.CompanyID)
	w.eq("cycle_id", filter.CycleID)
	w.eq("brand_id", filter.BrandID)
	clause := w.sqlite()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, brand_id, company_id, cycle_id, product_type, sample_production_date, sample_collection_date,
		        batch_number, collector_name
		 FROM product_tests`+clause+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list product tests")
	}
	defer rows.Close() //nolint:errcheck

	var tests []model.ProductTest
	index := make(map[string]int)
	for rows.Next() {
		var t model.ProductTest
		var produced, collected sql.NullTime
		if err := rows.Scan(&t.ID, &t.BrandID, &t.CompanyID, &t.CycleID, &t.ProductType, &produced, &collected,
			&t.BatchNumber, &t.CollectorName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product test")
		}
		t.SampleProductionDate = produced.Time
		t.SampleCollectionDate = collected.Time
		index[t.ID] = len(tests)
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list product tests iterate")
	}
	if len(tests) == 0 {
		return nil, nil
	}

	scoreRows, err := s.db.QueryContext(ctx,
		`SELECT id, product_test_id, product_micro_nutrient_id, name, value, expected_value
		 FROM micronutrient_scores
		 WHERE product_test_id IN (SELECT id FROM product_tests`+clause+`)
		 ORDER BY product_test_id, name, id`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list micronutrient scores")
	}
	defer scoreRows.Close() //nolint:errcheck

	for scoreRows.Next() {
		var m model.MicroNutrientScore
		var testID string
		if err := scoreRows.Scan(&m.ID, &testID, &m.ProductMicroNutrientID, &m.Name, &m.Value, &m.ExpectedValue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan micronutrient score")
		}
		if i, ok := index[testID]; ok {
			tests[i].Scores = append(tests[i].Scores, m)
		}
	}
	return tests, eris.Wrap(scoreRows.Err(), "sqlite: list micronutrient scores iterate")
}

func (s *SQLiteStore) ListComputedScores(ctx context.Context, cycleID, companyID string) ([]model.ComputedAssessmentScore, error) {
	var w where
	w.eq("cycle_id", cycleID)
	w.eq("company_id", companyID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT company_id, cycle_id, score_type, value, computed_at FROM computed_scores`+w.sqlite()+
			` ORDER BY company_id, score_type`, w.args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list computed scores")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ComputedAssessmentScore
	for rows.Next() {
		var c model.ComputedAssessmentScore
		var v sql.NullFloat64
		if err := rows.Scan(&c.CompanyID, &c.CycleID, &c.ScoreType, &v, &c.ComputedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan computed score")
		}
		if v.Valid {
			c.Value = &v.Float64
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list computed scores iterate")
}

func (s *SQLiteStore) ListRankings(ctx context.Context, cycleID, granularity string, productType model.ProductType) ([]model.RankingEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle_id, granularity, product_type, entity_id, entity_name, kind, company_id, rank, mfi, computed_at
		 FROM rankings WHERE cycle_id = ? AND granularity = ? AND product_type = ?
		 ORDER BY rank, entity_id`,
		cycleID, granularity, string(productType))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rankings")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RankingEntry
	for rows.Next() {
		var r model.RankingEntry
		if err := rows.Scan(&r.CycleID, &r.Granularity, &r.ProductType, &r.EntityID, &r.EntityName, &r.Kind,
			&r.CompanyID, &r.Rank, &r.MFI, &r.ComputedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ranking")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list rankings iterate")
}

// --- Writer ---

func (s *SQLiteStore) SaveComputedScores(ctx context.Context, scores []model.ComputedAssessmentScore) error {
	return s.inTx(ctx, "save computed scores", func(tx *sql.Tx) error {
		for _, c := range scores {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO computed_scores (company_id, cycle_id, score_type, value, computed_at)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (company_id, cycle_id, score_type)
				 DO UPDATE SET value = excluded.value, computed_at = excluded.computed_at`,
				c.CompanyID, c.CycleID, string(c.ScoreType), nullFloat(c.Value), c.ComputedAt.UTC(),
			); err != nil {
				return eris.Wrapf(err, "sqlite: upsert computed score %s/%s", c.CompanyID, c.ScoreType)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveRankings(ctx context.Context, cycleID, granularity string, productType model.ProductType, entries []model.RankingEntry) error {
	return s.inTx(ctx, "save rankings", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM rankings WHERE cycle_id = ? AND granularity = ? AND product_type = ?`,
			cycleID, granularity, string(productType),
		); err != nil {
			return eris.Wrap(err, "sqlite: clear ranking snapshot")
		}
		for _, r := range entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rankings (cycle_id, granularity, product_type, entity_id, entity_name, kind, company_id, rank, mfi, computed_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				cycleID, granularity, string(productType), r.EntityID, r.EntityName, r.Kind, r.CompanyID, r.Rank, r.MFI, r.ComputedAt.UTC(),
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert ranking %s", r.EntityID)
			}
		}
		return nil
	})
}

// --- Loader ---

func (s *SQLiteStore) UpsertCompany(ctx context.Context, c model.Company) error {
	if err := checkCompanyTier(ctx, s, c); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, tier, active, size) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, tier = excluded.tier,
		   active = excluded.active, size = excluded.size`,
		c.ID, c.Name, string(c.Tier), c.Active, c.Size,
	)
	return eris.Wrapf(err, "sqlite: upsert company %s", c.ID)
}

func (s *SQLiteStore) UpsertCycle(ctx context.Context, c model.Cycle) error {
	return s.inTx(ctx, "upsert cycle", func(tx *sql.Tx) error {
		if c.Active {
			if _, err := tx.ExecContext(ctx, `UPDATE cycles SET active = 0 WHERE id <> ?`, c.ID); err != nil {
				return eris.Wrap(err, "sqlite: deactivate cycles")
			}
		}
		var locked any
		if c.LockedAt != nil {
			locked = c.LockedAt.UTC()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cycles (id, name, start_date, end_date, active, locked_at) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET name = excluded.name, start_date = excluded.start_date,
			   end_date = excluded.end_date, active = excluded.active, locked_at = excluded.locked_at`,
			c.ID, c.Name, c.StartDate.UTC(), c.EndDate.UTC(), c.Active, locked,
		)
		return eris.Wrapf(err, "sqlite: upsert cycle %s", c.ID)
	})
}

func (s *SQLiteStore) UpsertCategory(ctx context.Context, c model.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, parent_id, name, weight, sort_order) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET parent_id = excluded.parent_id, name = excluded.name,
		   weight = excluded.weight, sort_order = excluded.sort_order`,
		c.ID, c.ParentID, c.Name, c.Weight, c.SortOrder,
	)
	return eris.Wrapf(err, "sqlite: upsert category %s", c.ID)
}

func (s *SQLiteStore) UpsertBrand(ctx context.Context, b model.Brand) error {
	if !b.ProductType.Valid() {
		return eris.Errorf("sqlite: brand %s has unknown product type %q", b.ID, b.ProductType)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brands (id, company_id, product_type, name, active) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET company_id = excluded.company_id, product_type = excluded.product_type,
		   name = excluded.name, active = excluded.active`,
		b.ID, b.CompanyID, string(b.ProductType), b.Name, b.Active,
	)
	return eris.Wrapf(err, "sqlite: upsert brand %s", b.ID)
}

// UpsertAnswer stores a, replacing any earlier answer for the same
// (type, company, cycle, category, tier) in place. The stored answer keeps the
// original id and creation time.
func (s *SQLiteStore) UpsertAnswer(ctx context.Context, a model.Answer) (*model.Answer, error) {
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

	stored, err := scanAnswer(s.db.QueryRowContext(ctx,
		`INSERT INTO answers (`+answerCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (type, company_id, cycle_id, category_id, tier)
		 DO UPDATE SET response = excluded.response, points = excluded.points, approved = excluded.approved,
		   submitted_by = excluded.submitted_by, updated_at = excluded.updated_at
		 RETURNING `+answerCols,
		a.ID, string(a.Type), a.CompanyID, a.CycleID, a.CategoryID, string(a.Tier), string(a.Response),
		a.Points, a.Approved, a.SubmittedBy, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert answer %s", a.ID)
	}
	return stored, nil
}

func (s *SQLiteStore) UpsertAssessmentScore(ctx context.Context, sc model.AssessmentScore) error {
	if !sc.Type.Valid() {
		return eris.Errorf("sqlite: assessment score %s has unknown type %q", sc.ID, sc.Type)
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessment_scores (id, company_id, cycle_id, category_id, type, value, weight, score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET company_id = excluded.company_id, cycle_id = excluded.cycle_id,
		   category_id = excluded.category_id, type = excluded.type, value = excluded.value,
		   weight = excluded.weight, score = excluded.score`,
		sc.ID, sc.CompanyID, sc.CycleID, sc.CategoryID, string(sc.Type), sc.Value, sc.Weight, sc.Score,
	)
	return eris.Wrapf(err, "sqlite: upsert assessment score %s", sc.ID)
}

// UpsertProductTest stores a test and replaces its micronutrient measurements.
func (s *SQLiteStore) UpsertProductTest(ctx context.Context, t model.ProductTest) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return s.inTx(ctx, "upsert product test", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_tests (id, brand_id, company_id, cycle_id, product_type, sample_production_date,
			   sample_collection_date, batch_number, collector_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET brand_id = excluded.brand_id, company_id = excluded.company_id,
			   cycle_id = excluded.cycle_id, product_type = excluded.product_type,
			   sample_production_date = excluded.sample_production_date,
			   sample_collection_date = excluded.sample_collection_date,
			   batch_number = excluded.batch_number, collector_name = excluded.collector_name`,
			t.ID, t.BrandID, t.CompanyID, t.CycleID, string(t.ProductType), t.SampleProductionDate.UTC(),
			t.SampleCollectionDate.UTC(), t.BatchNumber, t.CollectorName,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert product test %s", t.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM micronutrient_scores WHERE product_test_id = ?`, t.ID); err != nil {
			return eris.Wrapf(err, "sqlite: clear micronutrient scores for %s", t.ID)
		}
		for _, m := range t.Scores {
			if m.ID == "" {
				m.ID = uuid.New().String()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO micronutrient_scores (id, product_test_id, product_micro_nutrient_id, name, value, expected_value)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				m.ID, t.ID, m.ProductMicroNutrientID, m.Name, m.Value, m.ExpectedValue,
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert micronutrient score %s", m.Name)
			}
		}
		return nil
	})
}

// helpers

func (s *SQLiteStore) inTx(ctx context.Context, action string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: begin tx", action)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	return eris.Wrapf(tx.Commit(), "sqlite: %s: commit", action)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

type scannable interface {
	Scan(dest ...any) error
}

// where accumulates equality conditions, skipping empty values.
type where struct {
	cols []string
	args []any
}

func (w *where) eq(col, val string) {
	if val == "" {
		return
	}
	w.cols = append(w.cols, col)
	w.args = append(w.args, val)
}

func (w *where) sqlite() string {
	if len(w.cols) == 0 {
		return ""
	}
	parts := make([]string, len(w.cols))
	for i, c := range w.cols {
		parts[i] = c + " = ?"
	}
	return " WHERE " + strings.Join(parts, " AND ")
}
