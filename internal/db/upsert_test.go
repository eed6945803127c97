package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoreCols = []string{"company_id", "cycle_id", "score_type", "value", "computed_at"}

func scoreUpsertConfig() UpsertConfig {
	return UpsertConfig{
		Table:        "mfi.computed_scores",
		Columns:      scoreCols,
		ConflictKeys: []string{"company_id", "cycle_id", "score_type"},
	}
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, scoreUpsertConfig(), nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "mfi.computed_scores",
		ConflictKeys: []string{"company_id"},
	}, [][]any{{"co-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "mfi.computed_scores",
		Columns: scoreCols,
	}, [][]any{{"co-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_mfi_computed_scores"}, scoreCols).WillReturnResult(2)
	mock.ExpectExec("DELETE FROM").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO "mfi"."computed_scores" .* ON CONFLICT \("company_id", "cycle_id", "score_type"\) DO UPDATE SET "value" = EXCLUDED."value"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	rows := [][]any{
		{"co-1", "cy-1", "SAT", 88.0, nil},
		{"co-1", "cy-1", "IEG", 70.0, nil},
	}
	n, err := BulkUpsert(context.Background(), mock, scoreUpsertConfig(), rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_mfi_computed_scores"}, scoreCols).WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, scoreUpsertConfig(), [][]any{{"co-1", "cy-1", "SAT", 1.0, nil}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table for mfi.computed_scores")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSnapshot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"cycle_id", "granularity", "entity_id", "rank", "mfi"}
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "mfi"."rankings" WHERE "cycle_id" = \$1 AND "granularity" = \$2`).
		WithArgs("cy-1", "all").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"mfi", "rankings"}, cols).WillReturnResult(2)
	mock.ExpectCommit()

	n, err := ReplaceSnapshot(context.Background(), mock, ReplaceConfig{
		Table:   "mfi.rankings",
		Columns: cols,
		Match:   map[string]any{"granularity": "all", "cycle_id": "cy-1"},
	}, [][]any{
		{"cy-1", "all", "co-1", 1, 83.0},
		{"cy-1", "all", "co-2", 2, 70.0},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSnapshot_RequiresMatch(t *testing.T) {
	_, err := ReplaceSnapshot(context.Background(), nil, ReplaceConfig{Table: "mfi.rankings", Columns: []string{"a"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a match")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"mfi.rankings", `"mfi"."rankings"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}
