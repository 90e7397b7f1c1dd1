package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/infrastructure/persistence/models"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.FeeOverrideModel{}))
	return db
}

func TestGormFeeOverrideRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFeeOverrideRepository(setupSQLite(t))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	ebay, err := profit.NewFeeOverride("eBay", decimal.RequireFromString("9.5"))
	require.NoError(t, err)
	amazon, err := profit.NewFeeOverride("Amazon", decimal.NewFromInt(15))
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, ebay))
	require.NoError(t, repo.Upsert(ctx, amazon))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "amazon", list[0].Source)
	assert.Equal(t, "ebay", list[1].Source)

	// Upsert replaces the percentage in place.
	amazon.Percent = decimal.NewFromInt(12)
	require.NoError(t, repo.Upsert(ctx, amazon))
	got, err := repo.Get(ctx, "amazon")
	require.NoError(t, err)
	assert.True(t, got.Percent.Equal(decimal.NewFromInt(12)))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, "ebay"))
	assert.ErrorIs(t, repo.Delete(ctx, "ebay"), profit.ErrFeeOverrideNotFound)
	_, err = repo.Get(ctx, "ebay")
	assert.ErrorIs(t, err, profit.ErrFeeOverrideNotFound)
}

func TestGormFeeOverrideRepository_PostgresUpsertSQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "fee_overrides"`) + `.*` +
		regexp.QuoteMeta(`ON CONFLICT ("source") DO UPDATE SET "percent"="excluded"."percent","updated_at"="excluded"."updated_at"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewGormFeeOverrideRepository(db)
	o, err := profit.NewFeeOverride("OnBuy", decimal.NewFromInt(7))
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}
