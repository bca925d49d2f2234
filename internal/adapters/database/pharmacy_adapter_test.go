package database_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/database"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/clients/postgres"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
	apperrors "github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/errors"
)

var recordCols = []string{"id", "name", "address", "province", "district", "phone", "status", "rating", "image", "lat", "lon"}

func newAdapter(t *testing.T) (*database.PharmacyAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client := postgres.NewClientFromDB(sqlx.NewDb(db, "postgres"))
	return database.NewPharmacyAdapter(client, "pharmacy_stores_cleaned", database.DefaultHeatLimit, nil), mock
}

func compile(c filter.Criteria, purpose filter.Purpose) filter.Compiled {
	return filter.NewCompiler(filter.DefaultLimits()).Compile(c, purpose)
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestPharmacyAdapter_ListFeatures(t *testing.T) {
	adapter, mock := newAdapter(t)
	rating := 4.0

	mock.ExpectQuery(q(`FROM "pharmacy_stores_cleaned"`)+".*"+
		q(`"province" ILIKE $1`)+".*"+
		q(`"rating" >= $2`)+".*"+
		q(`ORDER BY "rating" DESC NULLS LAST, "id" ASC LIMIT $3`)).
		WithArgs("%Hà Nội%", 4.0, 2000).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(1, "Nhà thuốc An Khang", "12 Kim Mã", "Hà Nội", "Ba Đình", "0241234567", "open", 4.5, "https://img.vn/a.jpg", 21.03, 105.85).
			AddRow(2, nil, nil, "Hà Nội", nil, nil, nil, nil, nil, nil, nil))

	rows, err := adapter.ListFeatures(context.Background(), compile(filter.Criteria{
		Province:  "Thành phố Hà Nội",
		RatingMin: &rating,
	}, filter.PurposeFeatures))

	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "Nhà thuốc An Khang", *rows[0].Name)
	assert.Equal(t, 4.5, *rows[0].Rating)
	assert.Equal(t, &entities.Location{Latitude: 21.03, Longitude: 105.85}, rows[0].Location)

	assert.Nil(t, rows[1].Name)
	assert.Nil(t, rows[1].Rating)
	assert.Nil(t, rows[1].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_ValuesAreBoundNotSpliced(t *testing.T) {
	adapter, mock := newAdapter(t)
	hostile := `x'); DROP TABLE pharmacies; --`

	mock.ExpectQuery(q(`"province" ILIKE $1`)).
		WithArgs("%"+hostile+"%", 2000).
		WillReturnRows(sqlmock.NewRows(recordCols))

	rows, err := adapter.ListFeatures(context.Background(), compile(filter.Criteria{Province: hostile}, filter.PurposeFeatures))

	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_LikeWildcardsAreEscaped(t *testing.T) {
	adapter, mock := newAdapter(t)

	mock.ExpectQuery(q(`"district" ILIKE $1`)).
		WithArgs(`%Quận\_1\%%`, 2000).
		WillReturnRows(sqlmock.NewRows(recordCols))

	_, err := adapter.ListFeatures(context.Background(), compile(filter.Criteria{District: "Quận_1%"}, filter.PurposeFeatures))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_BoundingBoxUsesEnvelope(t *testing.T) {
	adapter, mock := newAdapter(t)

	mock.ExpectQuery(q(`"geom" && ST_MakeEnvelope($1, $2, $3, $4, 4326)`)).
		WithArgs(105.0, 20.0, 106.0, 22.0, 2000).
		WillReturnRows(sqlmock.NewRows(recordCols))

	_, err := adapter.ListFeatures(context.Background(), compile(filter.Criteria{
		BoundingBox: []float64{106, 22, 105, 20},
	}, filter.PurposeFeatures))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_HeatSamplesCeiling(t *testing.T) {
	adapter, mock := newAdapter(t)
	limit := 50000

	mock.ExpectQuery(q(`"geom" IS NOT NULL`) + ".*" + q(`LIMIT $1`)).
		WithArgs(database.DefaultHeatLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rating", "lat", "lon"}).
			AddRow(7, 5.0, 10.77, 106.70).
			AddRow(8, nil, 10.78, 106.71))

	rows, err := adapter.HeatSamples(context.Background(), compile(filter.Criteria{Limit: &limit}, filter.PurposeHeatmap))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[1].Rating)
	assert.NotNil(t, rows[1].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_StatusBucketsByDistrict(t *testing.T) {
	adapter, mock := newAdapter(t)

	mock.ExpectQuery(q(`"district" AS "group_key"`) + ".*" +
		q(`"province" ILIKE $1`) + ".*" +
		q(`"district" IS NOT NULL`) + ".*" +
		q(`GROUP BY "district", "status"`)).
		WithArgs("%Hà Nội%").
		WillReturnRows(sqlmock.NewRows([]string{"group_key", "status", "total", "rated", "rating_sum"}).
			AddRow("Ba Đình", "open", 3, 2, 9.0).
			AddRow("Ba Đình", nil, 1, 0, nil))

	buckets, err := adapter.StatusBuckets(context.Background(), entities.GroupByDistrict,
		compile(filter.Criteria{Province: "Hà Nội"}, filter.PurposeFeatures))

	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "Ba Đình", buckets[0].GroupKey)
	assert.Equal(t, "open", *buckets[0].Status)
	assert.Equal(t, int64(3), buckets[0].Total)
	assert.Equal(t, 9.0, *buckets[0].RatingSum)
	assert.Nil(t, buckets[1].Status)
	assert.Nil(t, buckets[1].RatingSum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_Provinces(t *testing.T) {
	adapter, mock := newAdapter(t)

	mock.ExpectQuery(q(`SELECT DISTINCT "province"`) + ".*" + q(`ORDER BY "province" ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"province"}).AddRow("Hà Nội").AddRow("Đà Nẵng"))

	provinces, err := adapter.Provinces(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Hà Nội", "Đà Nẵng"}, provinces)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_AdminList(t *testing.T) {
	adapter, mock := newAdapter(t)

	mock.ExpectQuery(q(`COUNT(*) AS "total"`) + ".*" + q(`"name" ILIKE $1`)).
		WithArgs("%châu%").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(45))
	mock.ExpectQuery(q(`"name" ILIKE $1`)+".*"+q(`ORDER BY "id" ASC LIMIT $2 OFFSET $3`)).
		WithArgs("%châu%", 20, 40).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(41, "Long Châu", nil, "TP Hồ Chí Minh", "Quận 1", nil, "open", 3.0, nil, 10.77, 106.70))

	rows, total, err := adapter.AdminList(context.Background(), compile(filter.Criteria{Search: "châu", Page: 3}, filter.PurposeAdmin))

	require.NoError(t, err)
	assert.Equal(t, int64(45), total)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(41), rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_ValidImagePredicate(t *testing.T) {
	adapter, mock := newAdapter(t)

	mock.ExpectQuery(q(`NULLIF(BTRIM(COALESCE("image", '')), '') IS NOT NULL`)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0))
	mock.ExpectQuery(q(`"image" ~* $1 OR "image" ~* $2`)).
		WillReturnRows(sqlmock.NewRows(recordCols))

	_, total, err := adapter.AdminList(context.Background(), compile(filter.Criteria{RequireValidImage: true}, filter.PurposeAdmin))

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_FailureIsOpaque(t *testing.T) {
	adapter, mock := newAdapter(t)

	mock.ExpectQuery(".*").WillReturnError(errors.New(`pq: relation "pharmacy_stores_cleaned" does not exist`))

	_, err := adapter.ListFeatures(context.Background(), compile(filter.Criteria{}, filter.PurposeFeatures))

	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
	assert.Equal(t, apperrors.CodeServerError, appErr.PublicCode())
	assert.NotContains(t, appErr.Message, "relation")
}
