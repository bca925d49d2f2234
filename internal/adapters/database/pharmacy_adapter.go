package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/repositories"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/clients/postgres"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
	apperrors "github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/errors"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/utils"
)

// DefaultHeatLimit is the row ceiling for heat queries whatever the caller asks for
const DefaultHeatLimit = 20000

// PharmacyAdapter executes compiled filters against the PostGIS point store
type PharmacyAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
	table   string
	heatMax int
	metrics *observability.Metrics
}

// NewPharmacyAdapter creates a new pharmacy adapter over table
func NewPharmacyAdapter(client *postgres.Client, table string, heatMax int, metrics *observability.Metrics) *PharmacyAdapter {
	if heatMax <= 0 || heatMax > DefaultHeatLimit {
		heatMax = DefaultHeatLimit
	}
	return &PharmacyAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
		table:   table,
		heatMax: heatMax,
		metrics: metrics,
	}
}

var _ repositories.PharmacyRepository = (*PharmacyAdapter)(nil)

type pharmacyRow struct {
	ID       int64           `db:"id"`
	Name     sql.NullString  `db:"name"`
	Address  sql.NullString  `db:"address"`
	Province sql.NullString  `db:"province"`
	District sql.NullString  `db:"district"`
	Phone    sql.NullString  `db:"phone"`
	Status   sql.NullString  `db:"status"`
	Rating   sql.NullFloat64 `db:"rating"`
	Image    sql.NullString  `db:"image"`
	Lat      sql.NullFloat64 `db:"lat"`
	Lon      sql.NullFloat64 `db:"lon"`
}

func (r pharmacyRow) toEntity() *entities.Pharmacy {
	p := &entities.Pharmacy{
		ID:       r.ID,
		Name:     nullString(r.Name),
		Address:  nullString(r.Address),
		Province: nullString(r.Province),
		District: nullString(r.District),
		Phone:    nullString(r.Phone),
		Status:   nullString(r.Status),
		Image:    nullString(r.Image),
	}
	if r.Rating.Valid {
		rating := r.Rating.Float64
		p.Rating = &rating
	}
	if r.Lat.Valid && r.Lon.Valid {
		p.Location = &entities.Location{Latitude: r.Lat.Float64, Longitude: r.Lon.Float64}
	}
	return p
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func (a *PharmacyAdapter) from() *goqu.SelectDataset {
	return a.dialect.From(a.table).Prepared(true)
}

func recordColumns() []interface{} {
	return []interface{}{
		"id", "name", "address", "province", "district", "phone", "status", "rating", "image",
		goqu.L(`ST_Y("geom")`).As("lat"),
		goqu.L(`ST_X("geom")`).As("lon"),
	}
}

// ListFeatures returns rows for the map listing
func (a *PharmacyAdapter) ListFeatures(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error) {
	ds := a.from().
		Select(recordColumns()...).
		Where(expressions(q.Predicates)...).
		Order(goqu.I("rating").Desc().NullsLast(), goqu.I("id").Asc()).
		Limit(uint(q.Cap))

	return a.selectPharmacies(ctx, "list_features", ds)
}

// HeatSamples returns located rows for the heat layer, capped at the heat ceiling
func (a *PharmacyAdapter) HeatSamples(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error) {
	limit := q.Cap
	if limit <= 0 || limit > a.heatMax {
		limit = a.heatMax
	}

	ds := a.from().
		Select(
			"id", "rating",
			goqu.L(`ST_Y("geom")`).As("lat"),
			goqu.L(`ST_X("geom")`).As("lon"),
		).
		Where(expressions(q.Predicates)...).
		Limit(uint(limit))

	return a.selectPharmacies(ctx, "heat_samples", ds)
}

// StatusBuckets returns partial aggregates per group and raw status value
func (a *PharmacyAdapter) StatusBuckets(ctx context.Context, level entities.GroupLevel, q filter.Compiled) ([]entities.StatusBucket, error) {
	keyCol := string(entities.GroupByProvince)
	if level == entities.GroupByDistrict {
		keyCol = string(entities.GroupByDistrict)
	}

	ds := a.from().
		Select(
			goqu.I(keyCol).As("group_key"),
			goqu.I("status"),
			goqu.COUNT(goqu.Star()).As("total"),
			goqu.COUNT("rating").As("rated"),
			goqu.SUM("rating").As("rating_sum"),
		).
		Where(append(expressions(q.Predicates), goqu.I(keyCol).IsNotNull())...).
		GroupBy(goqu.I(keyCol), goqu.I("status"))

	var buckets []entities.StatusBucket
	if err := a.run(ctx, "status_buckets", ds, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// Provinces returns distinct province names alphabetically
func (a *PharmacyAdapter) Provinces(ctx context.Context) ([]string, error) {
	ds := a.from().
		Select("province").
		Distinct().
		Where(goqu.I("province").IsNotNull()).
		Order(goqu.I("province").Asc())

	provinces := []string{}
	if err := a.run(ctx, "provinces", ds, &provinces); err != nil {
		return nil, err
	}
	return provinces, nil
}

// AdminList returns one id-ordered page and the total number of matches
func (a *PharmacyAdapter) AdminList(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, int64, error) {
	where := expressions(q.Predicates)

	countDS := a.from().Select(goqu.COUNT(goqu.Star()).As("total")).Where(where...)
	var total []int64
	if err := a.run(ctx, "admin_count", countDS, &total); err != nil {
		return nil, 0, err
	}

	pageDS := a.from().
		Select(recordColumns()...).
		Where(where...).
		Order(goqu.I("id").Asc()).
		Limit(uint(q.Cap)).
		Offset(uint(q.Offset))

	rows, err := a.selectPharmacies(ctx, "admin_list", pageDS)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	if len(total) > 0 {
		count = total[0]
	}
	return rows, count, nil
}

func (a *PharmacyAdapter) selectPharmacies(ctx context.Context, op string, ds *goqu.SelectDataset) ([]*entities.Pharmacy, error) {
	var rows []pharmacyRow
	if err := a.run(ctx, op, ds, &rows); err != nil {
		return nil, err
	}

	out := make([]*entities.Pharmacy, len(rows))
	for i, r := range rows {
		out[i] = r.toEntity()
	}
	return out, nil
}

// run builds ds and scans every row into dest. Any failure is reported as one opaque query error.
func (a *PharmacyAdapter) run(ctx context.Context, op string, ds *goqu.SelectDataset, dest interface{}) error {
	ctx, span := observability.StartSpan(ctx, "db."+op)
	defer span.End()

	query, args, err := ds.ToSQL()
	if err != nil {
		observability.RecordError(span, err)
		return apperrors.NewQueryFailedError(fmt.Errorf("build %s: %w", op, err))
	}

	start := time.Now()
	err = a.client.DB().SelectContext(ctx, dest, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, op, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Error().Err(err).Str("operation", op).Msg("pharmacy query failed")
		return apperrors.NewQueryFailedError(err)
	}
	return nil
}

// expressions translates typed predicates into goqu expressions; values are always bound parameters
func expressions(preds []filter.Predicate) []exp.Expression {
	out := make([]exp.Expression, 0, len(preds))
	for _, p := range preds {
		if e := expression(p); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func expression(p filter.Predicate) exp.Expression {
	col := goqu.I(string(p.Field))
	switch p.Operator {
	case filter.OpContainsFold:
		v, _ := p.Value.(string)
		return col.ILike("%" + escapeLike(v) + "%")
	case filter.OpEqual:
		return col.Eq(p.Value)
	case filter.OpGreaterOrEqual:
		return col.Gte(p.Value)
	case filter.OpWithinBBox:
		box, ok := p.Value.(filter.BBox)
		if !ok {
			return nil
		}
		return goqu.L("? && ST_MakeEnvelope(?, ?, ?, ?, 4326)", col, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
	case filter.OpNotNull:
		return col.IsNotNull()
	case filter.OpValidImage:
		return goqu.L(
			"NULLIF(BTRIM(COALESCE(?, '')), '') IS NOT NULL AND (? ~* ? OR ? ~* ?)",
			col, col, utils.ImageURLPattern, col, utils.ImageExtPattern,
		)
	default:
		return nil
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
