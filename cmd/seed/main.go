package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/events"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/clients/postgres"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/clients/redis"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/config"
)

type sample struct {
	name, address, province, district, phone, status, image string
	rating                                                  float64
	lat, lon                                                float64
}

var samples = []sample{
	{"Nhà thuốc Long Châu Hàng Bài", "12 Hàng Bài, Hoàn Kiếm", "Thành phố Hà Nội", "Quận Hoàn Kiếm", "1800 6928", "Đang mở cửa", "https://cdn.example.vn/lc-hangbai.jpg", 4.5, 21.0245, 105.8530},
	{"Pharmacity Láng Hạ", "45 Láng Hạ, Đống Đa", "Thành phố Hà Nội", "Quận Đống Đa", "", "Open 24 hours", "", 0, 21.0150, 105.8150},
	{"Nhà thuốc An Khang Cầu Giấy", "88 Trần Thái Tông, Cầu Giấy", "Thành phố Hà Nội", "Quận Cầu Giấy", "024 3795 1234", "Đã đóng cửa", "https://cdn.example.vn/ak-caugiay.png", 3.8, 21.0336, 105.7895},
	{"Nhà thuốc Minh Châu", "3 Nguyễn Huệ, Quận 1", "Thành phố Hồ Chí Minh", "Quận 1", "028 3822 0000", "Mở cửa", "", 3.0, 10.7740, 106.7040},
	{"Nhà thuốc Phương Chính", "120 Nguyễn Văn Linh, Hải Châu", "Thành phố Đà Nẵng", "Quận Hải Châu", "", "Closed", "not-an-image", 4.1, 16.0600, 108.2150},
	{"Nhà thuốc Bảo Châu", "15 Trần Phú, Vinh", "Tỉnh Nghệ An", "Thành phố Vinh", "", "", "", 0, 18.6733, 105.6923},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("pharmacy-seed", cfg.Environment, cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	table := cfg.Database.Table
	if err := ensureSchema(ctx, pgClient, table); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Str("table", table).Msg("RESET_DB=true detected, truncating before seeding")
		stmt := `TRUNCATE TABLE ` + pq.QuoteIdentifier(table) + ` RESTART IDENTITY`
		if _, err := pgClient.DB().ExecContext(ctx, stmt); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset table")
		}
	}

	inserted, err := insertSamples(ctx, pgClient, table)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to insert sample pharmacies")
	}
	log.Info().Int64("rows", inserted).Str("table", table).Msg("Seeded sample pharmacies")

	publishBulkLoaded(ctx, cfg)
}

func ensureSchema(ctx context.Context, pg *postgres.Client, table string) error {
	quoted := pq.QuoteIdentifier(table)
	for _, stmt := range []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS ` + quoted + ` (
			id SERIAL PRIMARY KEY,
			name TEXT,
			address TEXT,
			province TEXT,
			district TEXT,
			phone TEXT,
			status TEXT,
			rating DOUBLE PRECISION,
			image TEXT,
			geom geometry(Point, 4326)
		)`,
		`CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier(table+"_geom_idx") + ` ON ` + quoted + ` USING GIST (geom)`,
		`CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier(table+"_province_idx") + ` ON ` + quoted + ` (province)`,
	} {
		if _, err := pg.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

func insertSamples(ctx context.Context, pg *postgres.Client, table string) (int64, error) {
	rows := make([]interface{}, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, goqu.Record{
			"name":     s.name,
			"address":  s.address,
			"province": s.province,
			"district": s.district,
			"phone":    nullIfEmpty(s.phone),
			"status":   nullIfEmpty(s.status),
			"rating":   s.rating,
			"image":    nullIfEmpty(s.image),
			"geom":     goqu.L("ST_SetSRID(ST_MakePoint(?, ?), 4326)", s.lon, s.lat),
		})
	}

	query, args, err := goqu.Dialect("postgres").Insert(table).Prepared(true).Rows(rows...).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	res, err := pg.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// publishBulkLoaded tells running API instances to drop their caches
func publishBulkLoaded(ctx context.Context, cfg *config.Config) {
	if !cfg.Redis.Enabled {
		return
	}
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, API caches will expire on their own")
		return
	}
	defer redisClient.Close()

	bus := events.NewRedisEventBus(redisClient)
	defer bus.Close()

	event := entities.NewPharmacyEvent(0, entities.PharmacyEventBulkLoaded, "")
	if err := bus.Publish(ctx, providers.EventChannelPharmacyUpdates, event); err != nil {
		log.Warn().Err(err).Msg("Failed to publish bulk_loaded event")
		return
	}
	log.Info().Str("event_id", event.ID).Msg("Published bulk_loaded event")
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
