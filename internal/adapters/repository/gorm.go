package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
)

// GormStore keeps the tables in Postgres.
type GormStore struct {
	db *gorm.DB

	achievements Table[model.ManualAchievement]
	events       Table[model.ImportedEvent]
	sponsors     Table[model.Sponsor]
	tiers        Table[model.SponsorTier]
	robots       Table[model.Robot]
	news         Table[model.NewsPost]
	members      Table[model.Member]
}

var _ Store = (*GormStore)(nil)

// OpenPostgres connects to dsn and configures the connection pool.
func OpenPostgres(dsn string, opts ...Option) (*GormStore, error) {
	o := options{
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxLifetime: 30 * time.Minute,
		slowThreshold:   200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(o.log, o.slowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(o.maxOpenConns)
	sqlDB.SetMaxIdleConns(o.maxIdleConns)
	sqlDB.SetConnMaxLifetime(o.connMaxLifetime)
	return NewGormStore(db), nil
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
		achievements: wrap[model.ManualAchievement]("achievements",
			newGormTable[model.ManualAchievement](db, "year DESC, description ASC, id ASC")),
		events: wrap[model.ImportedEvent]("events",
			newGormTable[model.ImportedEvent](db, "event_date DESC, id ASC")),
		sponsors: wrap[model.Sponsor]("sponsors",
			newGormTable[model.Sponsor](db, "amount DESC, name ASC, id ASC")),
		tiers: wrap[model.SponsorTier]("sponsor_tiers",
			newGormTable[model.SponsorTier](db, "id ASC")),
		robots: wrap[model.Robot]("robots",
			newGormTable[model.Robot](db, "year DESC, name ASC, id ASC")),
		news: wrap[model.NewsPost]("news_posts",
			newGormTable[model.NewsPost](db, "published_at DESC, id ASC")),
		members: wrap[model.Member]("members",
			newGormTable[model.Member](db, "sort_order ASC, name ASC, id ASC")),
	}
}

func (s *GormStore) Achievements() Table[model.ManualAchievement] { return s.achievements }
func (s *GormStore) Events() Table[model.ImportedEvent]           { return s.events }
func (s *GormStore) Sponsors() Table[model.Sponsor]               { return s.sponsors }
func (s *GormStore) Tiers() Table[model.SponsorTier]              { return s.tiers }
func (s *GormStore) Robots() Table[model.Robot]                   { return s.robots }
func (s *GormStore) News() Table[model.NewsPost]                  { return s.news }
func (s *GormStore) Members() Table[model.Member]                 { return s.members }

func (s *GormStore) NewsBySlug(ctx context.Context, slug string) (model.NewsPost, error) {
	var post model.NewsPost
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return post, ErrNotFound
	}
	return post, err
}

func (s *GormStore) ManualAchievements(ctx context.Context) ([]model.ManualAchievement, error) {
	return s.achievements.List(ctx)
}

func (s *GormStore) ImportedEvents(ctx context.Context) ([]model.ImportedEvent, error) {
	return s.events.List(ctx)
}

// Migrate creates or alters the tables to match the models.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&model.ManualAchievement{},
		&model.ImportedEvent{},
		&model.SponsorTier{},
		&model.Sponsor{},
		&model.Robot{},
		&model.NewsPost{},
		&model.Member{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTable[E any, P Row[E]] struct {
	db    *gorm.DB
	order string
}

func newGormTable[E any, P Row[E]](db *gorm.DB, order string) *gormTable[E, P] {
	return &gormTable[E, P]{db: db, order: order}
}

func (t *gormTable[E, P]) List(ctx context.Context) ([]E, error) {
	var rows []E
	if err := t.db.WithContext(ctx).Order(t.order).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *gormTable[E, P]) Get(ctx context.Context, id string) (E, error) {
	var row E
	err := t.db.WithContext(ctx).Where("id = ?", id).Take(P(&row)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, ErrNotFound
	}
	return row, err
}

func (t *gormTable[E, P]) Create(ctx context.Context, e *E) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(P(new(E))).Where("id = ?", P(e).EntityID()).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(P(e)).Error
	})
}

func (t *gormTable[E, P]) Update(ctx context.Context, e *E) error {
	res := t.db.WithContext(ctx).Model(P(e)).Select("*").Omit("id", "created_at").Updates(P(e))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTable[E, P]) Save(ctx context.Context, e *E) error {
	return t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(P(e)).Error
}

func (t *gormTable[E, P]) Delete(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(P(new(E)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
