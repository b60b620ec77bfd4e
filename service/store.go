package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/R01085B-Limaylla/webContratos/config"
	"github.com/R01085B-Limaylla/webContratos/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// RecordStore is the contract table as the services see it
type RecordStore interface {
	// List returns contracts by ascending event date, undated last.
	// A limit of zero or less returns everything.
	List(ctx context.Context, limit int) ([]model.Contract, error)
	Get(ctx context.Context, id uint) (*model.Contract, error)
	Insert(ctx context.Context, c *model.Contract) error
	// Replace overwrites every column of an existing row
	Replace(ctx context.Context, c *model.Contract) error
	Delete(ctx context.Context, id uint) (*model.Contract, error)
	Ping(ctx context.Context) error
}

// LinkStore resolves messaging numbers to linked accounts
type LinkStore interface {
	LinkedUser(ctx context.Context, phone string) (*model.WhatsAppUser, error)
}

// OpenDatabase connects to the configured SQL backend
func OpenDatabase(cfg *config.StoreConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("store dsn is empty")
		}
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}
	slog.Info("record store opened", "driver", cfg.Driver)
	return db, nil
}

// ContractStore keeps contracts and messaging links in a SQL database
type ContractStore struct {
	db *gorm.DB
}

func NewContractStore(db *gorm.DB) *ContractStore {
	return &ContractStore{db: db}
}

// Migrate creates or updates the tables
func (s *ContractStore) Migrate() error {
	if err := s.db.AutoMigrate(&model.Contract{}, &model.WhatsAppUser{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (s *ContractStore) List(ctx context.Context, limit int) ([]model.Contract, error) {
	q := s.db.WithContext(ctx).
		Order("fecha_evento IS NULL").
		Order("fecha_evento ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var contracts []model.Contract
	if err := q.Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

func (s *ContractStore) Get(ctx context.Context, id uint) (*model.Contract, error) {
	var c model.Contract
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract %d: %w", id, err)
	}
	return &c, nil
}

func (s *ContractStore) Insert(ctx context.Context, c *model.Contract) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	return nil
}

func (s *ContractStore) Replace(ctx context.Context, c *model.Contract) error {
	res := s.db.WithContext(ctx).
		Model(&model.Contract{ID: c.ID}).
		Select("*").
		Omit("id", "fecha_creado").
		Updates(c)
	if res.Error != nil {
		return fmt.Errorf("failed to replace contract %d: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row and returns it so callers can clean up its document
func (s *ContractStore) Delete(ctx context.Context, id uint) (*model.Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Delete(&model.Contract{}, id)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete contract %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *ContractStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// LinkedUser returns the link row of phone, or ErrNotFound
func (s *ContractStore) LinkedUser(ctx context.Context, phone string) (*model.WhatsAppUser, error) {
	var u model.WhatsAppUser
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", phone, err)
	}
	return &u, nil
}

// LinkUser creates or updates a messaging link
func (s *ContractStore) LinkUser(ctx context.Context, u *model.WhatsAppUser) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("failed to link %s: %w", u.Phone, err)
	}
	return nil
}
