package services

import (
	"errors"

	"backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductNotFound is the store's miss outcome; a miss for one region is
// still a miss even when the barcode exists under another region.
var ErrProductNotFound = errors.New("product not found")

// ProductStore is the cache/persistence layer for resolved products.
type ProductStore interface {
	// FindByCodeAndRegion returns the product only when it carries a
	// region entry for the given country.
	FindByCodeAndRegion(code, region string) (*models.Product, error)

	// UpsertWithRegion inserts the product keyed by code, or appends the
	// region entry onto an existing row with the same code. Atomic under
	// concurrent duplicate lookups: two first-time resolutions of one
	// barcode converge on a single row.
	UpsertWithRegion(product *models.Product, entry models.RegionEntry) (*models.Product, error)
}

type GormProductStore struct {
	db *gorm.DB
}

func NewGormProductStore(db *gorm.DB) *GormProductStore {
	return &GormProductStore{db: db}
}

func (s *GormProductStore) FindByCodeAndRegion(code, region string) (*models.Product, error) {
	var product models.Product
	err := s.db.
		Joins("JOIN region_entries ON region_entries.product_id = products.id AND region_entries.country = ?", region).
		Where("products.code = ?", code).
		Preload("Regions").
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *GormProductStore) UpsertWithRegion(product *models.Product, entry models.RegionEntry) (*models.Product, error) {
	var out models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		insert := *product
		insert.ID = 0
		insert.Regions = nil

		// ON CONFLICT (code) DO NOTHING: the losing writer of a
		// concurrent first resolution becomes a no-op here and appends
		// its region entry onto the winner's row below.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&insert).Error; err != nil {
			return err
		}

		var existing models.Product
		if err := tx.Where("code = ?", product.Code).First(&existing).Error; err != nil {
			return err
		}

		entry.ID = 0
		entry.ProductID = existing.ID
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "country"}},
			DoNothing: true,
		}).Create(&entry).Error; err != nil {
			return err
		}

		if err := tx.Preload("Regions").First(&existing, existing.ID).Error; err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
