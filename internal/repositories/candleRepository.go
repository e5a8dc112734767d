package repositories

import (
	"time"

	"MacdRsiBot/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository creates a new instance of CandleRepository
func NewCandleRepository(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// Migrate creates or updates the candles table
func (r *CandleRepository) Migrate() error {
	return r.db.AutoMigrate(&models.CandleRecord{})
}

// Create stores a candle record; a candle already stored for the same
// symbol, timeframe and open time is left untouched.
func (r *CandleRepository) Create(record *models.CandleRecord) error {
	if record == nil {
		return errors.New("candle record cannot be nil")
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
}

// GetRange gets candles for a symbol and timeframe within [start, end], oldest first
func (r *CandleRepository) GetRange(symbol, timeFrame string, start, end time.Time) ([]models.CandleRecord, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var records []models.CandleRecord
	err := r.db.Where("symbol = ? AND time_frame = ? AND open_time BETWEEN ? AND ?",
		symbol, timeFrame, start, end).
		Order("open_time ASC").
		Find(&records).Error
	return records, err
}
