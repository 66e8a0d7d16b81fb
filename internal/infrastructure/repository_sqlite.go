package infrastructure

import (
	"fmt"

	"github.com/yourusername/tubescribe/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteJobRepository implements domain.JobRepository using SQLite.
// History is append-then-update: one row per job, finalized once.
type SQLiteJobRepository struct {
	db *gorm.DB
}

// NewSQLiteJobRepository creates a new SQLite repository
func NewSQLiteJobRepository(dbPath string) (*SQLiteJobRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.JobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteJobRepository{db: db}, nil
}

// Create creates a new job record
func (r *SQLiteJobRepository) Create(record *domain.JobRecord) error {
	return r.db.Create(record).Error
}

// Update updates an existing job record
func (r *SQLiteJobRepository) Update(record *domain.JobRecord) error {
	return r.db.Save(record).Error
}

// Delete deletes a job record by ID
func (r *SQLiteJobRepository) Delete(id string) error {
	return r.db.Delete(&domain.JobRecord{}, "id = ?", id).Error
}

// FindByID finds a job record by ID
func (r *SQLiteJobRepository) FindByID(id string) (*domain.JobRecord, error) {
	var record domain.JobRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByStatus finds job records by status
func (r *SQLiteJobRepository) FindByStatus(status domain.JobStatus) ([]*domain.JobRecord, error) {
	var records []*domain.JobRecord
	err := r.db.Where("status = ?", status).Find(&records).Error
	return records, err
}

// FindAll finds all job records with optional filters, newest first
func (r *SQLiteJobRepository) FindAll(filters map[string]interface{}) ([]*domain.JobRecord, error) {
	var records []*domain.JobRecord
	query := r.db

	for key, value := range filters {
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&records).Error
	return records, err
}

// Count returns the total number of job records
func (r *SQLiteJobRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.JobRecord{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of job records by status
func (r *SQLiteJobRepository) CountByStatus(status domain.JobStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.JobRecord{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// GetStats returns job statistics
func (r *SQLiteJobRepository) GetStats() (*domain.JobStats, error) {
	stats := &domain.JobStats{}

	if err := r.db.Model(&domain.JobRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.JobStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.JobRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusStarting, domain.StatusRunning:
			stats.Running += sc.Count
		case domain.StatusSucceeded:
			stats.Succeeded = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusTimedOut:
			stats.TimedOut = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
