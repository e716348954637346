package repository

import (
	"context"
	"strings"
	"time"

	"lendhub/internal/domain"

	"gorm.io/gorm"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// EquipmentFilters narrows List. Search is a case-insensitive substring
// match on name and description; Category is an exact match.
type EquipmentFilters struct {
	Category string
	Search   string
}

type equipmentModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Category    string    `gorm:"column:category"`
	Condition   string    `gorm:"column:condition"`
	Quantity    int       `gorm:"column:quantity"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (equipmentModel) TableName() string { return "equipment" }

func toDomainEquipment(m equipmentModel) *domain.Equipment {
	var desc string
	if m.Description != nil {
		desc = *m.Description
	}

	return &domain.Equipment{
		ID:          m.ID,
		Name:        m.Name,
		Category:    m.Category,
		Condition:   domain.Condition(m.Condition),
		Quantity:    m.Quantity,
		Description: desc,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toEquipmentModel(e *domain.Equipment) equipmentModel {
	var desc *string
	if e.Description != "" {
		v := e.Description
		desc = &v
	}

	return equipmentModel{
		ID:          e.ID,
		Name:        e.Name,
		Category:    e.Category,
		Condition:   string(e.Condition),
		Quantity:    e.Quantity,
		Description: desc,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r *EquipmentRepository) Migrate() error {
	return r.db.AutoMigrate(&equipmentModel{})
}

func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	m := toEquipmentModel(e)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = *toDomainEquipment(m)
	return nil
}

func (r *EquipmentRepository) Update(ctx context.Context, e *domain.Equipment) error {
	m := toEquipmentModel(e)
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"name":        m.Name,
			"category":    m.Category,
			"condition":   m.Condition,
			"quantity":    m.Quantity,
			"description": m.Description,
			"updated_at":  time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	var m equipmentModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainEquipment(m), nil
}

func (r *EquipmentRepository) List(ctx context.Context, f EquipmentFilters) ([]domain.Equipment, error) {
	q := r.db.WithContext(ctx).Model(&equipmentModel{})

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern)
	}

	var rows []equipmentModel
	if tx := q.Order("name").Find(&rows); tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Equipment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainEquipment(m))
	}
	return out, nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Delete(&equipmentModel{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *EquipmentRepository) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).
		Distinct("category").
		Order("category").
		Pluck("category", &cats)
	return cats, tx.Error
}

func (r *EquipmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).Count(&n)
	return n, tx.Error
}

func (r *EquipmentRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Category string
		N        int64
	}
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).
		Select("category, COUNT(*) as n").
		Group("category").
		Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Category] = row.N
	}
	return out, nil
}
