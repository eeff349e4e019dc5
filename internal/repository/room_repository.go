package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	roomDomain "github.com/hotelhub/service-booking/internal/domain/room"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HotelID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name          string          `gorm:"not null;size:100"`
	RoomType      string          `gorm:"size:50"`
	Capacity      int             `gorm:"not null"`
	PricePerNight decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency      string          `gorm:"not null;size:3"`
	Status        string          `gorm:"not null;size:20;default:'active'"`
	Version       int64           `gorm:"not null;default:1"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RoomModel) TableName() string {
	return "rooms"
}

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// FindByID retrieves a room by ID.
func (r *GormRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	var model RoomModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", id.String())
		}
		return nil, domain.NewStorageError("find room", err)
	}
	return toDomainRoom(&model), nil
}

// List retrieves rooms ordered by name.
func (r *GormRoomRepository) List(ctx context.Context, hotelID uuid.UUID, includeArchived bool, page, limit int) ([]*roomDomain.Room, int64, error) {
	q := r.db.WithContext(ctx).Model(&RoomModel{})
	if hotelID != uuid.Nil {
		q = q.Where("hotel_id = ?", hotelID)
	}
	if !includeArchived {
		q = q.Where("status = ?", string(roomDomain.RoomStatusActive))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("count rooms", err)
	}

	var models []RoomModel
	if err := q.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("list rooms", err)
	}

	rooms := make([]*roomDomain.Room, len(models))
	for i := range models {
		rooms[i] = toDomainRoom(&models[i])
	}
	return rooms, total, nil
}

// Save persists a new room.
func (r *GormRoomRepository) Save(ctx context.Context, room *roomDomain.Room) error {
	if err := r.db.WithContext(ctx).Create(toRoomModel(room)).Error; err != nil {
		return domain.NewStorageError("save room", err)
	}
	return nil
}

// Update persists room changes with optimistic locking.
func (r *GormRoomRepository) Update(ctx context.Context, room *roomDomain.Room) error {
	model := toRoomModel(room)
	result := r.db.WithContext(ctx).
		Model(&RoomModel{}).
		Where("id = ? AND version = ?", model.ID, room.Version()-1).
		Updates(map[string]interface{}{
			"name":            model.Name,
			"room_type":       model.RoomType,
			"capacity":        model.Capacity,
			"price_per_night": model.PricePerNight,
			"currency":        model.Currency,
			"status":          model.Status,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return domain.NewStorageError("update room", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("room was modified by another transaction")
	}
	return nil
}

func toRoomModel(room *roomDomain.Room) *RoomModel {
	return &RoomModel{
		ID:            room.ID(),
		HotelID:       room.HotelID(),
		Name:          room.Name(),
		RoomType:      room.RoomType(),
		Capacity:      room.Capacity(),
		PricePerNight: room.PricePerNight(),
		Currency:      room.Currency(),
		Status:        string(room.Status()),
		Version:       room.Version(),
		CreatedAt:     room.CreatedAt(),
		UpdatedAt:     room.UpdatedAt(),
	}
}

func toDomainRoom(m *RoomModel) *roomDomain.Room {
	return roomDomain.Reconstruct(
		m.ID, m.HotelID,
		m.Name, m.RoomType,
		m.Capacity,
		m.PricePerNight,
		m.Currency,
		roomDomain.RoomStatus(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
