package register

import (
	"context"
	"errors"
	"fmt"

	"gymstack-backend/db"
	"gymstack-backend/sections/models"

	"gorm.io/gorm"
)

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("record already exists")

// Store is the persistence surface the provisioner needs. Lookups return
// (nil, nil) when no row matches.
type Store interface {
	GymBySlug(ctx context.Context, slug string) (*models.Gym, error)
	GymByPaymentID(ctx context.Context, paymentID string) (*models.Gym, error)
	CreateGym(ctx context.Context, gym *models.Gym) error
	DeleteGym(ctx context.Context, gymID string) error
	CreateUser(ctx context.Context, user *models.User) error
	CreateGymMember(ctx context.Context, member *models.GymMember) error
	CreateMembershipPlans(ctx context.Context, plans []models.MembershipPlan) error
}

type gormStore struct {
	db *db.DB
}

// NewStore creates a gorm-backed Store
func NewStore(database *db.DB) Store {
	return &gormStore{db: database}
}

func (s *gormStore) GymBySlug(ctx context.Context, slug string) (*models.Gym, error) {
	var gym models.Gym
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&gym).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query gym by slug: %w", err)
	}
	return &gym, nil
}

func (s *gormStore) GymByPaymentID(ctx context.Context, paymentID string) (*models.Gym, error) {
	var gym models.Gym
	err := s.db.WithContext(ctx).Where("gateway_payment_id = ?", paymentID).First(&gym).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query gym by payment id: %w", err)
	}
	return &gym, nil
}

func (s *gormStore) CreateGym(ctx context.Context, gym *models.Gym) error {
	if err := s.db.WithContext(ctx).Create(gym).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create gym: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteGym(ctx context.Context, gymID string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Gym{}, "id = ?", gymID).Error; err != nil {
		return fmt.Errorf("failed to delete gym: %w", err)
	}
	return nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *gormStore) CreateGymMember(ctx context.Context, member *models.GymMember) error {
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("failed to create gym member: %w", err)
	}
	return nil
}

func (s *gormStore) CreateMembershipPlans(ctx context.Context, plans []models.MembershipPlan) error {
	if len(plans) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&plans).Error; err != nil {
		return fmt.Errorf("failed to create membership plans: %w", err)
	}
	return nil
}
