package register

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gymstack-backend/common"
	"gymstack-backend/monitoring"
	"gymstack-backend/sections/models"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPaymentAlreadyUsed means a gym was already provisioned against this
	// gateway payment id. Replays are rejected, never re-provisioned.
	ErrPaymentAlreadyUsed = errors.New("payment already used for a registration")

	// ErrSlugTaken means the requested slug is already owned by another gym.
	ErrSlugTaken = errors.New("slug already taken")

	ErrGymCreationFailed        = errors.New("gym creation failed")
	ErrAccountCreationFailed    = errors.New("admin account creation failed")
	ErrMembershipCreationFailed = errors.New("admin membership creation failed")
)

// RegistrationRequest is the validated form payload that provisioning runs on.
type RegistrationRequest struct {
	Name      string          `json:"name" binding:"required"`
	Slug      string          `json:"slug" binding:"required"`
	Email     string          `json:"email" binding:"required,email"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	AdminName string          `json:"admin_name" binding:"required"`
	Password  string          `json:"password" binding:"required,min=8"`
	PlanType  common.PlanType `json:"plan_type" binding:"required"`
}

// Validate checks the fields gin's binding tags cannot express.
func (r *RegistrationRequest) Validate() error {
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	if !common.ValidSlug(r.Slug) {
		return fmt.Errorf("invalid slug %q", r.Slug)
	}
	if !r.PlanType.Valid() {
		return fmt.Errorf("invalid plan type %q", r.PlanType)
	}
	return nil
}

// ProvisionResult is everything created for a successful registration.
type ProvisionResult struct {
	Gym   *models.Gym
	Admin *models.User
}

// GymCache drops cached gym lookups. *storage.RedisClient implements it.
type GymCache interface {
	InvalidateGym(ctx context.Context, gym *models.Gym) error
}

// Provisioner creates the tenant records for a paid registration. The payment
// must already be verified; the provisioner only guards against replays.
type Provisioner struct {
	store  Store
	cache  GymCache
	logger *slog.Logger
	now    func() time.Time
}

// NewProvisioner creates a new provisioner. cache may be nil.
func NewProvisioner(store Store, cache GymCache) *Provisioner {
	return &Provisioner{
		store:  store,
		cache:  cache,
		logger: slog.With("service", "Provisioner"),
		now:    time.Now,
	}
}

// Provision creates the gym, its admin user, the admin's gym membership and
// the default membership plans. The gym insert is the commit point: if the
// admin account cannot be created the gym is rolled back, while later failures
// leave the gym in place and are surfaced for reconciliation.
func (p *Provisioner) Provision(ctx context.Context, req *RegistrationRequest, paymentID, orderID string) (*ProvisionResult, error) {
	started := p.now()

	existing, err := p.store.GymByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		p.logger.Warn("Replay of already-used payment", "payment_id", paymentID, "gym_id", existing.ID)
		monitoring.RegistrationsTotal.WithLabelValues("replay").Inc()
		return nil, ErrPaymentAlreadyUsed
	}

	planStart, planEnd := common.PlanWindow(req.PlanType, p.now())

	gym := &models.Gym{
		Name:             req.Name,
		Slug:             req.Slug,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		PlanType:         string(req.PlanType),
		PlanStart:        planStart,
		PlanEnd:          planEnd,
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		IsActive:         true,
	}
	if err := p.store.CreateGym(ctx, gym); err != nil {
		monitoring.RegistrationsTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, ErrConflict) {
			// Either the slug or the payment id collided. The payment id
			// pre-check above ran already, so report the slug.
			return nil, fmt.Errorf("%w: %w", ErrSlugTaken, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrGymCreationFailed, err)
	}
	p.logger.Info("Gym created", "gym_id", gym.ID, "slug", gym.Slug, "plan_type", gym.PlanType)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		p.rollbackGym(ctx, gym)
		monitoring.RegistrationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: failed to hash password: %w", ErrAccountCreationFailed, err)
	}

	admin := &models.User{
		Email:          req.Email,
		PasswordHash:   string(hash),
		FullName:       req.AdminName,
		GymID:          gym.ID,
		EmailConfirmed: true,
		Active:         true,
	}
	if err := p.store.CreateUser(ctx, admin); err != nil {
		p.rollbackGym(ctx, gym)
		monitoring.RegistrationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrAccountCreationFailed, err)
	}
	p.logger.Info("Admin user created", "user_id", admin.ID, "gym_id", gym.ID)

	member := &models.GymMember{
		UserID: admin.ID,
		GymID:  gym.ID,
		Role:   "admin",
	}
	if err := p.store.CreateGymMember(ctx, member); err != nil {
		// The gym and admin exist and the payment is consumed; deleting them
		// would strand a paid registration. The rows stay for support to
		// attach the membership by hand, but the failure is still the
		// caller's to see.
		p.logger.Error("Admin membership creation failed, manual reconciliation needed",
			"gym_id", gym.ID, "user_id", admin.ID, "error", err)
		monitoring.RegistrationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrMembershipCreationFailed, err)
	}

	p.seedPlans(ctx, gym.ID)

	monitoring.RegistrationsTotal.WithLabelValues("success").Inc()
	monitoring.ProvisioningDuration.Observe(p.now().Sub(started).Seconds())
	p.logger.Info("Tenant provisioned", "gym_id", gym.ID, "slug", gym.Slug)

	return &ProvisionResult{Gym: gym, Admin: admin}, nil
}

func (p *Provisioner) rollbackGym(ctx context.Context, gym *models.Gym) {
	if err := p.store.DeleteGym(ctx, gym.ID); err != nil {
		p.logger.Error("Gym rollback failed", "gym_id", gym.ID, "error", err)
		return
	}
	// A concurrent request may have cached the gym between insert and delete.
	if p.cache != nil {
		if err := p.cache.InvalidateGym(ctx, gym); err != nil {
			p.logger.Warn("Gym cache invalidation failed", "gym_id", gym.ID, "error", err)
		}
	}
	p.logger.Info("Gym rolled back", "gym_id", gym.ID)
}

// seedPlans inserts the default membership plans. Failures are logged only;
// a gym without seed plans is degraded, not broken.
func (p *Provisioner) seedPlans(ctx context.Context, gymID string) {
	seeds := common.DefaultPlanSeeds()
	plans := make([]models.MembershipPlan, 0, len(seeds))
	for _, seed := range seeds {
		plans = append(plans, models.MembershipPlan{
			GymID:        gymID,
			Name:         seed.Name,
			Description:  seed.Description,
			DurationDays: seed.DurationDays,
			Price:        seed.Price,
			IsActive:     true,
		})
	}
	if err := p.store.CreateMembershipPlans(ctx, plans); err != nil {
		p.logger.Error("Failed to seed membership plans", "gym_id", gymID, "error", err)
		return
	}
	p.logger.Info("Default membership plans seeded", "gym_id", gymID, "count", len(plans))
}
