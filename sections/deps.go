package sections

import (
	"gymstack-backend/common"
	"gymstack-backend/db"
	"gymstack-backend/services"
	"gymstack-backend/storage"
)

// Dependencies holds all shared dependencies for handlers
type Dependencies struct {
	Config  *common.Config
	DB      *db.DB
	Redis   *storage.RedisClient
	Gateway services.Gateway
	Mailer  *services.MailerService
}

// NewDependencies creates a new Dependencies instance
func NewDependencies(
	cfg *common.Config,
	database *db.DB,
	redis *storage.RedisClient,
	gateway services.Gateway,
	mailer *services.MailerService,
) *Dependencies {
	return &Dependencies{
		Config:  cfg,
		DB:      database,
		Redis:   redis,
		Gateway: gateway,
		Mailer:  mailer,
	}
}
