package service

import (
	"context"

	"github.com/yourconsultingltd/ycl-backend/internal/repository"
	"github.com/yourconsultingltd/ycl-backend/internal/server"
)

type Services struct {
	Contact     *ContactService
	Application *ApplicationService
	Newsletter  *NewsletterService
	Health      *HealthService
}

func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	deps := HealthDeps{
		Store:       s.DB,
		Mail:        s.Job,
		Checks:      s.Config.Observability.HealthChecks,
		Environment: s.Config.Primary.Env,
		NewRelic:    s.LoggerService.GetApplication(),
		Logger:      s.Logger,
	}
	if s.Redis != nil {
		rdb := s.Redis
		deps.Redis = PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	return &Services{
		Contact:     NewContactService(repos.Contact, s.Job, s.Logger),
		Application: NewApplicationService(repos.Application, s.Storage, s.Job, s.Logger),
		Newsletter:  NewNewsletterService(repos.Newsletter, s.Job, s.Logger),
		Health:      NewHealthService(deps),
	}
}
