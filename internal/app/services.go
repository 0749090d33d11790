package app

import (
	"github.com/Freeeeeet/lesson_market/internal/notify"
	"github.com/Freeeeeet/lesson_market/internal/repository"
	"github.com/Freeeeeet/lesson_market/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Services собирает все сервисы ядра поверх одного пула. Через них вызывающий слой
// (API бронирования, админка) покупает, ищет и планирует уроки.
type Services struct {
	Classes       *service.ClassService
	Subscriptions *service.SubscriptionService
	Schedule      *service.ScheduleService
	Timeline      *service.TimelineService
	Inactivity    *service.InactivityService

	Users    *repository.UserRepository
	Products *repository.ProductRepository
	Events   *repository.EventRepository
}

// NewServices собирает репозитории и сервисы
func NewServices(pool *pgxpool.Pool, dispatcher *notify.Dispatcher, logger *zap.Logger) *Services {
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool, logger)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	return &Services{
		Classes:       service.NewClassService(pool, classRepo, subscriptionRepo, timelineRepo, eventRepo, logger),
		Subscriptions: service.NewSubscriptionService(pool, productRepo, subscriptionRepo, classRepo, eventRepo, logger),
		Schedule:      service.NewScheduleService(pool, userRepo, classRepo, timelineRepo, eventRepo, dispatcher, logger),
		Timeline:      service.NewTimelineService(userRepo, timelineRepo, logger),
		Inactivity:    service.NewInactivityService(pool, userRepo, productRepo, subscriptionRepo, classRepo, eventRepo, dispatcher, logger),

		Users:    userRepo,
		Products: productRepo,
		Events:   eventRepo,
	}
}
