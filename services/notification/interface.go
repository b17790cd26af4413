package notification

import (
	"context"
	"fmt"

	guideRepo "trailbound/database/repository/guide"
	hikerRepo "trailbound/database/repository/hiker"
)

// NotificationService delivers emails and ops chat messages. Implementations
// must treat delivery as best-effort; payment flows never depend on it.
type NotificationService interface {
	SendHikerEmail(ctx context.Context, hikerID, template string, data map[string]string) error
	SendGuideEmail(ctx context.Context, guideID, template string, data map[string]string) error
	SendOpsMessage(ctx context.Context, text string) error
}

// Dispatcher is the fire-and-forget side used by the payment services. It
// enqueues delivery and swallows failures (logging them); callers never see an
// error.
type Dispatcher interface {
	HikerEmail(ctx context.Context, hikerID, template string, data map[string]string)
	GuideEmail(ctx context.Context, guideID, template string, data map[string]string)
	OpsMessage(ctx context.Context, text string)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Hikers  hikerRepo.HikerRepository
	Guides  guideRepo.GuideRepository
	Mailer  *EmailClient
	OpsChat *OpsChatClient
}

func NewDefaultNotificationService(
	hikers hikerRepo.HikerRepository,
	guides guideRepo.GuideRepository,
	mailer *EmailClient,
	opsChat *OpsChatClient,
) (*DefaultNotificationService, error) {
	if hikers == nil || guides == nil {
		return nil, fmt.Errorf("notification service initialization error: hiker or guide repository is nil")
	}
	return &DefaultNotificationService{
		Hikers:  hikers,
		Guides:  guides,
		Mailer:  mailer,
		OpsChat: opsChat,
	}, nil
}

// SendHikerEmail looks up the hiker's address and sends a templated email.
func (s *DefaultNotificationService) SendHikerEmail(ctx context.Context, hikerID, template string, data map[string]string) error {
	h, err := s.Hikers.GetByID(ctx, hikerID)
	if err != nil || h == nil {
		return fmt.Errorf("SendHikerEmail: could not find hiker %s: %w", hikerID, err)
	}
	return s.Mailer.Send(ctx, h.Email, h.Name, template, data)
}

// SendGuideEmail looks up the guide's address and sends a templated email.
func (s *DefaultNotificationService) SendGuideEmail(ctx context.Context, guideID, template string, data map[string]string) error {
	g, err := s.Guides.GetByID(ctx, guideID)
	if err != nil || g == nil {
		return fmt.Errorf("SendGuideEmail: could not find guide %s: %w", guideID, err)
	}
	return s.Mailer.Send(ctx, g.Email, g.Name, template, data)
}

// SendOpsMessage posts a message to the operations chat channel.
func (s *DefaultNotificationService) SendOpsMessage(ctx context.Context, text string) error {
	if s.OpsChat == nil {
		return nil
	}
	return s.OpsChat.Post(ctx, text)
}
