package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/shop-api/internal/mailer"
)

type ContactService interface {
	Contact(ctx context.Context, email, message string) error
}

type contactService struct {
	log          *slog.Logger
	mailer       mailer.Mailer
	storeName    string
	ownerEmail   string
	supportEmail string
}

func NewContactService(log *slog.Logger, m mailer.Mailer, storeName, ownerEmail, supportEmail string) ContactService {
	return &contactService{
		log:          log,
		mailer:       m,
		storeName:    storeName,
		ownerEmail:   ownerEmail,
		supportEmail: supportEmail,
	}
}

// Contact отправляет запрос владельцу магазина и подтверждение отправителю
func (s *contactService) Contact(ctx context.Context, email, message string) error {
	const op = "service.ContactService.Contact"
	logger := s.log.With(slog.String("op", op), slog.String("email", email))

	logger.Info("sending email to store owner")
	err := s.mailer.Send(ctx, mailer.Message{
		To:      s.ownerEmail,
		Subject: fmt.Sprintf("New Customer Inquiry - %s", s.storeName),
		Body: fmt.Sprintf("New Customer Inquiry from %s\n--------------------------------------------------\nEmail: %s\nMessage: %s",
			s.storeName, email, message),
	})
	if err != nil {
		logger.Error("failed to send owner email", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("sending confirmation email to user")
	err = s.mailer.Send(ctx, mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Thank You for Contacting %s", s.storeName),
		Body: fmt.Sprintf("Hello,\n\nThank you for reaching out to %s!\n"+
			"We have received your message and our support team will get back to you as soon as possible.\n\n"+
			"If you have any urgent queries, you can contact us at %s.\n\nBest regards,\nThe %s Team",
			s.storeName, s.supportEmail, s.storeName),
	})
	if err != nil {
		logger.Error("failed to send confirmation email", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("emails sent successfully")
	return nil
}
