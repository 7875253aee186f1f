package service

import (
	"context"
	"errors"

	"catacomb_backend/internal/domain"
	"catacomb_backend/internal/logger"
	"catacomb_backend/internal/repository"
)

var ErrInvalidInitData = errors.New("invalid telegram init data")

// AuthService turns validated Telegram init_data into users and tokens.
type AuthService struct {
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
	botToken  string
}

func NewAuthService(users *repository.UserRepository, referrals *repository.ReferralRepository, botToken string) *AuthService {
	return &AuthService{users: users, referrals: referrals, botToken: botToken}
}

// Authenticate validates init_data, creates the user on first login and
// returns a signed token. A non-empty referralCode binds the new user to
// its owner; the link is written once.
func (s *AuthService) Authenticate(ctx context.Context, initData, referralCode string) (*domain.User, string, error) {
	values, ok := ValidateTelegramInitData(initData, s.botToken)
	if !ok {
		return nil, "", ErrInvalidInitData
	}
	tu, ok := ParseTelegramUser(values)
	if !ok {
		return nil, "", ErrInvalidInitData
	}

	u, err := s.users.GetByTgID(ctx, tu.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		u = &domain.User{
			TgID:         tu.ID,
			Username:     tu.Username,
			FirstName:    tu.FirstName,
			ReferralCode: repository.GenerateReferralCode(),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, "", err
		}
		if referralCode != "" {
			s.bindReferrer(ctx, u.ID, referralCode)
		}
		logger.Info("user created", "user_id", u.ID, "tg_id", u.TgID)
	} else if err != nil {
		return nil, "", err
	}

	if u.Blocked {
		return nil, "", ErrUserBlocked
	}

	token, err := GenerateJWT(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AuthService) bindReferrer(ctx context.Context, userID int64, code string) {
	referrerID, err := s.referrals.GetUserIDByCode(ctx, code)
	if err != nil {
		logger.Warn("referral code lookup failed", "code", code, "error", err)
		return
	}
	if err := s.referrals.Bind(ctx, referrerID, userID); err != nil {
		logger.Warn("referral bind failed", "referrer_id", referrerID, "user_id", userID, "error", err)
	}
}
