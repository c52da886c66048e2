package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/hash"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type AuthService struct {
	DB       *gorm.DB
	Producer events.Publisher
}

type RegisterBuyerInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type RegisterSellerInput struct {
	ShopName string `json:"shop_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthService) RegisterBuyer(ctx context.Context, in RegisterBuyerInput) (*models.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Username) == "" {
		fields["username"] = "username is required"
	}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "email is required"
	}
	if in.Password == "" {
		fields["password"] = "password is required"
	} else if in.Password != in.PasswordConfirm {
		fields["password_confirm"] = "passwords do not match"
	}
	if len(fields) > 0 {
		return nil, &FieldErrors{Fields: fields}
	}

	passwordHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: passwordHash,
		Role:         models.RoleBuyer,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The unique index on username is the source of truth; a
		// select-then-insert check would race with concurrent signups.
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: username %q already taken", ErrConflict, user.Username)
			}
			return err
		}
		return tx.Create(&models.Cart{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})

	return &user, nil
}

func (s *AuthService) RegisterSeller(ctx context.Context, in RegisterSellerInput) (*models.User, error) {
	fields := map[string]string{}
	shopName := strings.TrimSpace(in.ShopName)
	email := strings.TrimSpace(in.Email)
	if shopName == "" {
		fields["shop_name"] = "shop name is required"
	}
	if email == "" {
		fields["email"] = "email is required"
	}
	if in.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, &FieldErrors{Fields: fields}
	}

	passwordHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	seed := shopName
	if seed == "" {
		seed, _, _ = strings.Cut(email, "@")
	}

	var user models.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		username, err := uniqueUsername(tx, seed)
		if err != nil {
			return err
		}

		user = models.User{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         models.RoleSeller,
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: username %q already taken", ErrConflict, username)
			}
			return err
		}

		profile := models.SellerProfile{
			UserID:     user.ID,
			ShopName:   shopName,
			IsSeller:   true,
			IsCustomer: false,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return tx.Create(&models.Cart{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]interface{}{
		"type":      "seller_registered",
		"user_id":   user.ID,
		"username":  user.Username,
		"shop_name": shopName,
	})

	return &user, nil
}

// uniqueUsername slugifies the seed and appends a numeric suffix until the
// candidate is free: "acme", "acme2", "acme3", ...
func uniqueUsername(tx *gorm.DB, seed string) (string, error) {
	base := slug.Make(seed)
	if base == "" {
		base = "seller"
	}

	candidate := base
	for i := 1; ; i++ {
		if i > 1 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}
		var existing models.User
		err := tx.Where("username = ?", candidate).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	s.publish(ctx, user.ID, map[string]interface{}{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return &user, nil
}

func (s *AuthService) publish(ctx context.Context, userID uint, event map[string]interface{}) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, events.TopicUserEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", events.TopicUserEvents, "error", err)
	}
}
