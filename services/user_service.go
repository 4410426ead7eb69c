package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/bracket-live/models"
	"github.com/Dosada05/bracket-live/repositories"
	"github.com/Dosada05/bracket-live/storage"
	"github.com/google/uuid"
)

var ErrUnsupportedAvatarType = errors.New("avatar must be a jpeg, png or webp image")

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, file io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	user.PasswordHash = ""
	s.fillAvatarURL(user)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, file io.Reader) (*models.User, error) {
	ext, ok := avatarExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, ErrUnsupportedAvatarType
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar for user %s: %w", userID, err)
	}

	oldKey := user.AvatarKey
	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key for user %s: %w", userID, err)
	}
	if oldKey != nil {
		// Старый объект больше не нужен; неудачное удаление не фатально.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	user.AvatarKey = &key
	user.PasswordHash = ""
	s.fillAvatarURL(user)
	return user, nil
}

func (s *userService) fillAvatarURL(user *models.User) {
	if user.AvatarKey != nil {
		url := s.uploader.GetPublicURL(*user.AvatarKey)
		user.AvatarURL = &url
	}
}
