package usecase

import (
	"context"
	"strings"

	"anilifetv/internal/domain/entity"
	"anilifetv/internal/domain/repository"
	"anilifetv/internal/infrastructure/firebase"
	"anilifetv/pkg/errors"
	"anilifetv/pkg/logger"
)

// AuthUseCase mirrors provider identities into the users collection and
// serves profile reads and updates. Token issuance stays with the provider.
type AuthUseCase struct {
	authClient *firebase.AuthClient
	userRepo   repository.UserRepository
}

func NewAuthUseCase(authClient *firebase.AuthClient, userRepo repository.UserRepository) *AuthUseCase {
	return &AuthUseCase{
		authClient: authClient,
		userRepo:   userRepo,
	}
}

// EnsureProfile upserts the users document from the provider record. Called
// on first authenticated request per session so search and chat metadata
// always have a document to read.
func (uc *AuthUseCase) EnsureProfile(ctx context.Context, uid string) (*entity.User, error) {
	record, err := uc.authClient.GetUser(ctx, uid)
	if err != nil {
		return nil, errors.Unauthorized("Unknown account", err)
	}

	displayName := record.DisplayName
	if displayName == "" && record.Email != "" {
		displayName = strings.SplitN(record.Email, "@", 2)[0]
	}

	user, err := uc.userRepo.EnsureUser(ctx, &entity.User{
		ID:          uid,
		DisplayName: displayName,
		Email:       record.Email,
		PhotoURL:    record.PhotoURL,
	})
	if err != nil {
		return nil, errors.Internal("Failed to load profile", err)
	}

	return user, nil
}

func (uc *AuthUseCase) GetProfile(ctx context.Context, uid string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, uid)
}

type UpdateProfileInput struct {
	DisplayName string `json:"display_name" validate:"omitempty,min=1,max=64"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

// UpdateProfile changes display name and avatar only. Email is owned by the
// identity provider and never writable here.
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, uid string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != "" {
		user.DisplayName = strings.TrimSpace(input.DisplayName)
	}
	if input.PhotoURL != "" {
		user.PhotoURL = input.PhotoURL
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Internal("Failed to update profile", err)
	}

	return user, nil
}

// SignOut revokes every refresh token for the uid. Existing ID tokens stay
// valid until their natural expiry, matching provider semantics.
func (uc *AuthUseCase) SignOut(ctx context.Context, uid string) error {
	if err := uc.authClient.RevokeSessions(ctx, uid); err != nil {
		logger.Error("Failed to revoke sessions for %s: %v", uid, err)
		return errors.Internal("Failed to sign out", err)
	}

	return nil
}
