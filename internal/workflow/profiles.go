package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexio-dev/nexbot/internal/access"
	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/store"
)

// bcryptCost is a package-level var so tests can hash cheaply.
var bcryptCost = bcrypt.DefaultCost

// Profiles runs the user profile workflows.
type Profiles struct {
	store  store.Store
	access *access.Resolver
	logger *zap.Logger
}

// NewProfiles wires the profile workflows.
func NewProfiles(s store.Store, r *access.Resolver, logger *zap.Logger) *Profiles {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiles{store: s, access: r, logger: logger.Named("profiles")}
}

// MakeProfileParams is the input of makeprofile.
type MakeProfileParams struct {
	DisplayName    string  `validate:"required,max=15" label:"Display name"`
	RepositoryLink string  `validate:"github" label:"GitHub link"`
	Secret         string  `validate:"required,max=72" label:"Password"`
	Bio            *string `validate:"omitnil,maxwords=25" label:"Bio"`
	Location       *string `validate:"omitnil,max=100" label:"Location"`
}

// Create stores a new profile for the caller, replacing any existing one
// except for its verified flag. The app password is kept only as a bcrypt
// hash.
func (w *Profiles) Create(ctx context.Context, caller platform.Member, params MakeProfileParams) (*records.UserProfile, error) {
	if err := check(params); err != nil {
		return nil, err
	}
	if caller.JoinedAt.IsZero() {
		return nil, notFound("Unable to retrieve the member's join date.", nil)
	}

	secret, err := hashSecret(params.Secret)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "That password cannot be used.", Err: err}
	}

	bio := records.DefaultBio
	if params.Bio != nil && *params.Bio != "" {
		bio = *params.Bio
	}

	p := &records.UserProfile{
		ID:             caller.ID,
		Tag:            caller.Name,
		DisplayName:    params.DisplayName,
		Bio:            bio,
		RepositoryLink: params.RepositoryLink,
		Secret:         secret,
		AvatarURL:      caller.AvatarURL,
		JoinedAt:       caller.JoinedAt.UTC(),
		Location:       params.Location,
	}
	existing, err := w.store.Profile(ctx, caller.ID)
	switch {
	case err == nil:
		p.Verified = existing.Verified
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeFailure("An error occurred while creating the profile", err)
	}
	if err := w.store.PutProfile(ctx, p); err != nil {
		return nil, storeFailure("An error occurred while creating the profile", err)
	}

	w.logger.Info("profile created", zap.String("user", caller.ID))
	return p, nil
}

// Get loads the profile of user.
func (w *Profiles) Get(ctx context.Context, user platform.Member) (*records.UserProfile, error) {
	p, err := w.store.Profile(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(fmt.Sprintf("No profile found for %s.", user.Mention), err)
	}
	if err != nil {
		return nil, storeFailure("Failed to load the profile", err)
	}
	return p, nil
}

// Verify marks target's profile verified. Staff only.
func (w *Profiles) Verify(ctx context.Context, caller, target platform.Member) (*records.UserProfile, error) {
	if err := w.access.Authorize(caller, access.ElevatedStaff, nil); err != nil {
		return nil, denied("You do not have permission to verify users.", err)
	}

	p, err := w.store.UpdateProfile(ctx, target.ID, records.ProfileUpdate{Verified: true})
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(fmt.Sprintf("No profile found for %s.", target.Mention), err)
	}
	if err != nil {
		return nil, storeFailure("Failed to verify the profile", err)
	}

	w.logger.Info("profile verified", zap.String("user", target.ID), zap.String("caller", caller.ID))
	return p, nil
}

// UpdateBio replaces the caller's bio.
func (w *Profiles) UpdateBio(ctx context.Context, caller platform.Member, bio string) (*records.UserProfile, error) {
	return w.update(ctx, caller, records.ProfileUpdate{Bio: &bio})
}

// UpdateName replaces the caller's display name.
func (w *Profiles) UpdateName(ctx context.Context, caller platform.Member, name string) (*records.UserProfile, error) {
	return w.update(ctx, caller, records.ProfileUpdate{DisplayName: &name})
}

// UpdateGitHub replaces the caller's GitHub link.
func (w *Profiles) UpdateGitHub(ctx context.Context, caller platform.Member, link string) (*records.UserProfile, error) {
	return w.update(ctx, caller, records.ProfileUpdate{RepositoryLink: &link})
}

// UpdateLocation replaces the caller's location.
func (w *Profiles) UpdateLocation(ctx context.Context, caller platform.Member, location string) (*records.UserProfile, error) {
	return w.update(ctx, caller, records.ProfileUpdate{Location: &location})
}

type secretParams struct {
	Secret string `validate:"required,max=72" label:"Password"`
}

// UpdateSecret replaces the caller's app password hash.
func (w *Profiles) UpdateSecret(ctx context.Context, caller platform.Member, secret string) (*records.UserProfile, error) {
	if err := check(secretParams{Secret: secret}); err != nil {
		return nil, err
	}
	hashed, err := hashSecret(secret)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "That password cannot be used.", Err: err}
	}
	return w.update(ctx, caller, records.ProfileUpdate{Secret: &hashed})
}

// update validates u before touching the store.
func (w *Profiles) update(ctx context.Context, caller platform.Member, u records.ProfileUpdate) (*records.UserProfile, error) {
	if err := check(u); err != nil {
		return nil, err
	}

	p, err := w.store.UpdateProfile(ctx, caller.ID, u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(fmt.Sprintf("No profile found for %s.", caller.Mention), err)
	}
	if err != nil {
		return nil, storeFailure("Failed to update the profile", err)
	}
	return p, nil
}

func hashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
