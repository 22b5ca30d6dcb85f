// Package service holds the signup and profile use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/geocoder89/funapp/internal/domain/user"
	"github.com/geocoder89/funapp/internal/geo"
)

var (
	ErrConflict        = errors.New("user already exists")
	ErrInvalidLocation = errors.New("location outside the allowed region")
	ErrNotFound        = errors.New("user not found")
)

// ErrGeocoding belongs to the invalid location class.
var ErrGeocoding = fmt.Errorf("%w: city could not be determined", ErrInvalidLocation)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id int64) (user.User, error)
	Insert(ctx context.Context, u user.User) (user.User, error)
}

type Geocoder interface {
	ResolveCity(ctx context.Context, lat, lon float64) (string, error)
}

type TokenIssuer interface {
	Issue(subject, email string) (string, error)
}

// SignupRecorder receives one outcome per signup attempt. Optional.
type SignupRecorder interface {
	IncSignup(outcome string)
}

type Deps struct {
	Store    UserStore
	Geocoder Geocoder
	Tokens   TokenIssuer
	InRegion func(lat, lon float64) bool
	Log      *slog.Logger
	Recorder SignupRecorder
}

type UserService struct {
	store    UserStore
	geocoder Geocoder
	tokens   TokenIssuer
	inRegion func(lat, lon float64) bool
	log      *slog.Logger
	recorder SignupRecorder
}

func NewUserService(d Deps) *UserService {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	inRegion := d.InRegion
	if inRegion == nil {
		inRegion = geo.IsWithinAllowedRegion
	}

	return &UserService{
		store:    d.Store,
		geocoder: d.Geocoder,
		tokens:   d.Tokens,
		inRegion: inRegion,
		log:      log,
		recorder: d.Recorder,
	}
}

// AddNewUser registers a user and returns a signed token for it. Every
// rejection happens before the insert.
func (s *UserService) AddNewUser(ctx context.Context, in user.SignupInput) (token string, err error) {
	outcome := "created"
	defer func() {
		if err != nil {
			outcome = signupOutcome(err)
		}
		if s.recorder != nil {
			s.recorder.IncSignup(outcome)
		}
	}()

	_, err = s.store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return "", ErrConflict
	case !errors.Is(err, user.ErrNotFound):
		return "", fmt.Errorf("lookup email: %w", err)
	}

	if !s.inRegion(in.Latitude, in.Longitude) {
		return "", ErrInvalidLocation
	}

	city, err := s.geocoder.ResolveCity(ctx, in.Latitude, in.Longitude)
	if err != nil {
		s.log.WarnContext(ctx, "geocoding failed", "err", err)
		return "", fmt.Errorf("%w: %w", ErrGeocoding, err)
	}

	created, err := s.store.Insert(ctx, user.NewFromSignup(in, city))
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			// lost the race against a concurrent signup
			return "", ErrConflict
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	token, err = s.tokens.Issue(strconv.FormatInt(created.ID, 10), created.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", created.ID, "city", created.City)

	return token, nil
}

func (s *UserService) GetUserProfile(ctx context.Context, id int64) (user.UserProfile, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.UserProfile{}, ErrNotFound
		}
		return user.UserProfile{}, fmt.Errorf("lookup user: %w", err)
	}

	s.log.DebugContext(ctx, "profile read", "user_id", id)

	return u.Profile(), nil
}

func signupOutcome(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrGeocoding):
		return "geocoding_failed"
	case errors.Is(err, ErrInvalidLocation):
		return "outside_region"
	default:
		return "error"
	}
}
