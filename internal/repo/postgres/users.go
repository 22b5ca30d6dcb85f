package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/funapp/internal/domain/user"
	"github.com/geocoder89/funapp/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usersEmailConstraint = "users_email_key"

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const selectUserColumns = `SELECT id, name, email, latitude, longitude, city, created_at FROM users`

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.find_by_email", func() error {
		return r.pool.QueryRow(ctx, selectUserColumns+` WHERE email = $1`, email).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Latitude,
			&u.Longitude,
			&u.City,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) FindByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.find_by_id", func() error {
		return r.pool.QueryRow(ctx, selectUserColumns+` WHERE id = $1`, id).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Latitude,
			&u.Longitude,
			&u.City,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// Insert stores a new user; the database assigns id and created_at. The
// unique index on email is the authoritative duplicate guard.
func (r *UsersRepo) Insert(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.insert", func() error {
		return r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, latitude, longitude, city)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.Name, u.Email, u.Latitude, u.Longitude, u.City).Scan(&u.ID, &u.CreatedAt)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == usersEmailConstraint {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}
