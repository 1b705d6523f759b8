package db

import (
	"context"

	"github.com/albertcolmenero/invoicehub/models"
)

func (s *Store) GetUser(ctx context.Context, ownerID string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, company_name, address, city, state, zip_code, country, phone, logo,
		created_at, updated_at FROM users WHERE id = $1`, ownerID).
		Scan(&u.ID, &u.CompanyName, &u.Address, &u.City, &u.State, &u.ZipCode, &u.Country, &u.Phone, &u.Logo,
			&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, rowErr(err, "user", ownerID)
	}
	return u, nil
}

// UpsertUser creates the profile on first save and overwrites it afterwards.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	err := s.db.QueryRowContext(ctx, `INSERT INTO users
		(id, company_name, address, city, state, zip_code, country, phone, logo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name, address = EXCLUDED.address, city = EXCLUDED.city,
			state = EXCLUDED.state, zip_code = EXCLUDED.zip_code, country = EXCLUDED.country,
			phone = EXCLUDED.phone, logo = EXCLUDED.logo, updated_at = now()
		RETURNING created_at, updated_at`,
		u.ID, u.CompanyName, u.Address, u.City, u.State, u.ZipCode, u.Country, u.Phone, u.Logo,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapErr(err, "upserting user")
	}
	return nil
}
