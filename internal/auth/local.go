package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ric-center/planner/internal/datasource"
	"github.com/ric-center/planner/internal/models"
)

// LocalGateway performs account operations against the local data source.
// Interactively created accounts store a bcrypt hash; fixture accounts may
// still carry a legacy plaintext password, accepted for compatibility.
type LocalGateway struct {
	ds datasource.DataSource
}

// NewLocalGateway wraps the local data source.
func NewLocalGateway(ds datasource.DataSource) *LocalGateway {
	return &LocalGateway{ds: ds}
}

func (g *LocalGateway) Login(ctx context.Context, email, password string) (models.User, error) {
	users, err := g.ds.Users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if checkPassword(u, password) {
			return u, nil
		}
		break
	}
	return models.User{}, ErrInvalidCredentials
}

func (g *LocalGateway) Register(ctx context.Context, reg Registration) error {
	users, err := g.ds.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, reg.Email) {
			return fmt.Errorf("account %s already exists", reg.Email)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	role := reg.Role
	if role == "" {
		role = models.RoleStudent
	}
	_, err = g.ds.SaveUser(ctx, models.User{
		Email:        reg.Email,
		Name:         reg.Name,
		Surname:      reg.Surname,
		Role:         role,
		PasswordHash: string(hash),
	})
	return err
}

func (g *LocalGateway) Logout(ctx context.Context) error {
	return nil
}

// FetchUser reports that local mode has no remote session to reconcile
// against; the persisted record is authoritative.
func (g *LocalGateway) FetchUser(ctx context.Context) (models.User, error) {
	return models.User{}, errNoReconciliation
}

func (g *LocalGateway) UpdateProfile(ctx context.Context, p models.Profile) error {
	return g.ds.SaveProfile(ctx, p.UserID, p)
}

func (g *LocalGateway) Refresh(ctx context.Context) bool {
	return false
}

func checkPassword(u models.User, password string) bool {
	if u.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
	}
	return u.Password != "" && u.Password == password
}

var _ Gateway = (*LocalGateway)(nil)
