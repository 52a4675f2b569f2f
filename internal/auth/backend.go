package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ric-center/planner/internal/backend"
	"github.com/ric-center/planner/internal/models"
)

// BackendGateway performs account operations against the upstream API.
type BackendGateway struct {
	client *backend.Client
}

// NewBackendGateway wraps an upstream client.
func NewBackendGateway(client *backend.Client) *BackendGateway {
	return &BackendGateway{client: client}
}

func (g *BackendGateway) Login(ctx context.Context, email, password string) (models.User, error) {
	body, err := g.client.Login(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	u, err := mapUserInfo(body)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (g *BackendGateway) Register(ctx context.Context, reg Registration) error {
	_, err := g.client.Post(ctx, "/api/users/register/", map[string]any{
		"email":      reg.Email,
		"first_name": reg.Name,
		"last_name":  reg.Surname,
		"password":   reg.Password,
		"password2":  reg.Password,
	})
	return err
}

func (g *BackendGateway) Logout(ctx context.Context) error {
	return g.client.Logout(ctx)
}

func (g *BackendGateway) FetchUser(ctx context.Context) (models.User, error) {
	body, err := g.client.Get(ctx, "/api/users/user-info/")
	if err != nil {
		return models.User{}, err
	}
	return mapUserInfo(body)
}

// allow-listed subset of profile fields; anything else the caller sets is
// dropped before the PUT.
func (g *BackendGateway) UpdateProfile(ctx context.Context, p models.Profile) error {
	_, err := g.client.Put(ctx, "/api/users/profile/", map[string]any{
		"university": p.University,
		"course":     p.Course,
		"specialty":  p.Specialty,
		"workplace":  p.Workplace,
		"about":      p.About,
		"telegram":   p.Telegram,
		"vk":         p.VK,
	})
	return err
}

func (g *BackendGateway) Refresh(ctx context.Context) bool {
	return g.client.Refresh(ctx)
}

// mapUserInfo maps the normalized user-info body to the local user shape.
// The role comes from an explicit role field when present, then from the
// CRM role string, then from the staff flag.
func mapUserInfo(body any) (models.User, error) {
	d, ok := body.(map[string]any)
	if !ok {
		return models.User{}, fmt.Errorf("unexpected user-info shape %T", body)
	}

	u := models.User{
		ID:    docInt(d, "id"),
		Email: docStr(d, "email"),
	}
	if u.ID == 0 {
		return models.User{}, errors.New("user-info has no id")
	}

	u.Name = firstNonEmpty(docStr(d, "name"), docStr(d, "title"), docStr(d, "firstName"))
	u.Surname = firstNonEmpty(docStr(d, "surname"), docStr(d, "lastName"))

	staff, _ := d["isStaff"].(bool)
	u.Role = models.ParseRole(docStr(d, "role"), docStr(d, "crmRole"), staff)
	return u, nil
}

func docStr(d map[string]any, key string) string {
	s, _ := d[key].(string)
	return s
}

func docInt(d map[string]any, key string) int64 {
	if f, ok := d[key].(float64); ok {
		return int64(f)
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ Gateway = (*BackendGateway)(nil)
