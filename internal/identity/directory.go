package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// User is the directory's view of an account: just enough to attribute
// playlists and collaborations. Everything else about users lives in the
// user service.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

var ErrUserNotFound = errors.New("user not found")

// Directory resolves opaque caller identities and invitee emails to user
// records. Implemented by HTTPDirectory in production and by fakes in tests.
type Directory interface {
	Resolve(ctx context.Context, userID string) (User, error)
	LookupEmail(ctx context.Context, email string) (User, error)
}

// HTTPDirectory talks to the user service's internal endpoints.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *HTTPDirectory) Resolve(ctx context.Context, userID string) (User, error) {
	if userID == "" {
		return User{}, ErrUserNotFound
	}
	return d.fetch(ctx, "/internal/users/"+url.PathEscape(userID))
}

func (d *HTTPDirectory) LookupEmail(ctx context.Context, email string) (User, error) {
	if email == "" {
		return User{}, ErrUserNotFound
	}
	return d.fetch(ctx, "/internal/users/by-email/"+url.PathEscape(email))
}

func (d *HTTPDirectory) fetch(ctx context.Context, path string) (User, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return User{}, err
	}
	u.Path = path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return User{}, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return User{}, err
		}
		if user.ID == "" {
			return User{}, fmt.Errorf("user-service returned an empty user id")
		}
		return user, nil
	case http.StatusNotFound:
		return User{}, ErrUserNotFound
	default:
		return User{}, fmt.Errorf("user-service returned %d", resp.StatusCode)
	}
}
