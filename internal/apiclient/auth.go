package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"workorders/internal/core"
)

type AuthService struct{ c *Client }

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Registration struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Role     core.Role `json:"role,omitempty"`
}

// Login exchanges credentials for a bearer token. The token endpoint takes
// a form-encoded body, unlike the rest of the API.
func (s AuthService) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := s.c.newRequest(ctx, http.MethodPost, "/auth/token", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok Token
	if err := s.c.send(req, &tok); err != nil {
		return Token{}, err
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("login: empty access token")
	}
	return tok, nil
}

func (s AuthService) Register(ctx context.Context, r Registration) (core.User, error) {
	var u core.User
	err := s.c.post(ctx, "/auth/register", r, &u)
	return u, err
}

// Me returns the user the token belongs to.
func (s AuthService) Me(ctx context.Context) (core.User, error) {
	var u core.User
	err := s.c.get(ctx, "/auth/me", nil, &u)
	return u, err
}
