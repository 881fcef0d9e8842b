// Package client is a Go session store for the auth API. It mirrors what a
// browser front end tracks: the current user, whether a request is in
// flight and the last message or error reported by the server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	fiberclient "github.com/gofiber/fiber/v3/client"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

const DefaultBaseURL = "http://localhost:8080/api/auth"

const unexpectedError = "An unexpected error occurred"

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.Status, e.Message)
}

// State is a snapshot of the store.
type State struct {
	User            *core.User
	IsAuthenticated bool
	Error           string
	IsLoading       bool
	IsCheckingAuth  bool
	Message         string
}

type Store struct {
	baseURL string
	http    *fiberclient.Client

	mu    sync.RWMutex
	state State
}

// New returns a store talking to baseURL (".../api/auth"). The underlying
// client keeps cookies, so the session set by signup or login is sent on
// later calls.
func New(baseURL string) *Store {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := fiberclient.New().SetCookieJar(fiberclient.AcquireCookieJar())
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    c,
		state:   State{IsCheckingAuth: true},
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.User = s.state.User.Clone()
	return st
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *Store) startLoading() {
	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})
}

// fail records err as the store error, preferring the server's message.
func (s *Store) fail(err error, fallback string) error {
	msg := unexpectedError
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = fallback
		if apiErr.Message != "" {
			msg = apiErr.Message
		}
	}
	s.update(func(st *State) {
		st.Error = msg
		st.IsLoading = false
	})
	return err
}

func (s *Store) Signup(ctx context.Context, email, password, name string) error {
	s.startLoading()
	var out core.MessageResponse
	if err := s.post(ctx, "/signup", map[string]string{"email": email, "password": password, "name": name}, &out); err != nil {
		return s.fail(err, "Error signing up")
	}
	s.update(func(st *State) {
		st.User = out.User
		st.IsAuthenticated = true
		st.IsLoading = false
	})
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	s.startLoading()
	var out core.MessageResponse
	if err := s.post(ctx, "/login", map[string]string{"email": email, "password": password}, &out); err != nil {
		return s.fail(err, "Error logging in")
	}
	s.update(func(st *State) {
		st.User = out.User
		st.IsAuthenticated = true
		st.Error = ""
		st.IsLoading = false
	})
	return nil
}

func (s *Store) Logout(ctx context.Context) error {
	s.startLoading()
	if err := s.post(ctx, "/logout", nil, nil); err != nil {
		s.update(func(st *State) {
			st.Error = "Error logging out"
			st.IsLoading = false
		})
		return err
	}
	s.update(func(st *State) {
		st.User = nil
		st.IsAuthenticated = false
		st.Error = ""
		st.IsLoading = false
	})
	return nil
}

func (s *Store) VerifyEmail(ctx context.Context, code, email string) (*core.User, error) {
	s.startLoading()
	var out core.MessageResponse
	if err := s.post(ctx, "/verify-email", map[string]string{"verificationToken": code, "email": email}, &out); err != nil {
		return nil, s.fail(err, "Error verifying email")
	}
	s.update(func(st *State) {
		st.User = out.User
		st.IsAuthenticated = true
		st.IsLoading = false
	})
	return out.User.Clone(), nil
}

func (s *Store) ResendVerification(ctx context.Context, email string) error {
	s.startLoading()
	var out core.MessageResponse
	if err := s.post(ctx, "/send-new-verfication", map[string]string{"email": email}, &out); err != nil {
		return s.fail(err, "Error sending verification email")
	}
	s.update(func(st *State) {
		st.Message = out.Message
		st.IsLoading = false
	})
	return nil
}

// CheckAuth refreshes the session state. Failures only show up in State.
func (s *Store) CheckAuth(ctx context.Context) {
	s.update(func(st *State) {
		st.IsCheckingAuth = true
		st.Error = ""
	})

	var out core.MessageResponse
	err := s.do(ctx, "GET", "/check-auth", nil, &out)
	s.update(func(st *State) {
		st.IsCheckingAuth = false
		if err == nil {
			st.User = out.User
			st.IsAuthenticated = true
			return
		}
		st.Error = unexpectedError
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			st.Error = "Error checking authentication"
			if apiErr.Message != "" {
				st.Error = apiErr.Message
			}
		}
	})
}

func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	s.startLoading()
	var out core.MessageResponse
	if err := s.post(ctx, "/forgot-password", map[string]string{"email": email}, &out); err != nil {
		return s.fail(err, "Error sending reset password email")
	}
	s.update(func(st *State) {
		st.Message = out.Message
		st.IsLoading = false
	})
	return nil
}

func (s *Store) ResetPassword(ctx context.Context, token, password string) error {
	s.startLoading()
	var out core.MessageResponse
	if err := s.post(ctx, "/reset-password/"+token, map[string]string{"password": password}, &out); err != nil {
		return s.fail(err, "Error resetting password")
	}
	s.update(func(st *State) {
		st.Message = out.Message
		st.IsLoading = false
	})
	return nil
}

func (s *Store) post(ctx context.Context, path string, body, out any) error {
	return s.do(ctx, "POST", path, body, out)
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	cfg := fiberclient.Config{Ctx: ctx}
	if body != nil {
		cfg.Body = body
	}

	url := s.baseURL + path
	var (
		resp *fiberclient.Response
		err  error
	)
	if method == "GET" {
		resp, err = s.http.Get(url, cfg)
	} else {
		resp, err = s.http.Post(url, cfg)
	}
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Close()

	raw := resp.Body()
	if status := resp.StatusCode(); status < 200 || status > 299 {
		var errBody core.ErrorResponse
		_ = json.Unmarshal(raw, &errBody)
		return &APIError{Status: status, Message: errBody.Message}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
