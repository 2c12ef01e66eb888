// Package session holds the bearer credential for the remote consultation
// service. Issuing and refreshing the credential is owned by an external
// collaborator; this package only stores what that collaborator supplies.
package session

import (
	"context"
	"sync"

	"telemed-portal/internal/apperr"
)

// TokenSource yields the current bearer credential for outbound requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Store is a process-wide credential holder with an init/teardown lifecycle.
type Store struct {
	mu    sync.RWMutex
	token string
}

func NewStore() *Store {
	return &Store{}
}

// Set installs a fresh credential, replacing any previous one.
func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear tears the session down. Subsequent Token calls fail until Set.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", apperr.New(apperr.AccessDenied, "no active session")
	}
	return s.token, nil
}

// StaticToken adapts a fixed credential to TokenSource, for tests and
// single-shot tooling.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}
