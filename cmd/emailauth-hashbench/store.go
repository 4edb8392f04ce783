package main

import (
	"context"
	"sync"

	"github.com/MrEthical07/emailauth"
)

type benchStore struct {
	mu       sync.RWMutex
	accounts map[string]emailauth.Account
}

func newBenchStore() *benchStore {
	return &benchStore{accounts: make(map[string]emailauth.Account)}
}

func (s *benchStore) hooks() emailauth.Hooks {
	return emailauth.Hooks{
		LookupByEmail: func(_ context.Context, _ *emailauth.Request, email string) (*emailauth.Account, error) {
			return s.find(email), nil
		},
		Save: func(_ context.Context, _ *emailauth.Request, a emailauth.Account) (*emailauth.Account, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			a.Password = ""
			s.accounts[a.Email] = a
			return &a, nil
		},
	}
}

func (s *benchStore) find(email string) *emailauth.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil
	}
	return &a
}
