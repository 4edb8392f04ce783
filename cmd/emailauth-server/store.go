package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/MrEthical07/emailauth"
)

// memoryStore keeps accounts in process memory and "mails" reset passwords
// to out.
type memoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]emailauth.Account
	out     io.Writer
}

func newMemoryStore(out io.Writer) *memoryStore {
	return &memoryStore{
		byEmail: make(map[string]emailauth.Account),
		out:     out,
	}
}

func (s *memoryStore) hooks() emailauth.Hooks {
	return emailauth.Hooks{
		Lookup:        s.lookup,
		LookupByEmail: s.lookupByEmail,
		Save:          s.save,
	}
}

func (s *memoryStore) lookup(_ context.Context, req *emailauth.Request) (*emailauth.Account, error) {
	if req.Session == nil {
		return nil, nil
	}
	return s.find(req.Session.Email), nil
}

func (s *memoryStore) lookupByEmail(_ context.Context, _ *emailauth.Request, email string) (*emailauth.Account, error) {
	return s.find(email), nil
}

func (s *memoryStore) find(email string) *emailauth.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byEmail[email]
	if !ok {
		return nil
	}
	return &a
}

// save inserts new accounts and replaces reset ones. A reset carries the
// generated plaintext, which is delivered and then dropped.
func (s *memoryStore) save(_ context.Context, _ *emailauth.Request, account emailauth.Account) (*emailauth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.byEmail[account.Email]
	if account.Password == "" && exists {
		return nil, emailauth.ErrAccountExists
	}

	if account.Password != "" {
		fmt.Fprintf(s.out, "to: %s\nsubject: your new password\n\n%s\n\n", account.Email, account.Password)
	}

	stored := account
	stored.Password = ""
	s.byEmail[account.Email] = stored

	return &stored, nil
}

func (s *memoryStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
