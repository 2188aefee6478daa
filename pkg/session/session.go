// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session manages review sessions.
//
// A session binds one set of requirements to one review engine and its
// iteration history. Each session has a unique identifier, an owner,
// and timestamps tracking its lifecycle.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/quorum/pkg/review"
)

// ErrSessionNotFound is returned when a session doesn't exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is one review session: requirements, the engine holding the
// iteration history, and lifecycle metadata.
type Session struct {
	id             string
	userID         string
	title          string
	requirements   string
	engine         *review.Engine
	createdAt      time.Time
	lastUpdateTime time.Time
	mu             sync.RWMutex
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the owning user identifier.
func (s *Session) UserID() string { return s.userID }

// Title returns the session title.
func (s *Session) Title() string { return s.title }

// Requirements returns the problem statement the session reviews.
func (s *Session) Requirements() string { return s.requirements }

// Engine returns the session's review engine.
func (s *Session) Engine() *review.Engine { return s.engine }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastUpdateTime returns when the session was last modified.
func (s *Session) LastUpdateTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdateTime
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdateTime = time.Now()
}

// Service manages session lifecycle.
type Service interface {
	// Get retrieves an existing session by ID.
	Get(ctx context.Context, id string) (*Session, error)

	// Create creates a new session around the given engine.
	Create(ctx context.Context, req *CreateRequest) (*Session, error)

	// List returns sessions, optionally filtered by user, most
	// recently updated first.
	List(ctx context.Context, userID string) ([]*Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}

// CreateRequest contains parameters for creating a session.
type CreateRequest struct {
	UserID       string
	Title        string
	Requirements string
	Engine       *review.Engine

	// SessionID is optional; generated when empty.
	SessionID string
}

// InMemoryService returns an in-memory session service.
func InMemoryService() Service {
	return &inMemoryService{
		sessions: make(map[string]*Session),
	}
}

type inMemoryService struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func (s *inMemoryService) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *inMemoryService) Create(ctx context.Context, req *CreateRequest) (*Session, error) {
	if req.Engine == nil {
		return nil, errors.New("session: engine is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	session := &Session{
		id:             id,
		userID:         req.UserID,
		title:          req.Title,
		requirements:   req.Requirements,
		engine:         req.Engine,
		createdAt:      now,
		lastUpdateTime: now,
	}
	s.sessions[id] = session
	return session, nil
}

func (s *inMemoryService) List(ctx context.Context, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*Session
	for _, session := range s.sessions {
		if userID == "" || session.userID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastUpdateTime().After(sessions[j].LastUpdateTime())
	})
	return sessions, nil
}

func (s *inMemoryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

var _ Service = (*inMemoryService)(nil)
