package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"groundstation/internal/models"
)

// Errors surfaced synchronously to API callers. They never touch the mode
// controller or fail streak.
var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrAdminRequired      = errors.New("Admin required")
)

// ValidationError reports malformed admin input with a user-facing message
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// CredentialStore reads and replaces the fallback list of user records.
// The storage mechanism behind it is deliberately swappable.
type CredentialStore interface {
	Load() ([]models.User, error)
	Save([]models.User) error
}

// JSONFileStore persists users as a JSON array, the same document the
// ground station has always kept next to its binary
type JSONFileStore struct {
	path string
}

// NewJSONFileStore builds a store over the given file path
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Load reads the user list; a missing or invalid file yields an empty list
func (s *JSONFileStore) Load() ([]models.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	return users, nil
}

// Save writes the full user list atomically enough for a single writer
func (s *JSONFileStore) Save(users []models.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	return nil
}

// MemoryStore is an in-process CredentialStore for tests and ephemeral runs
type MemoryStore struct {
	mu    sync.Mutex
	users []models.User
}

// NewMemoryStore builds a store pre-seeded with the given users
func NewMemoryStore(users []models.User) *MemoryStore {
	return &MemoryStore{users: users}
}

// Load returns a copy of the stored list
func (s *MemoryStore) Load() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// Save replaces the stored list
func (s *MemoryStore) Save(users []models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make([]models.User, len(users))
	copy(s.users, users)
	return nil
}

// defaultUsers seeds the store when it is missing or empty. The system
// admin carries the SYSTEM marker, which also protects it from deletion.
func defaultUsers() []models.User {
	return []models.User{
		{ID: "admin", Password: "changeme123", Role: "admin", Created: "SYSTEM"},
		{ID: "guest", Password: "guest123", Role: "guest", Created: time.Now().UTC().Format("2006-01-02")},
	}
}

// UserService manages the credential list: authentication plus admin
// create/delete with input validation
type UserService struct {
	mu    sync.RWMutex
	store CredentialStore
	users []models.User
}

// NewUserService loads the store, seeding defaults when it is empty
func NewUserService(store CredentialStore) (*UserService, error) {
	users, err := store.Load()
	if err != nil {
		log.Printf("[AUTH] users store unreadable, reseeding defaults: %v", err)
		users = nil
	}
	if len(users) == 0 {
		users = defaultUsers()
		if err := store.Save(users); err != nil {
			return nil, fmt.Errorf("failed to seed users store: %w", err)
		}
		log.Printf("[AUTH] seeded default users")
	}
	return &UserService{store: store, users: users}, nil
}

// find looks a user up by case-insensitive id
func (s *UserService) find(id string) (models.User, bool) {
	for _, u := range s.users {
		if strings.EqualFold(u.ID, id) {
			return u, true
		}
	}
	return models.User{}, false
}

// Authenticate checks an id/password pair
func (s *UserService) Authenticate(id, password string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.find(strings.TrimSpace(id))
	if !ok || user.Password != password {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// List returns the public view of every user
func (s *UserService) List() []models.PublicUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	public := make([]models.PublicUser, 0, len(s.users))
	for _, u := range s.users {
		public = append(public, u.Public())
	}
	return public
}

// requireAdmin authenticates the acting user and checks the admin role.
// Callers must hold the write lock.
func (s *UserService) requireAdmin(adminID, adminPw string) error {
	admin, ok := s.find(strings.TrimSpace(adminID))
	if !ok || admin.Password != adminPw || !admin.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// Create adds a user after validating admin credentials and input
func (s *UserService) Create(adminID, adminPw, id, password, role string) (models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(adminID, adminPw); err != nil {
		return models.PublicUser{}, err
	}

	id = strings.TrimSpace(id)
	role = strings.TrimSpace(role)
	if role == "" {
		role = "guest"
	}

	if len(id) < 3 {
		return models.PublicUser{}, &ValidationError{Message: "Username required (≥3 chars)"}
	}
	if len(password) < 6 {
		return models.PublicUser{}, &ValidationError{Message: "Password must be ≥6 characters"}
	}
	if _, exists := s.find(id); exists {
		return models.PublicUser{}, &ValidationError{Message: "Username already exists"}
	}

	user := models.User{
		ID:       id,
		Password: password,
		Role:     role,
		Created:  time.Now().UTC().Format("2006-01-02"),
	}
	users := append(append([]models.User{}, s.users...), user)

	if err := s.store.Save(users); err != nil {
		return models.PublicUser{}, err
	}
	s.users = users
	log.Printf("[AUTH] user %q created (role: %s)", user.ID, user.Role)
	return user.Public(), nil
}

// Delete removes a user after validating admin credentials. The seeded
// system admin is protected, and admins cannot remove themselves.
func (s *UserService) Delete(adminID, adminPw, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAdmin(adminID, adminPw); err != nil {
		return err
	}

	id = strings.TrimSpace(id)
	target, ok := s.find(id)
	if !ok {
		return &ValidationError{Message: "User not found"}
	}
	if target.Created == "SYSTEM" {
		return &ValidationError{Message: "Protected user"}
	}
	if strings.EqualFold(id, strings.TrimSpace(adminID)) {
		return &ValidationError{Message: "Cannot remove your own account"}
	}

	users := make([]models.User, 0, len(s.users)-1)
	for _, u := range s.users {
		if !strings.EqualFold(u.ID, id) {
			users = append(users, u)
		}
	}

	if err := s.store.Save(users); err != nil {
		return err
	}
	s.users = users
	log.Printf("[AUTH] user %q deleted", id)
	return nil
}
