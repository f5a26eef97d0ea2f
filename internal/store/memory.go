// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"opportune-notifier/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps all records in-process. It backs deployments without a
// configured database and the engine's tests. Owned by the composition root,
// never a package-level map.
type MemoryStore struct {
	mu           sync.RWMutex
	applications map[string]*models.Application
	users        map[string]*models.User
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		applications: make(map[string]*models.Application),
		users:        make(map[string]*models.User),
	}
}

// Ping always succeeds; the in-process store cannot be unavailable.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) CreateApplication(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now

	stored := *app
	m.applications[app.ID] = &stored
	return nil
}

func (m *MemoryStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (m *MemoryStore) FindApplications(ctx context.Context, q ApplicationQuery) ([]models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Application
	for _, app := range m.applications {
		if matchesQuery(app, q) {
			result = append(result, *app)
		}
	}

	if q.OrderByFollowup {
		sort.Slice(result, func(i, j int) bool {
			a, b := result[i].FollowupDate, result[j].FollowupDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	}

	return result, nil
}

func (m *MemoryStore) UpdateApplication(ctx context.Context, id string, upd ApplicationUpdate) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.applications[id]
	if !ok {
		return nil, ErrNotFound
	}

	if upd.Company != nil {
		app.Company = *upd.Company
	}
	if upd.Position != nil {
		app.Position = *upd.Position
	}
	if upd.Status != nil {
		app.Status = *upd.Status
	}
	if upd.ApplicationDate != nil {
		app.ApplicationDate = *upd.ApplicationDate
	}
	if upd.Location != nil {
		app.Location = *upd.Location
	}
	if upd.Salary != nil {
		app.Salary = *upd.Salary
	}
	if upd.JobURL != nil {
		app.JobURL = *upd.JobURL
	}
	if upd.ContactPerson != nil {
		app.ContactPerson = *upd.ContactPerson
	}
	if upd.ContactEmail != nil {
		app.ContactEmail = *upd.ContactEmail
	}
	if upd.Notes != nil {
		app.Notes = *upd.Notes
	}

	if upd.ClearFollowupDate {
		app.FollowupDate = nil
	} else if upd.FollowupDate != nil {
		t := *upd.FollowupDate
		app.FollowupDate = &t
	}
	if upd.ClearCustomReminderDate {
		app.CustomReminderDate = nil
	} else if upd.CustomReminderDate != nil {
		t := *upd.CustomReminderDate
		app.CustomReminderDate = &t
	}

	// A changed trigger date invalidates the previous reminder.
	if upd.TouchesReminderTrigger() {
		app.ReminderSent = false
		app.LastReminderSent = nil
	}

	app.UpdatedAt = time.Now().UTC()

	copied := *app
	return &copied, nil
}

func (m *MemoryStore) DeleteApplication(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.applications[id]; !ok {
		return ErrNotFound
	}
	delete(m.applications, id)
	return nil
}

func (m *MemoryStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.applications[id]
	if !ok {
		return ErrNotFound
	}
	app.ReminderSent = true
	t := at
	app.LastReminderSent = &t
	app.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) RecordManualReminder(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.applications[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	app.LastReminderSent = &t
	app.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MemoryStore) UpsertUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	copied := *user
	m.users[user.Email] = &copied
	return nil
}

func (m *MemoryStore) FindDigestUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.User
	for _, user := range m.users {
		if user.Settings.DailyDigest && user.Settings.EmailEnabled {
			result = append(result, *user)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}
