// Package memory implements repository.Store in process memory. It backs
// DB_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/farellandr/eventreg/internal/models"
	"github.com/farellandr/eventreg/internal/repository"
	"github.com/google/uuid"
)

type data struct {
	events        map[uuid.UUID]models.Event
	registrations map[uuid.UUID]models.Registration
	users         map[uuid.UUID]models.User
	roles         map[uuid.UUID]models.Role
}

func newData() *data {
	return &data{
		events:        make(map[uuid.UUID]models.Event),
		registrations: make(map[uuid.UUID]models.Registration),
		users:         make(map[uuid.UUID]models.User),
		roles:         make(map[uuid.UUID]models.Role),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.registrations {
		c.registrations[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.roles {
		c.roles[k] = v
	}
	return c
}

// Store keeps records in maps guarded by one mutex. A transaction holds the
// mutex for its whole duration and works on a copy that replaces the live
// data on commit, so row locks are implied.
type Store struct {
	mu   *sync.Mutex
	data *data
	inTx bool
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: newData(), now: time.Now}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Events() repository.EventRepository {
	return &eventRepository{s}
}

func (s *Store) Registrations() repository.RegistrationRepository {
	return &registrationRepository{s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{s}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(&Store{mu: s.mu, data: working, inTx: true, now: s.now}); err != nil {
		return err
	}
	*s.data = *working
	return nil
}

type eventRepository struct {
	s *Store
}

func (r *eventRepository) takenBy(eventID string, exclude uuid.UUID) bool {
	for id, e := range r.s.data.events {
		if e.EventID == eventID && id != exclude {
			return true
		}
	}
	return false
}

func (r *eventRepository) Create(_ context.Context, event *models.Event) error {
	defer r.s.lock()()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if _, ok := r.s.data.events[event.ID]; ok || r.takenBy(event.EventID, uuid.Nil) {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = models.EventStatusUpcoming
	}
	r.s.data.events[event.ID] = *event
	return nil
}

func (r *eventRepository) Save(_ context.Context, event *models.Event) error {
	defer r.s.lock()()
	if _, ok := r.s.data.events[event.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.takenBy(event.EventID, event.ID) {
		return repository.ErrDuplicate
	}
	event.UpdatedAt = r.s.now()
	r.s.data.events[event.ID] = *event
	return nil
}

func (r *eventRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	defer r.s.lock()()
	e, ok := r.s.data.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *eventRepository) FindByEventID(_ context.Context, eventID string) (*models.Event, error) {
	defer r.s.lock()()
	for _, e := range r.s.data.events {
		if e.EventID == eventID {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *eventRepository) FindByEventIDForUpdate(ctx context.Context, eventID string) (*models.Event, error) {
	return r.FindByEventID(ctx, eventID)
}

func (r *eventRepository) ExistsEventID(_ context.Context, eventID string, exclude uuid.UUID) (bool, error) {
	defer r.s.lock()()
	return r.takenBy(eventID, exclude), nil
}

func (r *eventRepository) List(_ context.Context, offset, limit int) ([]models.Event, int64, error) {
	defer r.s.lock()()
	events := make([]models.Event, 0, len(r.s.data.events))
	for _, e := range r.s.data.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].StartTime.Before(events[j].StartTime)
		}
		return events[i].EventID < events[j].EventID
	})
	return page(events, offset, limit), int64(len(events)), nil
}

func (r *eventRepository) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	if _, ok := r.s.data.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.events, id)
	for rid, reg := range r.s.data.registrations {
		if reg.EventRef == id {
			delete(r.s.data.registrations, rid)
		}
	}
	return nil
}

type registrationRepository struct {
	s *Store
}

func (r *registrationRepository) withEvent(reg models.Registration) *models.Registration {
	if e, ok := r.s.data.events[reg.EventRef]; ok {
		reg.Event = e
	}
	return &reg
}

func (r *registrationRepository) Create(_ context.Context, registration *models.Registration) error {
	defer r.s.lock()()
	if _, ok := r.s.data.events[registration.EventRef]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range r.s.data.registrations {
		if existing.StudentID == registration.StudentID {
			return repository.ErrDuplicate
		}
	}
	if registration.ID == uuid.Nil {
		registration.ID = uuid.New()
	}
	if registration.RegisteredAt.IsZero() {
		registration.RegisteredAt = r.s.now()
	}
	stored := *registration
	stored.Event = models.Event{}
	r.s.data.registrations[registration.ID] = stored
	return nil
}

func (r *registrationRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	defer r.s.lock()()
	reg, ok := r.s.data.registrations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withEvent(reg), nil
}

func (r *registrationRepository) FindByStudentID(_ context.Context, studentID string) (*models.Registration, error) {
	defer r.s.lock()()
	for _, reg := range r.s.data.registrations {
		if reg.StudentID == studentID {
			return r.withEvent(reg), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *registrationRepository) ExistsStudentID(_ context.Context, studentID string) (bool, error) {
	defer r.s.lock()()
	for _, reg := range r.s.data.registrations {
		if reg.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *registrationRepository) ListByEvent(_ context.Context, eventRef uuid.UUID) ([]models.Registration, error) {
	defer r.s.lock()()
	var regs []models.Registration
	for _, reg := range r.s.data.registrations {
		if reg.EventRef == eventRef {
			regs = append(regs, reg)
		}
	}
	sortRegistrations(regs)
	return regs, nil
}

func (r *registrationRepository) List(_ context.Context, filter repository.RegistrationFilter, offset, limit int) ([]models.Registration, int64, error) {
	defer r.s.lock()()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var regs []models.Registration
	for _, reg := range r.s.data.registrations {
		if filter.EventRef != uuid.Nil && reg.EventRef != filter.EventRef {
			continue
		}
		if filter.Approved != nil && reg.Approved != *filter.Approved {
			continue
		}
		if search != "" && !matches(search, reg.StudentID, reg.FullName, reg.Email, reg.TransactionID) {
			continue
		}
		regs = append(regs, *r.withEvent(reg))
	}
	sortRegistrations(regs)
	return page(regs, offset, limit), int64(len(regs)), nil
}

func (r *registrationRepository) SetApproved(_ context.Context, id uuid.UUID, approved bool) error {
	defer r.s.lock()()
	reg, ok := r.s.data.registrations[id]
	if !ok {
		return repository.ErrNotFound
	}
	reg.Approved = approved
	r.s.data.registrations[id] = reg
	return nil
}

func (r *registrationRepository) DeleteByEvent(_ context.Context, eventRef uuid.UUID) error {
	defer r.s.lock()()
	for id, reg := range r.s.data.registrations {
		if reg.EventRef == eventRef {
			delete(r.s.data.registrations, id)
		}
	}
	return nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	stored.Role = models.Role{}
	r.s.data.users[user.ID] = stored
	return nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Email == email {
			u.Role = r.s.data.roles[u.RoleID]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) FindRole(_ context.Context, name string) (*models.Role, error) {
	defer r.s.lock()()
	for _, role := range r.s.data.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) CreateRole(_ context.Context, role *models.Role) error {
	defer r.s.lock()()
	for _, existing := range r.s.data.roles {
		if existing.Name == role.Name {
			return repository.ErrDuplicate
		}
	}
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	r.s.data.roles[role.ID] = *role
	return nil
}

func matches(search string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func sortRegistrations(regs []models.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].RegisteredAt.Equal(regs[j].RegisteredAt) {
			return regs[i].RegisteredAt.After(regs[j].RegisteredAt)
		}
		return regs[i].StudentID < regs[j].StudentID
	})
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
