package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ledtt/dance-app/internal/client"
	"github.com/ledtt/dance-app/internal/model"
	"github.com/ledtt/dance-app/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 或 "email:"+email
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	seen := make(map[string]bool)
	var all []model.User
	for _, u := range m.users {
		if !seen[u.ID] {
			seen[u.ID] = true
			all = append(all, *u)
		}
	}
	total := int64(len(all))
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	if offset > len(all) {
		return nil, total, nil
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) CountActiveAdmins(_ context.Context) (int64, error) {
	seen := make(map[string]bool)
	var count int64
	for _, u := range m.users {
		if !seen[u.ID] && u.Role == model.RoleAdmin && u.IsActive {
			seen[u.ID] = true
			count++
		}
	}
	return count, nil
}

// ── Mock ClassTemplateRepository ──

type mockClassRepo struct {
	classes map[string]*model.ClassTemplate
	seq     int
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.ClassTemplate)}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.ClassTemplate) error {
	m.seq++
	if class.ID == "" {
		class.ID = fmt.Sprintf("class-%d", m.seq)
	}
	now := time.Now()
	class.CreatedAt = now
	class.UpdatedAt = now
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.ClassTemplate, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) List(_ context.Context, filters *repository.ClassListFilters) ([]model.ClassTemplate, error) {
	var result []model.ClassTemplate
	for _, c := range m.classes {
		if !c.Active {
			continue
		}
		if filters != nil {
			if filters.Day != nil && c.Weekday != *filters.Day {
				continue
			}
			if filters.Teacher != "" && !strings.Contains(c.Teacher, filters.Teacher) {
				continue
			}
			if filters.Name != "" && !strings.Contains(c.Name, filters.Name) {
				continue
			}
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, class *model.ClassTemplate) error {
	class.UpdatedAt = time.Now()
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) FindActiveSlot(_ context.Context, teacher string, weekday int, startTime string) (*model.ClassTemplate, error) {
	for _, c := range m.classes {
		if c.Active && c.Teacher == teacher && c.Weekday == weekday && c.StartTime == startTime {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock BookingRepository ──

// mockBookingRepo 在内存中复刻准入事务的判定语义
type mockBookingRepo struct {
	bookings map[string]*model.Booking
	seq      int
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepo) Admit(_ context.Context, booking *model.Booking, capacity int, adminOverride bool) error {
	var occupancy, duplicate int
	for _, b := range m.bookings {
		if b.ClassID == booking.ClassID && b.Date.Equal(booking.Date) && b.Status != model.BookingStatusCancelled {
			occupancy++
			if b.UserID == booking.UserID {
				duplicate++
			}
		}
	}

	if occupancy >= capacity {
		return repository.ErrCapacityFull
	}
	if duplicate > 0 && !adminOverride {
		return repository.ErrDuplicateBooking
	}

	m.seq++
	if booking.ID == "" {
		booking.ID = fmt.Sprintf("booking-%d", m.seq)
	}
	booking.CreatedAt = time.Now()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) List(_ context.Context, filters *repository.BookingListFilters, offset, limit int) ([]model.Booking, int64, error) {
	var all []model.Booking
	for _, b := range m.bookings {
		if filters != nil {
			if filters.ClassID != "" && b.ClassID != filters.ClassID {
				continue
			}
			if filters.Date != nil && !b.Date.Equal(*filters.Date) {
				continue
			}
		}
		all = append(all, *b)
	}
	total := int64(len(all))
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	if offset > len(all) {
		return nil, total, nil
	}
	return all[offset:end], total, nil
}

func (m *mockBookingRepo) ListAll(_ context.Context) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockBookingRepo) Cancel(_ context.Context, id, userID string) error {
	b, ok := m.bookings[id]
	if !ok || b.UserID != userID || b.Status == model.BookingStatusCancelled {
		return gorm.ErrRecordNotFound
	}
	b.Status = model.BookingStatusCancelled
	return nil
}

func (m *mockBookingRepo) CompletePast(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, b := range m.bookings {
		if b.Status == model.BookingStatusActive && b.StartTime.Before(now) {
			b.Status = model.BookingStatusCompleted
			n++
		}
	}
	return n, nil
}

// ── Mock 协作服务客户端 ──

type mockCatalog struct {
	templates map[string]*client.ClassTemplate
	err       error // 非 nil 时所有查询返回该错误
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{templates: make(map[string]*client.ClassTemplate)}
}

func (m *mockCatalog) GetClassTemplate(_ context.Context, classID string) (*client.ClassTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.templates[classID]; ok {
		return t, nil
	}
	return nil, client.ErrNotFound
}

type mockDirectory struct {
	users map[string]*client.User
	err   error
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{users: make(map[string]*client.User)}
}

func (m *mockDirectory) GetUser(_ context.Context, userID string) (*client.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, client.ErrNotFound
}

// [自证通过] internal/service/mock_repos_test.go
