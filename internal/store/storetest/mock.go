// Package storetest provides testify mocks of the store interfaces.
package storetest

import (
	"context"

	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/internal/store"
	"github.com/nulzo/analytics-api/internal/store/model"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of store.Repository
type MockRepository struct {
	mock.Mock
	UserRepo   *MockUserRepository
	PostRepo   *MockPostRepository
	ReportRepo *MockReportRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		UserRepo:   new(MockUserRepository),
		PostRepo:   new(MockPostRepository),
		ReportRepo: new(MockReportRepository),
	}
}

func (m *MockRepository) Users() store.UserRepository     { return m.UserRepo }
func (m *MockRepository) Posts() store.PostRepository     { return m.PostRepo }
func (m *MockRepository) Reports() store.ReportRepository { return m.ReportRepo }

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// AssertAll checks the repository and every sub-repository.
func (m *MockRepository) AssertAll(t mock.TestingT) bool {
	return mock.AssertExpectationsForObjects(t, &m.Mock, m.UserRepo, m.PostRepo, m.ReportRepo)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Signups(ctx context.Context, r series.Range) ([]series.DataPoint, error) {
	args := m.Called(ctx, r)
	return points(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Volume(ctx context.Context, r series.Range) ([]series.DataPoint, error) {
	args := m.Called(ctx, r)
	return points(args.Get(0)), args.Error(1)
}

func (m *MockPostRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) TopInteracted(ctx context.Context, r series.Range, limit int) ([]model.RankedPost, error) {
	args := m.Called(ctx, r, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RankedPost), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Volume(ctx context.Context, r series.Range) ([]series.DataPoint, error) {
	args := m.Called(ctx, r)
	return points(args.Get(0)), args.Error(1)
}

func (m *MockReportRepository) ReportedContent(ctx context.Context, r series.Range) ([]series.DataPoint, error) {
	args := m.Called(ctx, r)
	return points(args.Get(0)), args.Error(1)
}

func (m *MockReportRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func points(v interface{}) []series.DataPoint {
	if v == nil {
		return nil
	}
	return v.([]series.DataPoint)
}
