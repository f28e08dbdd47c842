package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/cognivia/internal/models"
)

// MockStreakRepository is a mock implementation of repository.StreakRepository
type MockStreakRepository struct {
	mock.Mock
}

func (m *MockStreakRepository) Get(ctx context.Context, userID string) (*models.StudyStreak, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudyStreak), args.Error(1)
}

func (m *MockStreakRepository) Save(ctx context.Context, streak models.StudyStreak) error {
	args := m.Called(ctx, streak)
	return args.Error(0)
}

// MockAnalyticsRepository is a mock implementation of repository.AnalyticsRepository
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) Get(ctx context.Context, userID string) (*models.StudyAnalytics, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudyAnalytics), args.Error(1)
}

func (m *MockAnalyticsRepository) Save(ctx context.Context, analytics models.StudyAnalytics) error {
	args := m.Called(ctx, analytics)
	return args.Error(0)
}
