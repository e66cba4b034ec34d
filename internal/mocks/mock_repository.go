// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of repository.Repository.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

// ReadFile mocks repository.Repository.ReadFile.
func (m *MockRepository) ReadFile(ctx context.Context, coord repository.Coordinate, path string) (*repository.File, error) {
	args := m.Called(ctx, coord, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.File), args.Error(1)
}

// WriteFile mocks repository.Repository.WriteFile.
func (m *MockRepository) WriteFile(ctx context.Context, coord repository.Coordinate, path string, content []byte, expectedSHA, message string) (string, error) {
	args := m.Called(ctx, coord, path, content, expectedSHA, message)
	return args.String(0), args.Error(1)
}

// ListDirectory mocks repository.Repository.ListDirectory.
func (m *MockRepository) ListDirectory(ctx context.Context, coord repository.Coordinate, path string) ([]repository.Entry, error) {
	args := m.Called(ctx, coord, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Entry), args.Error(1)
}

// RecursiveTree mocks repository.Repository.RecursiveTree.
func (m *MockRepository) RecursiveTree(ctx context.Context, coord repository.Coordinate) ([]repository.Entry, error) {
	args := m.Called(ctx, coord)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Entry), args.Error(1)
}

// Ping mocks repository.Repository.Ping.
func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
