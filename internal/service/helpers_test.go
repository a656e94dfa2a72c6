package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenStub struct {
	err error
}

func (s tokenStub) IssueToken(user *models.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("token-%d", user.ID), nil
}

// failingDonationsRepo wraps a real user repository but refuses to update
// donation totals.
type failingDonationsRepo struct {
	repository.UserRepository
}

func (failingDonationsRepo) IncrementDonations(context.Context, uint, float64) error {
	return errors.New("counter unavailable")
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, "message: %s", appErr.Message)
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	names := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func ptr[T any](v T) *T {
	return &v
}
