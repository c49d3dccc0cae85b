package storage

import (
	"context"

	"github.com/pulso-app/pulso/internal/models"
)

// UserActionStore defines the contract for the user-action log and the
// users table it hangs off
type UserActionStore interface {
	InsertAction(ctx context.Context, userID, actionType, payload string) error
	UpsertUser(ctx context.Context, session models.Session) error
	Close() error
}
