package user_test

import (
	"testing"

	"secrets/internal/app/user"
	"secrets/internal/app/user/usertest"
)

func TestMemoryStore(t *testing.T) {
	usertest.Run(t, func(t *testing.T) user.Store {
		return user.NewMemoryStore()
	})
}
