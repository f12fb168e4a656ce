package users

import (
	"time"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// View is the transport shape of an operator account, credentials omitted.
type View struct {
	ID          uint             `json:"id"`
	Login       string           `json:"login"`
	DisplayName string           `json:"display_name"`
	AccessTier  enums.AccessTier `json:"access_tier"`
	IsActive    bool             `json:"is_active"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func ToView(user *models.User) View {
	return View{
		ID:          user.ID,
		Login:       user.Login,
		DisplayName: user.DisplayName,
		AccessTier:  user.AccessTier,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

func ToViews(users []models.User) []View {
	views := make([]View, 0, len(users))
	for i := range users {
		views = append(views, ToView(&users[i]))
	}
	return views
}
