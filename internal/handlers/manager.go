package handlers

import (
	"github.com/mroshb/moodgram/internal/services"
)

// HandlerManager turns chat commands into service calls and replies
type HandlerManager struct {
	Users  *services.UserService
	Social *services.SocialService
}

func NewHandlerManager(users *services.UserService, social *services.SocialService) *HandlerManager {
	return &HandlerManager{
		Users:  users,
		Social: social,
	}
}
