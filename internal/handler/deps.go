package handler

import (
	"roomchat/internal/app/account"
	"roomchat/internal/app/chat"
	"roomchat/internal/configs"
)

// AppDeps bundles the services the HTTP layer needs.
type AppDeps struct {
	Manager  *chat.Manager
	Config   *configs.AppConfig
	Accounts *account.Service
}
