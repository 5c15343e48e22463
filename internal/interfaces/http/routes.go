package http

import (
	"net/http"

	"github.com/turtacn/backupgw/internal/interfaces/http/handlers"
	"github.com/turtacn/backupgw/internal/interfaces/http/router"
	"github.com/turtacn/backupgw/pkg/constants"
)

// Handler keys of the gateway's route table.
const (
	KeyAuthLogin             router.HandlerKey = "auth.login"
	KeyAuthLogout            router.HandlerKey = "auth.logout"
	KeyAuthMe                router.HandlerKey = "auth.me"
	KeyCredentialsPassphrase router.HandlerKey = "credentials.passphrase"
	KeyCredentialsKeyPair    router.HandlerKey = "credentials.keypair"
	KeyCredentialsDecrypt    router.HandlerKey = "credentials.decrypt"
	KeyServersGet            router.HandlerKey = "servers.get"
)

// Routes returns the gateway's route table in match order.
func Routes() []router.Route {
	return []router.Route{
		{Method: http.MethodPost, Pattern: "/auth/login", Key: KeyAuthLogin},
		{Method: http.MethodPost, Pattern: "/auth/logout", Key: KeyAuthLogout, RequiresAuth: true},
		{Method: http.MethodGet, Pattern: "/auth/me", Key: KeyAuthMe, RequiresAuth: true},
		{Method: http.MethodPost, Pattern: "/credentials/passphrase", Key: KeyCredentialsPassphrase,
			RequiresAuth: true, RequiredRoles: []string{constants.RoleAdmin}},
		{Method: http.MethodPost, Pattern: "/credentials/keypair", Key: KeyCredentialsKeyPair,
			RequiresAuth: true, RequiredRoles: []string{constants.RoleAdmin, constants.RoleUser}},
		{Method: http.MethodPost, Pattern: "/credentials/decrypt", Key: KeyCredentialsDecrypt,
			RequiresAuth: true, RequiredRoles: []string{constants.RoleAdmin}},
		{Method: http.MethodGet, Pattern: "/servers/:id", Key: KeyServersGet,
			RequiresAuth: true, RequiredRoles: []string{constants.RoleUser}},
	}
}

// APIHandlers groups the handlers bound into the dispatcher.
type APIHandlers struct {
	Auth        *handlers.AuthHandler
	Credentials *handlers.CredentialHandler
	Servers     *handlers.ServerHandler
}

// RegisterRoutes registers the route table, binds every handler and validates
// the result. The dispatcher is sealed afterwards.
func RegisterRoutes(d *router.Dispatcher, h APIHandlers) error {
	for _, r := range Routes() {
		if err := d.Register(r); err != nil {
			return err
		}
	}

	bindings := map[router.HandlerKey]router.HandlerFunc{
		KeyAuthLogin:             h.Auth.Login,
		KeyAuthLogout:            h.Auth.Logout,
		KeyAuthMe:                h.Auth.Me,
		KeyCredentialsPassphrase: h.Credentials.Passphrase,
		KeyCredentialsKeyPair:    h.Credentials.KeyPair,
		KeyCredentialsDecrypt:    h.Credentials.Decrypt,
		KeyServersGet:            h.Servers.Get,
	}
	for key, fn := range bindings {
		if err := d.Handle(key, fn); err != nil {
			return err
		}
	}

	return d.Validate()
}
