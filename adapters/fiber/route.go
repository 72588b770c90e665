package fiber

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/abaccess"
	"github.com/lborres/abaccess/services"
)

type Adapter struct {
	app     *fiber.App
	access  *abaccess.AbAccess
	cookies *cookieCodec
}

var _ abaccess.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

// RegisterRoutes mounts every registered endpoint under the base path,
// binding each one to its handler by operation ID.
func (a *Adapter) RegisterRoutes(access *abaccess.AbAccess) error {
	a.access = access
	a.cookies = newCookieCodec(access.Secret, access.Clock)

	handlers := map[string]fiber.Handler{
		services.OpAccountExists: a.accountExists,
		services.OpSignIn:        a.signIn,
		services.OpRegister:      a.register,
		services.OpSignOut:       a.signOut,
		services.OpGetSession:    a.session,
		services.OpSetCookie:     a.setCookie,
		services.OpClearCookie:   a.clearCookie,
		services.OpRouteDecision: a.routeDecision,
	}

	api := a.app.Group(access.BasePath)

	for _, ep := range access.Endpoints.Endpoints() {
		h, ok := handlers[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no handler for %s %s (%s)", ep.Method, ep.Path, ep.Metadata.OperationID)
		}
		if ep.Protected {
			h = a.protect(h)
		}

		switch ep.Method {
		case fiber.MethodGet:
			api.Get(ep.Path, h)
		case fiber.MethodPost:
			api.Post(ep.Path, h)
		case fiber.MethodDelete:
			api.Delete(ep.Path, h)
		case fiber.MethodPut:
			api.Put(ep.Path, h)
		default:
			return fmt.Errorf("unsupported method %s for %s", ep.Method, ep.Path)
		}
	}

	return nil
}
