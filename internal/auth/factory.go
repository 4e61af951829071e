package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	ctrl "github.com/courierhq/courier/internal/auth/controller"
	authmw "github.com/courierhq/courier/internal/auth/middleware"
	repo "github.com/courierhq/courier/internal/auth/repository"
	svc "github.com/courierhq/courier/internal/auth/service"
	"github.com/courierhq/courier/internal/config"
	evdomain "github.com/courierhq/courier/internal/events/domain"
	"github.com/courierhq/courier/internal/logger"
)

type Registrar struct {
	ctrl    *ctrl.Controller
	session echo.MiddlewareFunc
}

func NewRegistrar(pg *pgxpool.Pool, cfg config.Config, pub evdomain.Publisher) *Registrar {
	log := logger.Component(logger.New(cfg.AppEnv), "auth")

	r := repo.New(pg)
	authSvc := svc.New(r, cfg)
	authSvc.SetLogger(log)
	authSvc.SetPublisher(pub)

	authCtrl := ctrl.New(authSvc)
	authCtrl.SetLogger(log)

	return &Registrar{
		ctrl:    authCtrl,
		session: authmw.NewSession(authSvc),
	}
}

// Session returns the token-validating middleware for protected routes.
func (r *Registrar) Session() echo.MiddlewareFunc { return r.session }

func (r *Registrar) RegisterV1(g *echo.Group) {
	r.ctrl.Register(g)
}
