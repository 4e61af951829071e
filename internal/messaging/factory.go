package messaging

import (
	"github.com/labstack/echo/v4"

	"github.com/courierhq/courier/internal/config"
	evdomain "github.com/courierhq/courier/internal/events/domain"
	"github.com/courierhq/courier/internal/logger"
	ctrl "github.com/courierhq/courier/internal/messaging/controller"
	svc "github.com/courierhq/courier/internal/messaging/service"
)

type Registrar struct {
	ctrl *ctrl.Controller
}

func NewRegistrar(cfg config.Config, pub evdomain.Publisher) *Registrar {
	log := logger.New(cfg.AppEnv)

	router := svc.NewRouter(cfg, log)
	sms := svc.NewTwilio(cfg, logger.Component(log, "dispatch"))

	msgCtrl := ctrl.New(router, sms, pub)
	msgCtrl.SetLogger(logger.Component(log, "messaging"))

	return &Registrar{ctrl: msgCtrl}
}

func (r *Registrar) RegisterV1(g *echo.Group, session echo.MiddlewareFunc) {
	r.ctrl.Register(g, session)
}
