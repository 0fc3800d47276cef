package v1

import (
	"paygate/api/internal/config"
	"paygate/api/internal/infra/nats"
	"paygate/api/internal/logger"
	"paygate/api/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	services  *service.Services
	db        *gorm.DB
	config    *config.Config
	Natsinfra *nats.NatsInfra
	log       logger.Logger
}

func (h *Handler) InitRoutes(g *gin.RouterGroup) {
	{
		h.initPubInvoiceRoutes(g)
		h.initPrivInvoiceRoutes(g)
		h.initPayjoinRoutes(g)
		h.initCurrencyRoutes(g)

		h.initMerchantRoutes(g)
	}
}

func NewHandler(services *service.Services, db *gorm.DB, config *config.Config, natsinfra *nats.NatsInfra, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		Natsinfra: natsinfra,
		log:       log,
		services:  services,
		db:        db,
	}
}
