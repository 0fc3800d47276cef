package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"paygate/api/internal/config"
	"paygate/api/internal/delivery"
	"paygate/api/internal/infra/nats"
	"paygate/api/internal/logger"
	"paygate/api/internal/service"
	"syscall"

	"github.com/gin-gonic/gin"
	cors "github.com/rs/cors/wrapper/gin"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Db        *gorm.DB
	NatsInfra *nats.NatsInfra
	Log       logger.Logger
}

func (app *App) Start() {

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(cors.Default())

	services := service.NewServices(app.NatsInfra.Ns, app.Db, app.Log, app.Config)

	app.Autostart(services)

	{
		h := delivery.InitHandler(services, app.Db, app.Config, app.NatsInfra, app.Log)

		h.InitAPI(r)
	}

	eChan := make(chan error)
	interrupt := make(chan os.Signal, 1)

	fmt.Println("pay web is starting")

	go func() {
		err := r.Run(app.Config.Api.Ipv4)
		if err != nil {
			eChan <- fmt.Errorf("listen and serve: %w", err)
		}
	}()

	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-eChan:
		app.Log.TemplHTTPError("app fatal error", app.Config.Api.Ipv4, err)
		return
	case <-interrupt:
		return
	}

}

// start autostart services
func (app *App) Autostart(services *service.Services) {

	fmt.Println("Autostart: start payments consumer")
	if err := services.PaymentsConsumer.Start(context.Background()); err != nil {
		app.Log.TemplHTTPError("payments consumer start error", app.Config.Api.Ipv4, err)
		return
	}

	fmt.Println("Autostart: start invoice ticker")
	services.Invoices.StartTicker()

	fmt.Println("Autostart: start process events")
	services.OutboxEvents.StartProcessEvents()

}
