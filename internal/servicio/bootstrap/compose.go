package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	inamqp "github.com/appgruard/Grua-RD-sub000/internal/servicio/adapter/in/in_amqp"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/adapter/in/in_ws"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/adapter/in/transport"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/adapter/out/out_amqp"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/adapter/out/out_ws"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/adapter/out/payments"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/adapter/out/repo"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/usecase"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/auth"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/config"
	db_conn "github.com/appgruard/Grua-RD-sub000/internal/shared/db"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/mq"
)

// Run запускает Dispatch Service: сборка зависимостей, фоновые циклы,
// HTTP сервер, graceful shutdown по ctx.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) {
	log.Info(logger.Entry{Action: "dispatch_service_starting", Message: "initializing dispatch service"})

	// 1. Инициализация PostgreSQL
	dbPool, err := db_conn.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer db_conn.Close(dbPool, log)

	// Применяем миграции (идемпотентно)
	if err := db_conn.Migrate(ctx, dbPool); err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_migration_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	// 2. Инициализация RabbitMQ + топология
	mqConn, err := mq.NewRabbitMQ(ctx, cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(mqConn, log); err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_topology_setup_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	// 3. JWT
	jwtService := auth.NewJWTService(cfg.JWT)

	// 4. Репозитории (Adapter OUT)
	servicioRepo := repo.NewServicioPgRepository(dbPool, log)
	comisionRepo := repo.NewComisionPgRepository(dbPool, log)
	conductorRepo := repo.NewConductorPgRepository(dbPool, log)
	locationRepo := repo.NewLocationPgRepository(dbPool)
	mensajeRepo := repo.NewMensajePgRepository(dbPool)

	// 5. Publishers / gateways
	eventPublisher := out_amqp.NewEventPublisher(mqConn, log)
	payoutGateway := payments.NewHTTPPayoutGateway(cfg.Payments, log)

	// 6. Use cases. Notifier зависит от хаба, а хаб — от use cases,
	// поэтому WS-слой собирается в два шага через отложенный notifier.
	notifier := out_ws.NewDeferredNotifier()

	transicionUC := usecase.NewTransicionService(servicioRepo, conductorRepo, notifier, eventPublisher, log)
	solicitarUC := usecase.NewSolicitarServicioService(servicioRepo, conductorRepo, notifier, eventPublisher, log)
	rankUC := usecase.NewRankPendientesService(servicioRepo, log)
	liquidarUC := usecase.NewLiquidarPagoService(servicioRepo, conductorRepo, comisionRepo, payoutGateway, eventPublisher, cfg.Payments, log)
	ubicacionUC := usecase.NewActualizarUbicacionService(servicioRepo, locationRepo, notifier, log)
	mensajeUC := usecase.NewEnviarMensajeService(servicioRepo, mensajeRepo, notifier, log)

	// 7. WebSocket hub (Adapter IN + OUT)
	dispatchWS := in_ws.NewDispatchWSHandler(jwtService, ubicacionUC, mensajeUC, transicionUC, transicionUC, log)
	notifier.Bind(out_ws.NewWsServicioNotifier(dispatchWS.GetHub(), log))
	go dispatchWS.Run(ctx)

	// 8. AMQP consumer для хвостов выплат
	liquidacionConsumer := inamqp.NewLiquidacionConsumer(mqConn, liquidarUC, log)
	if err := liquidacionConsumer.Start(ctx); err != nil {
		log.Error(logger.Entry{
			Action:  "liquidacion_consumer_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	// 9. HTTP
	httpHandler := transport.NewHTTPHandler(solicitarUC, transicionUC, rankUC, log)
	webhookHandler := transport.NewWebhookHandler(liquidarUC, log)

	mux := http.NewServeMux()
	authMiddleware := transport.JWTMiddleware(jwtService, log)
	httpHandler.RegisterRoutes(mux, authMiddleware)
	webhookHandler.RegisterRoutes(mux)
	mux.HandleFunc("/ws", dispatchWS.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Service.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(logger.Entry{
			Action:  "http_server_starting",
			Message: fmt.Sprintf("listening on %s", addr),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(logger.Entry{
				Action:  "http_server_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()

	<-ctx.Done()
	log.Info(logger.Entry{Action: "dispatch_service_stopping", Message: "shutting down dispatch service"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(logger.Entry{
			Action:  "http_server_shutdown_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	log.Info(logger.Entry{Action: "dispatch_service_stopped", Message: "dispatch service stopped"})
}
