package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/in"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servicioEnEstado(estado string, conductorID *string) *domain.Servicio {
	return &domain.Servicio{
		ID:           "srv-1",
		Numero:       "SRV-20250101-000001",
		ClienteID:    "cliente-1",
		ConductorID:  conductorID,
		Categoria:    domain.CategoriaExtraccion,
		CostoTotal:   800,
		MetodoPago:   domain.PagoEfectivo,
		Estado:       estado,
		SolicitadoEn: time.Now().UTC().Add(-time.Minute),
	}
}

func transicionFixture(serv *domain.Servicio) (*TransicionService, *fakeServicioRepo, *fakeConductorRepo, *fakeNotifier, *fakePublisher) {
	servRepo := newFakeServicioRepo(serv)
	condRepo := newFakeConductorRepo()
	notifier := newFakeNotifier()
	publisher := &fakePublisher{}
	svc := NewTransicionService(servRepo, condRepo, notifier, publisher, testLogger())
	return svc, servRepo, condRepo, notifier, publisher
}

func TestTransicionAceptar(t *testing.T) {
	t.Run("asigna conductor y estado juntos", func(t *testing.T) {
		serv := servicioEnEstado(domain.EstadoPendiente, nil)
		svc, servRepo, _, notifier, publisher := transicionFixture(serv)

		result, err := svc.Aceptar(context.Background(), in.TransicionInput{
			ServicioID: serv.ID,
			ActorID:    "cond-1",
			ActorRol:   domain.RolConductor,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.EstadoAceptado, result.Estado)
		require.NotNil(t, result.ConductorID)
		assert.Equal(t, "cond-1", *result.ConductorID)

		// запись ушла с guard'ом на прежний estado
		assert.Equal(t, []string{domain.EstadoPendiente}, servRepo.updates)

		guardado := servRepo.stored(serv.ID)
		assert.Equal(t, domain.EstadoAceptado, guardado.Estado)
		require.NotNil(t, guardado.ConductorID)

		// fan-out: подписчики + брокер
		require.Len(t, notifier.cambios, 1)
		assert.Equal(t, domain.EventoAceptar, notifier.cambios[0].Evento)
		require.Len(t, publisher.cambios, 1)
	})

	t.Run("conductor ocupado es rechazado", func(t *testing.T) {
		serv := servicioEnEstado(domain.EstadoPendiente, nil)
		svc, servRepo, condRepo, _, _ := transicionFixture(serv)
		condRepo.ocupados["cond-1"] = true

		_, err := svc.Aceptar(context.Background(), in.TransicionInput{
			ServicioID: serv.ID,
			ActorID:    "cond-1",
			ActorRol:   domain.RolConductor,
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Empty(t, servRepo.updates)
		assert.Equal(t, domain.EstadoPendiente, servRepo.stored(serv.ID).Estado)
	})

	t.Run("monto negociado se fija al aceptar", func(t *testing.T) {
		serv := servicioEnEstado(domain.EstadoPendiente, nil)
		serv.RequiereNegociacion = true
		svc, servRepo, _, _, _ := transicionFixture(serv)

		monto := 2500.0
		result, err := svc.Aceptar(context.Background(), in.TransicionInput{
			ServicioID:     serv.ID,
			ActorID:        "cond-1",
			ActorRol:       domain.RolConductor,
			MontoNegociado: &monto,
		})
		require.NoError(t, err)
		require.NotNil(t, result.MontoNegociado)
		assert.Equal(t, 2500.0, *result.MontoNegociado)
		require.NotNil(t, servRepo.stored(serv.ID).MontoNegociado)
	})

	t.Run("sin negociacion el monto se ignora", func(t *testing.T) {
		serv := servicioEnEstado(domain.EstadoPendiente, nil)
		svc, servRepo, _, _, _ := transicionFixture(serv)

		monto := 2500.0
		result, err := svc.Aceptar(context.Background(), in.TransicionInput{
			ServicioID:     serv.ID,
			ActorID:        "cond-1",
			ActorRol:       domain.RolConductor,
			MontoNegociado: &monto,
		})
		require.NoError(t, err)
		assert.Nil(t, result.MontoNegociado)
		assert.Nil(t, servRepo.stored(serv.ID).MontoNegociado)
	})
}

func TestTransicionIlegalNoPersiste(t *testing.T) {
	conductor := "cond-1"
	serv := servicioEnEstado(domain.EstadoAceptado, &conductor)
	svc, servRepo, _, notifier, publisher := transicionFixture(serv)

	_, err := svc.Completar(context.Background(), in.TransicionInput{
		ServicioID: serv.ID,
		ActorID:    "cond-1",
		ActorRol:   domain.RolConductor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, servRepo.updates)
	assert.Empty(t, notifier.cambios)
	assert.Empty(t, publisher.cambios)
}

func TestTransicionServicioInexistente(t *testing.T) {
	serv := servicioEnEstado(domain.EstadoPendiente, nil)
	svc, _, _, _, _ := transicionFixture(serv)

	_, err := svc.Aceptar(context.Background(), in.TransicionInput{
		ServicioID: "srv-otro",
		ActorID:    "cond-1",
		ActorRol:   domain.RolConductor,
	})
	assert.ErrorIs(t, err, domain.ErrServicioNotFound)
}

func TestTransicionErrorDePublicacionNoRevierte(t *testing.T) {
	conductor := "cond-1"
	serv := servicioEnEstado(domain.EstadoAceptado, &conductor)
	svc, servRepo, _, notifier, publisher := transicionFixture(serv)
	publisher.err = assert.AnError

	result, err := svc.MarcarEnSitio(context.Background(), in.TransicionInput{
		ServicioID: serv.ID,
		ActorID:    "cond-1",
		ActorRol:   domain.RolConductor,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EstadoConductorEnSitio, result.Estado)
	assert.Equal(t, domain.EstadoConductorEnSitio, servRepo.stored(serv.ID).Estado)
	// подписчики уведомлены несмотря на сбой брокера
	require.Len(t, notifier.cambios, 1)
}

func TestTransicionCadenaCompleta(t *testing.T) {
	serv := servicioEnEstado(domain.EstadoPendiente, nil)
	svc, servRepo, _, notifier, _ := transicionFixture(serv)

	ctx := context.Background()
	conductor := in.TransicionInput{ServicioID: serv.ID, ActorID: "cond-1", ActorRol: domain.RolConductor}
	cliente := in.TransicionInput{ServicioID: serv.ID, ActorID: "cliente-1", ActorRol: domain.RolCliente}

	_, err := svc.Aceptar(ctx, conductor)
	require.NoError(t, err)
	_, err = svc.MarcarEnSitio(ctx, conductor)
	require.NoError(t, err)
	_, err = svc.MarcarCargando(ctx, conductor)
	require.NoError(t, err)
	_, err = svc.Iniciar(ctx, conductor)
	require.NoError(t, err)
	_, err = svc.Completar(ctx, conductor)
	require.NoError(t, err)
	result, err := svc.ConfirmarPago(ctx, cliente)
	require.NoError(t, err)

	assert.Equal(t, domain.EstadoCompletado, result.Estado)
	assert.NotNil(t, result.PagoConfirmadoEn)

	guardado := servRepo.stored(serv.ID)
	assert.NotNil(t, guardado.AceptadoEn)
	assert.NotNil(t, guardado.CompletadoEn)
	assert.NotNil(t, guardado.PagoConfirmadoEn)

	// шесть событий, по одному на каждый переход
	assert.Len(t, notifier.cambios, 6)
	assert.Equal(t, []string{
		domain.EstadoPendiente,
		domain.EstadoAceptado,
		domain.EstadoConductorEnSitio,
		domain.EstadoCargando,
		domain.EstadoEnCurso,
		domain.EstadoCompletado,
	}, servRepo.updates)
}

func TestPuedeObservarUseCase(t *testing.T) {
	conductor := "cond-1"
	serv := servicioEnEstado(domain.EstadoAceptado, &conductor)
	svc, _, _, _, _ := transicionFixture(serv)

	ctx := context.Background()
	assert.True(t, svc.PuedeObservar(ctx, serv.ID, "cliente-1", domain.RolCliente))
	assert.True(t, svc.PuedeObservar(ctx, serv.ID, "cond-1", domain.RolConductor))
	assert.False(t, svc.PuedeObservar(ctx, serv.ID, "cond-2", domain.RolConductor))
	assert.False(t, svc.PuedeObservar(ctx, "srv-otro", "cliente-1", domain.RolCliente))
}
