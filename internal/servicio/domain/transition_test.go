package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevoServicio(estado string) *Servicio {
	return &Servicio{
		ID:           "srv-1",
		Numero:       "SRV-20250101-000001",
		ClienteID:    "cliente-1",
		Categoria:    CategoriaRemolqueEstandar,
		CostoTotal:   1000,
		MetodoPago:   PagoTarjeta,
		Estado:       estado,
		SolicitadoEn: time.Now().UTC().Add(-5 * time.Minute),
	}
}

func conConductor(s *Servicio, conductorID string) *Servicio {
	s.ConductorID = &conductorID
	return s
}

func TestAplicarCicloCompleto(t *testing.T) {
	now := time.Now().UTC()
	s := nuevoServicio(EstadoPendiente)

	cambio, err := Aplicar(s, "cond-1", RolConductor, EventoAceptar, now)
	require.NoError(t, err)
	assert.Equal(t, EstadoPendiente, cambio.EstadoAnterior)
	assert.Equal(t, EstadoAceptado, cambio.EstadoNuevo)
	require.NotNil(t, s.ConductorID)
	assert.Equal(t, "cond-1", *s.ConductorID)
	require.NotNil(t, s.AceptadoEn)
	assert.Equal(t, now, *s.AceptadoEn)

	pasos := []struct {
		ev     Evento
		estado string
	}{
		{EventoEnSitio, EstadoConductorEnSitio},
		{EventoCargando, EstadoCargando},
		{EventoIniciar, EstadoEnCurso},
		{EventoCompletar, EstadoCompletado},
	}
	for _, paso := range pasos {
		cambio, err = Aplicar(s, "cond-1", RolConductor, paso.ev, now)
		require.NoError(t, err, "evento %s", paso.ev)
		assert.Equal(t, paso.estado, s.Estado)
		assert.Equal(t, paso.estado, cambio.EstadoNuevo)
	}

	require.NotNil(t, s.EnSitioEn)
	require.NotNil(t, s.CargandoEn)
	require.NotNil(t, s.IniciadoEn)
	require.NotNil(t, s.CompletadoEn)
	assert.True(t, s.EsTerminal())
}

func TestAplicarAceptarAsignaConductorAtomicamente(t *testing.T) {
	now := time.Now().UTC()

	t.Run("ya asignado", func(t *testing.T) {
		s := conConductor(nuevoServicio(EstadoPendiente), "cond-1")
		_, err := Aplicar(s, "cond-2", RolConductor, EventoAceptar, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, "cond-1", *s.ConductorID)
		assert.Equal(t, EstadoPendiente, s.Estado)
	})

	t.Run("cliente no puede aceptar", func(t *testing.T) {
		s := nuevoServicio(EstadoPendiente)
		_, err := Aplicar(s, "cliente-1", RolCliente, EventoAceptar, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Nil(t, s.ConductorID)
	})
}

func TestAplicarTransicionesIlegales(t *testing.T) {
	now := time.Now().UTC()

	casos := []struct {
		nombre string
		estado string
		ev     Evento
	}{
		{"saltar en_sitio", EstadoAceptado, EventoCargando},
		{"completar sin iniciar", EstadoCargando, EventoCompletar},
		{"cancelar en_curso", EstadoEnCurso, EventoCancelar},
		{"cancelar completado", EstadoCompletado, EventoCancelar},
		{"aceptar aceptado", EstadoAceptado, EventoAceptar},
		{"iniciar completado", EstadoCompletado, EventoIniciar},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			s := nuevoServicio(c.estado)
			if c.ev != EventoAceptar && c.ev != EventoCancelar {
				s = conConductor(s, "cond-1")
			}
			antes := *s
			_, err := Aplicar(s, actorPara(c.ev), rolPara(c.ev), c.ev, now)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			// ошибка не оставляет частичных мутаций
			assert.Equal(t, antes, *s)
		})
	}
}

func actorPara(ev Evento) string {
	if ev == EventoCancelar || ev == EventoConfirmarPago {
		return "cliente-1"
	}
	return "cond-1"
}

func rolPara(ev Evento) string {
	if ev == EventoCancelar || ev == EventoConfirmarPago {
		return RolCliente
	}
	return RolConductor
}

func TestAplicarAutorizacion(t *testing.T) {
	now := time.Now().UTC()

	t.Run("conductor ajeno no avanza servicio", func(t *testing.T) {
		s := conConductor(nuevoServicio(EstadoAceptado), "cond-1")
		_, err := Aplicar(s, "cond-2", RolConductor, EventoEnSitio, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("solo el cliente cancela", func(t *testing.T) {
		s := conConductor(nuevoServicio(EstadoAceptado), "cond-1")
		_, err := Aplicar(s, "cond-1", RolConductor, EventoCancelar, now)
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = Aplicar(s, "cliente-1", RolCliente, EventoCancelar, now)
		require.NoError(t, err)
		assert.Equal(t, EstadoCancelado, s.Estado)
		require.NotNil(t, s.CanceladoEn)
	})

	t.Run("admin corrige cualquier transicion", func(t *testing.T) {
		s := conConductor(nuevoServicio(EstadoAceptado), "cond-1")
		_, err := Aplicar(s, "admin-1", RolAdmin, EventoEnSitio, now)
		require.NoError(t, err)
		assert.Equal(t, EstadoConductorEnSitio, s.Estado)
	})

	// aceptar назначает актора исполнителем: admin не может стать conductor'ом
	t.Run("admin no acepta servicios", func(t *testing.T) {
		s := nuevoServicio(EstadoPendiente)
		_, err := Aplicar(s, "admin-1", RolAdmin, EventoAceptar, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Nil(t, s.ConductorID)
		assert.Equal(t, EstadoPendiente, s.Estado)
	})
}

func TestAplicarConfirmarPago(t *testing.T) {
	now := time.Now().UTC()

	t.Run("no cambia estado", func(t *testing.T) {
		s := conConductor(nuevoServicio(EstadoEnCurso), "cond-1")
		cambio, err := Aplicar(s, "cliente-1", RolCliente, EventoConfirmarPago, now)
		require.NoError(t, err)
		assert.Equal(t, EstadoEnCurso, s.Estado)
		assert.Equal(t, EstadoEnCurso, cambio.EstadoNuevo)
		require.NotNil(t, s.PagoConfirmadoEn)
		assert.Equal(t, now, *s.PagoConfirmadoEn)
	})

	t.Run("legal desde completado", func(t *testing.T) {
		s := conConductor(nuevoServicio(EstadoCompletado), "cond-1")
		_, err := Aplicar(s, "cliente-1", RolCliente, EventoConfirmarPago, now)
		require.NoError(t, err)
		assert.Equal(t, EstadoCompletado, s.Estado)
	})

	t.Run("ilegal desde pendiente", func(t *testing.T) {
		s := nuevoServicio(EstadoPendiente)
		_, err := Aplicar(s, "cliente-1", RolCliente, EventoConfirmarPago, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("solo el cliente confirma", func(t *testing.T) {
		s := conConductor(nuevoServicio(EstadoEnCurso), "cond-1")
		_, err := Aplicar(s, "cond-1", RolConductor, EventoConfirmarPago, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestPuedeObservar(t *testing.T) {
	s := conConductor(nuevoServicio(EstadoAceptado), "cond-1")

	assert.True(t, s.PuedeObservar("cliente-1", RolCliente))
	assert.True(t, s.PuedeObservar("cond-1", RolConductor))
	assert.True(t, s.PuedeObservar("cualquiera", RolAdmin))
	assert.False(t, s.PuedeObservar("cond-2", RolConductor))
	assert.False(t, s.PuedeObservar("cliente-2", RolCliente))

	sinConductor := nuevoServicio(EstadoPendiente)
	assert.False(t, sinConductor.PuedeObservar("cond-1", RolConductor))
}

func TestMontoCobrado(t *testing.T) {
	s := nuevoServicio(EstadoCompletado)
	assert.Equal(t, 1000.0, s.MontoCobrado())

	negociado := 1500.0
	s.MontoNegociado = &negociado
	assert.Equal(t, 1500.0, s.MontoCobrado())
}
