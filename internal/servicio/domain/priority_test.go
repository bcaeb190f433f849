package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendienteDeHace(id, categoria string, espera time.Duration, now time.Time) *Servicio {
	return &Servicio{
		ID:           id,
		ClienteID:    "cliente-1",
		Categoria:    categoria,
		Estado:       EstadoPendiente,
		SolicitadoEn: now.Add(-espera),
	}
}

func TestCalcularScore(t *testing.T) {
	now := time.Now().UTC()

	casos := []struct {
		nombre    string
		categoria string
		espera    time.Duration
		negocia   bool
		esperado  int
	}{
		{"extraccion recien creada", CategoriaExtraccion, 0, false, 100},
		{"remolque estandar recien creado", CategoriaRemolqueEstandar, 0, false, 20},
		{"remolque pesado recien creado", CategoriaRemolquePesado, 0, false, 50},
		{"bono por minuto", CategoriaRemolqueEstandar, 10 * time.Minute, false, 40},
		{"bono por minuto topado", CategoriaRemolqueEstandar, 14 * time.Minute, false, 45},
		{"espera 15 minutos", CategoriaRemolqueEstandar, 15 * time.Minute, false, 50},
		{"espera 30 minutos", CategoriaRemolqueEstandar, 30 * time.Minute, false, 80},
		{"negociacion suma bono", CategoriaRemolqueEstandar, 0, true, 35},
		{"accidente con espera larga", CategoriaAccidente, 45 * time.Minute, false, 160},
		{"categoria desconocida", "categoria_inexistente", 0, false, 20},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			s := pendienteDeHace("s", c.categoria, c.espera, now)
			s.RequiereNegociacion = c.negocia
			assert.Equal(t, c.esperado, CalcularScore(s, now))
		})
	}
}

func TestCalcularScoreSubtipoUrgente(t *testing.T) {
	now := time.Now().UTC()
	subtipo := CategoriaVolcadura
	s := pendienteDeHace("s", CategoriaRemolqueEstandar, 0, now)
	s.Subtipo = &subtipo

	assert.Equal(t, 100, CalcularScore(s, now))
	assert.Equal(t, NivelAlto, CalcularNivel(s, now, 100))
}

func TestCalcularNivel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("extraccion es alta desde el minuto cero", func(t *testing.T) {
		s := pendienteDeHace("s", CategoriaExtraccion, 0, now)
		score := CalcularScore(s, now)
		assert.Equal(t, NivelAlto, CalcularNivel(s, now, score))
	})

	t.Run("remolque estandar escala con la espera", func(t *testing.T) {
		s := pendienteDeHace("s", CategoriaRemolqueEstandar, 0, now)
		assert.Equal(t, NivelBajo, CalcularNivel(s, now, CalcularScore(s, now)))

		s = pendienteDeHace("s", CategoriaRemolqueEstandar, 16*time.Minute, now)
		assert.Equal(t, NivelMedio, CalcularNivel(s, now, CalcularScore(s, now)))

		s = pendienteDeHace("s", CategoriaRemolqueEstandar, 31*time.Minute, now)
		assert.Equal(t, NivelAlto, CalcularNivel(s, now, CalcularScore(s, now)))
	})

	t.Run("maquinaria es media sin espera", func(t *testing.T) {
		s := pendienteDeHace("s", CategoriaMaquinaria, 0, now)
		assert.Equal(t, NivelMedio, CalcularNivel(s, now, CalcularScore(s, now)))
	})
}

func TestRankPendientesOrdenYDisplayID(t *testing.T) {
	now := time.Now().UTC()

	servicios := []*Servicio{
		pendienteDeHace("bajo", CategoriaRemolqueEstandar, 0, now),
		pendienteDeHace("alto", CategoriaExtraccion, 0, now),
		pendienteDeHace("medio", CategoriaRemolquePesado, 0, now),
		pendienteDeHace("alto-2", CategoriaExtraccion, 5*time.Minute, now),
	}

	views := RankPendientes(servicios, now)
	require.Len(t, views, len(servicios))

	// score убывает
	for i := 1; i < len(views); i++ {
		assert.GreaterOrEqual(t, views[i-1].Score, views[i].Score)
	}

	// alto-2 ждал дольше, идет перед alto
	assert.Equal(t, "alto-2", views[0].Servicio.ID)
	assert.Equal(t, "alto", views[1].Servicio.ID)
	assert.Equal(t, "medio", views[2].Servicio.ID)
	assert.Equal(t, "bajo", views[3].Servicio.ID)

	// display id нумеруются в порядке выхода, с 1 внутри префикса
	assert.Equal(t, "EXT-001", views[0].DisplayID)
	assert.Equal(t, "EXT-002", views[1].DisplayID)
	assert.Equal(t, "REM-001", views[2].DisplayID)
	assert.Equal(t, "GRU-001", views[3].DisplayID)
}

func TestRankPendientesEmpateEstable(t *testing.T) {
	now := time.Now().UTC()

	// одинаковый score: порядок входа сохраняется
	servicios := []*Servicio{
		pendienteDeHace("primero", CategoriaRemolqueEstandar, 0, now),
		pendienteDeHace("segundo", CategoriaRemolqueEstandar, 0, now),
		pendienteDeHace("tercero", CategoriaRemolqueEstandar, 0, now),
	}

	views := RankPendientes(servicios, now)
	require.Len(t, views, 3)
	assert.Equal(t, "primero", views[0].Servicio.ID)
	assert.Equal(t, "segundo", views[1].Servicio.ID)
	assert.Equal(t, "tercero", views[2].Servicio.ID)
	assert.Equal(t, "GRU-001", views[0].DisplayID)
	assert.Equal(t, "GRU-002", views[1].DisplayID)
	assert.Equal(t, "GRU-003", views[2].DisplayID)
}

func TestRankPendientesCategoriaDesconocida(t *testing.T) {
	now := time.Now().UTC()

	views := RankPendientes([]*Servicio{
		pendienteDeHace("x", "categoria_inexistente", 0, now),
	}, now)

	require.Len(t, views, 1)
	assert.Equal(t, "SRV-001", views[0].DisplayID)
	assert.Equal(t, NivelBajo, views[0].Nivel)
}

func TestRankPendientesVacio(t *testing.T) {
	views := RankPendientes(nil, time.Now().UTC())
	assert.Empty(t, views)
	assert.NotNil(t, views)
}

func TestEsperaMinutos(t *testing.T) {
	now := time.Now().UTC()

	s := pendienteDeHace("s", CategoriaExtraccion, 90*time.Second, now)
	assert.Equal(t, 1, EsperaMinutos(s, now))

	// заявка "из будущего" не дает бонус отрицательный
	futuro := pendienteDeHace("s", CategoriaExtraccion, -time.Minute, now)
	assert.Equal(t, 0, EsperaMinutos(futuro, now))
}
