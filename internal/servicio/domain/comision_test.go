package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcularComision(t *testing.T) {
	casos := []struct {
		nombre     string
		total      float64
		porcentaje float64
		operador   float64
		empresa    float64
	}{
		{"reparto 70/30", 1000, 70, 700, 300},
		{"centavos redondeados", 100.01, 70, 70.01, 30},
		{"monto pequeno", 0.03, 70, 0.02, 0.01},
		{"cero", 0, 70, 0, 0},
		{"porcentaje completo", 500, 100, 500, 0},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			operador, empresa := CalcularComision(c.total, c.porcentaje)
			assert.InDelta(t, c.operador, operador, 1e-9)
			assert.InDelta(t, c.empresa, empresa, 1e-9)
			// обе части всегда сходятся к total
			assert.InDelta(t, c.total, operador+empresa, 1e-9)
		})
	}
}

func TestValidarCoordenadas(t *testing.T) {
	assert.NoError(t, ValidarCoordenadas(18.4861, -69.9312))
	assert.NoError(t, ValidarCoordenadas(-90, 180))
	assert.ErrorIs(t, ValidarCoordenadas(91, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidarCoordenadas(0, -181), ErrInvalidCoordinates)
}
