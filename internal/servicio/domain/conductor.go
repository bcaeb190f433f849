package domain

import "time"

// Conductor — оператор эвакуатора.
type Conductor struct {
	ID          string    `json:"id" db:"id"`
	Nombre      string    `json:"nombre" db:"nombre"`
	Categorias  []string  `json:"categorias" db:"categorias"`
	Disponible  bool      `json:"disponible" db:"disponible"`
	PayoutToken *string   `json:"payout_token,omitempty" db:"payout_token"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AtiendeCategoria сообщает, обслуживает ли водитель данную категорию.
func (c *Conductor) AtiendeCategoria(categoria string) bool {
	for _, cat := range c.Categorias {
		if cat == categoria {
			return true
		}
	}
	return false
}
