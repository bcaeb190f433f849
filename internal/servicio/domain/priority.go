package domain

import (
	"fmt"
	"sort"
	"time"
)

// Niveles de prioridad
const (
	NivelAlto  = "high"
	NivelMedio = "medium"
	NivelBajo  = "low"
)

// Веса и бонусы скоринга
const (
	pesoCategoriaAlta  = 100
	pesoCategoriaMedia = 50
	pesoCategoriaBaja  = 20

	bonoEspera30     = 60
	bonoEspera15     = 30
	bonoEsperaPorMin = 2
	bonoEsperaTope   = 25

	bonoNegociacion = 15

	umbralNivelAlto  = 100
	umbralNivelMedio = 50
)

// categoriasAltas — высокоургентные категории/подтипы
var categoriasAltas = map[string]bool{
	CategoriaExtraccion: true,
	CategoriaAccidente:  true,
	CategoriaVolcadura:  true,
}

// categoriasMedias — специализированные/тяжелые категории
var categoriasMedias = map[string]bool{
	CategoriaRemolquePesado: true,
	CategoriaMaquinaria:     true,
	CategoriaEspecializado:  true,
}

// prefijos — трёхбуквенный префикс display id по категории
var prefijos = map[string]string{
	CategoriaExtraccion:       "EXT",
	CategoriaAccidente:        "ACC",
	CategoriaVolcadura:        "VOL",
	CategoriaRemolquePesado:   "REM",
	CategoriaMaquinaria:       "MAQ",
	CategoriaEspecializado:    "ESP",
	CategoriaRemolqueEstandar: "GRU",
}

const prefijoGenerico = "SRV"

// PriorityView — производное представление для панели водителя.
// Никогда не хранится: пересчитывается на каждый запрос ранжирования.
type PriorityView struct {
	Servicio      *Servicio `json:"servicio"`
	Nivel         string    `json:"nivel"`
	Score         int       `json:"score"`
	EsperaMinutos int       `json:"espera_minutos"`
	DisplayID     string    `json:"display_id"`
}

func esUrgente(s *Servicio) bool {
	if categoriasAltas[s.Categoria] {
		return true
	}
	return s.Subtipo != nil && categoriasAltas[*s.Subtipo]
}

func esMedio(s *Servicio) bool {
	if categoriasMedias[s.Categoria] {
		return true
	}
	return s.Subtipo != nil && categoriasMedias[*s.Subtipo]
}

// EsperaMinutos — целые минуты с момента создания заявки.
func EsperaMinutos(s *Servicio, now time.Time) int {
	m := int(now.Sub(s.SolicitadoEn).Minutes())
	if m < 0 {
		return 0
	}
	return m
}

// CalcularScore — числовой скоринг заявки: вес категории + бонус ожидания +
// бонус за необходимость согласования цены. Неизвестная категория идет
// по нижней ветке, без ошибок.
func CalcularScore(s *Servicio, now time.Time) int {
	score := pesoCategoriaBaja
	if esUrgente(s) {
		score = pesoCategoriaAlta
	} else if esMedio(s) {
		score = pesoCategoriaMedia
	}

	espera := EsperaMinutos(s, now)
	switch {
	case espera >= 30:
		score += bonoEspera30
	case espera >= 15:
		score += bonoEspera15
	default:
		bono := espera * bonoEsperaPorMin
		if bono > bonoEsperaTope {
			bono = bonoEsperaTope
		}
		score += bono
	}

	if s.RequiereNegociacion {
		score += bonoNegociacion
	}

	return score
}

// CalcularNivel — уровень приоритета. Считается по тем же сигналам, что и
// score, но отдельной, явной системой правил: членство в категории проверяется
// напрямую, а не выводится из порога score.
func CalcularNivel(s *Servicio, now time.Time, score int) string {
	espera := EsperaMinutos(s, now)

	if esUrgente(s) || espera >= 30 || score >= umbralNivelAlto {
		return NivelAlto
	}
	if esMedio(s) || espera >= 15 || score >= umbralNivelMedio {
		return NivelMedio
	}
	return NivelBajo
}

// Prefijo — префикс display id для категории, SRV для неизвестной.
func Prefijo(categoria string) string {
	if p, ok := prefijos[categoria]; ok {
		return p
	}
	return prefijoGenerico
}

// RankPendientes — чистая функция ранжирования: сортировка по score по
// убыванию (стабильная, при равенстве сохраняется входной порядок),
// display id назначаются в порядке ВЫХОДА, нумерация с 1 внутри префикса.
func RankPendientes(servicios []*Servicio, now time.Time) []PriorityView {
	views := make([]PriorityView, 0, len(servicios))
	for _, s := range servicios {
		score := CalcularScore(s, now)
		views = append(views, PriorityView{
			Servicio:      s,
			Nivel:         CalcularNivel(s, now, score),
			Score:         score,
			EsperaMinutos: EsperaMinutos(s, now),
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Score > views[j].Score
	})

	seq := map[string]int{}
	for i := range views {
		p := Prefijo(views[i].Servicio.Categoria)
		seq[p]++
		views[i].DisplayID = fmt.Sprintf("%s-%03d", p, seq[p])
	}

	return views
}
