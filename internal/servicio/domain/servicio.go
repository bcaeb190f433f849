package domain

import "time"

// ==== Estados del servicio ====
const (
	EstadoPendiente        = "pendiente"
	EstadoAceptado         = "aceptado"
	EstadoConductorEnSitio = "conductor_en_sitio"
	EstadoCargando         = "cargando"
	EstadoEnCurso          = "en_curso"
	EstadoCompletado       = "completado"
	EstadoCancelado        = "cancelado"
)

// ==== Roles ====
const (
	RolCliente   = "cliente"
	RolConductor = "conductor"
	RolAdmin     = "admin"
)

// ==== Métodos de pago ====
const (
	PagoEfectivo = "cash"
	PagoTarjeta  = "card"
	PagoSeguro   = "insurer"
	PagoPartner  = "partner"
)

// ==== Categorías ====
const (
	CategoriaExtraccion       = "extraccion"
	CategoriaAccidente        = "accidente"
	CategoriaVolcadura        = "volcadura"
	CategoriaRemolquePesado   = "remolque_pesado"
	CategoriaMaquinaria       = "maquinaria"
	CategoriaEspecializado    = "especializado"
	CategoriaRemolqueEstandar = "remolque_estandar"
)

// Servicio представляет основную сущность заявки на эвакуацию.
type Servicio struct {
	ID                  string     `json:"id" db:"id"`
	Numero              string     `json:"numero" db:"numero"`
	ClienteID           string     `json:"cliente_id" db:"cliente_id"`
	ConductorID         *string    `json:"conductor_id,omitempty" db:"conductor_id"`
	Categoria           string     `json:"categoria" db:"categoria"`
	Subtipo             *string    `json:"subtipo,omitempty" db:"subtipo"`
	RequiereNegociacion bool       `json:"requiere_negociacion" db:"requiere_negociacion"`
	OrigenLat           float64    `json:"origen_lat" db:"origen_lat"`
	OrigenLng           float64    `json:"origen_lng" db:"origen_lng"`
	OrigenDireccion     string     `json:"origen_direccion" db:"origen_direccion"`
	DestinoLat          float64    `json:"destino_lat" db:"destino_lat"`
	DestinoLng          float64    `json:"destino_lng" db:"destino_lng"`
	DestinoDireccion    string     `json:"destino_direccion" db:"destino_direccion"`
	DestinoExtendido    *string    `json:"destino_extendido,omitempty" db:"destino_extendido"`
	CostoTotal          float64    `json:"costo_total" db:"costo_total"`
	MetodoPago          string     `json:"metodo_pago" db:"metodo_pago"`
	MontoNegociado      *float64   `json:"monto_negociado,omitempty" db:"monto_negociado"`
	Estado              string     `json:"estado" db:"estado"`
	TransactionID       *string    `json:"transaction_id,omitempty" db:"transaction_id"`
	SolicitadoEn        time.Time  `json:"solicitado_en" db:"solicitado_en"`
	AceptadoEn          *time.Time `json:"aceptado_en,omitempty" db:"aceptado_en"`
	EnSitioEn           *time.Time `json:"en_sitio_en,omitempty" db:"en_sitio_en"`
	CargandoEn          *time.Time `json:"cargando_en,omitempty" db:"cargando_en"`
	IniciadoEn          *time.Time `json:"iniciado_en,omitempty" db:"iniciado_en"`
	CompletadoEn        *time.Time `json:"completado_en,omitempty" db:"completado_en"`
	CanceladoEn         *time.Time `json:"cancelado_en,omitempty" db:"cancelado_en"`
	PagoConfirmadoEn    *time.Time `json:"pago_confirmado_en,omitempty" db:"pago_confirmado_en"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// EsTerminal сообщает, достиг ли сервис конечного состояния.
func (s *Servicio) EsTerminal() bool {
	return s.Estado == EstadoCompletado || s.Estado == EstadoCancelado
}

// MontoCobrado — сумма к расчету: договорная цена, если была, иначе тариф.
func (s *Servicio) MontoCobrado() float64 {
	if s.MontoNegociado != nil {
		return *s.MontoNegociado
	}
	return s.CostoTotal
}
