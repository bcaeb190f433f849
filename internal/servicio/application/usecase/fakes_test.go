package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/application/ports/out"
	"github.com/appgruard/Grua-RD-sub000/internal/servicio/domain"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("test")
}

// ---- servicio repository ----

type fakeServicioRepo struct {
	mu        sync.Mutex
	servicios map[string]*domain.Servicio

	createErr error
	updateErr error

	// estadoAnterior каждого Update, в порядке вызова
	updates []string
}

func newFakeServicioRepo(servicios ...*domain.Servicio) *fakeServicioRepo {
	r := &fakeServicioRepo{servicios: make(map[string]*domain.Servicio)}
	for _, s := range servicios {
		copia := *s
		r.servicios[s.ID] = &copia
	}
	return r
}

func (r *fakeServicioRepo) Create(ctx context.Context, s *domain.Servicio) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *s
	r.servicios[s.ID] = &copia
	return nil
}

func (r *fakeServicioRepo) FindByID(ctx context.Context, id string) (*domain.Servicio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servicios[id]
	if !ok {
		return nil, domain.ErrServicioNotFound
	}
	copia := *s
	return &copia, nil
}

func (r *fakeServicioRepo) FindByNumero(ctx context.Context, numero string) (*domain.Servicio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.servicios {
		if s.Numero == numero {
			copia := *s
			return &copia, nil
		}
	}
	return nil, domain.ErrServicioNotFound
}

func (r *fakeServicioRepo) Update(ctx context.Context, s *domain.Servicio, estadoAnterior string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	actual, ok := r.servicios[s.ID]
	if !ok {
		return domain.ErrServicioNotFound
	}
	if actual.Estado != estadoAnterior {
		return fmt.Errorf("%w: stored estado %s", domain.ErrInvalidTransition, actual.Estado)
	}
	r.updates = append(r.updates, estadoAnterior)
	copia := *s
	r.servicios[s.ID] = &copia
	return nil
}

func (r *fakeServicioRepo) ListPendientes(ctx context.Context) ([]*domain.Servicio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.Servicio
	for _, s := range r.servicios {
		if s.Estado == domain.EstadoPendiente {
			copia := *s
			result = append(result, &copia)
		}
	}
	return result, nil
}

func (r *fakeServicioRepo) stored(id string) *domain.Servicio {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.servicios[id]
}

// ---- conductor repository ----

type fakeConductorRepo struct {
	conductores map[string]*domain.Conductor
	disponibles []*domain.Conductor
	ocupados    map[string]bool
}

func newFakeConductorRepo() *fakeConductorRepo {
	return &fakeConductorRepo{
		conductores: make(map[string]*domain.Conductor),
		ocupados:    make(map[string]bool),
	}
}

func (r *fakeConductorRepo) FindByID(ctx context.Context, id string) (*domain.Conductor, error) {
	c, ok := r.conductores[id]
	if !ok {
		return nil, domain.ErrConductorNotFound
	}
	return c, nil
}

func (r *fakeConductorRepo) FindDisponiblesPorCategoria(ctx context.Context, categoria string) ([]*domain.Conductor, error) {
	var result []*domain.Conductor
	for _, c := range r.disponibles {
		if c.AtiendeCategoria(categoria) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *fakeConductorRepo) TieneServicioActivo(ctx context.Context, conductorID string) (bool, error) {
	return r.ocupados[conductorID], nil
}

// ---- comision ledger ----

type fakeLedger struct {
	mu          sync.Mutex
	porServicio map[string]*domain.Comision
	porTx       map[string]bool

	crearErr      error
	actualizarErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		porServicio: make(map[string]*domain.Comision),
		porTx:       make(map[string]bool),
	}
}

func (l *fakeLedger) CrearIdempotente(ctx context.Context, c *domain.Comision) (bool, error) {
	if l.crearErr != nil {
		return false, l.crearErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.porTx[c.TransactionID] {
		return false, nil
	}
	if _, ok := l.porServicio[c.ServicioID]; ok {
		return false, nil
	}
	copia := *c
	l.porServicio[c.ServicioID] = &copia
	l.porTx[c.TransactionID] = true
	return true, nil
}

func (l *fakeLedger) FindByServicio(ctx context.Context, servicioID string) (*domain.Comision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.porServicio[servicioID]
	if !ok {
		return nil, nil
	}
	copia := *c
	return &copia, nil
}

func (l *fakeLedger) ActualizarPagoOperador(ctx context.Context, comisionID, estado string, referencia *string) error {
	if l.actualizarErr != nil {
		return l.actualizarErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.porServicio {
		if c.ID == comisionID {
			if c.PagoOperador == domain.PayoutPagado {
				return fmt.Errorf("%w: comision %s", domain.ErrDuplicateSettlement, comisionID)
			}
			c.PagoOperador = estado
			if referencia != nil {
				c.ReferenciaPago = referencia
			}
			return nil
		}
	}
	return fmt.Errorf("comision %s not found", comisionID)
}

// ---- payout gateway ----

type fakePayoutGateway struct {
	err    error
	ref    string
	montos []float64
}

func (g *fakePayoutGateway) Pagar(ctx context.Context, payoutToken string, monto float64, referencia string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.montos = append(g.montos, monto)
	if g.ref == "" {
		return "ref-" + referencia, nil
	}
	return g.ref, nil
}

// ---- event publisher ----

type fakePublisher struct {
	creados        int
	cambios        []*domain.CambioEstado
	liquidaciones  int
	notificaciones []out.NotificacionConductor

	err error
}

func (p *fakePublisher) PublishServicioCreado(ctx context.Context, s *domain.Servicio) error {
	if p.err != nil {
		return p.err
	}
	p.creados++
	return nil
}

func (p *fakePublisher) PublishCambioEstado(ctx context.Context, cambio *domain.CambioEstado) error {
	if p.err != nil {
		return p.err
	}
	p.cambios = append(p.cambios, cambio)
	return nil
}

func (p *fakePublisher) PublishLiquidacion(ctx context.Context, c *domain.Comision) error {
	if p.err != nil {
		return p.err
	}
	p.liquidaciones++
	return nil
}

func (p *fakePublisher) PublishNotificacionConductor(ctx context.Context, n out.NotificacionConductor) error {
	if p.err != nil {
		return p.err
	}
	p.notificaciones = append(p.notificaciones, n)
	return nil
}

// ---- servicio notifier ----

type fakeNotifier struct {
	online map[string]bool

	solicitudes []string // conductorID каждого уведомления new_request
	cambios     []*domain.CambioEstado
	ubicaciones int
	mensajes    int
}

func newFakeNotifier(online ...string) *fakeNotifier {
	n := &fakeNotifier{online: make(map[string]bool)}
	for _, id := range online {
		n.online[id] = true
	}
	return n
}

func (n *fakeNotifier) NotifyNuevaSolicitud(ctx context.Context, conductorID string, view domain.PriorityView) bool {
	n.solicitudes = append(n.solicitudes, conductorID)
	return n.online[conductorID]
}

func (n *fakeNotifier) NotifyCambioEstado(ctx context.Context, s *domain.Servicio, cambio *domain.CambioEstado) {
	n.cambios = append(n.cambios, cambio)
}

func (n *fakeNotifier) NotifyUbicacion(ctx context.Context, servicioID string, lat, lng float64) {
	n.ubicaciones++
}

func (n *fakeNotifier) NotifyMensajeChat(ctx context.Context, m *domain.MensajeChat) {
	n.mensajes++
}
