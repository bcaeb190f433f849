package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn подменяет *websocket.Conn в тестах реестра.
type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error)            { return 0, nil, nil }
func (f *fakeConn) WriteMessage(messageType int, _ []byte) error { return nil }
func (f *fakeConn) SetReadLimit(int64)                           {}
func (f *fakeConn) SetReadDeadline(time.Time) error              { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error             { return nil }
func (f *fakeConn) SetPongHandler(func(string) error)            {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestHub() *Hub {
	return NewHub(func(string) (string, string, error) {
		return "", "", nil
	}, logger.NewLogger("test"))
}

// addClient вставляет соединение в реестр напрямую, минуя ServeWS.
func addClient(h *Hub, id, userID, role string) *Client {
	c := &Client{
		ID:       id,
		UserID:   userID,
		Role:     role,
		conn:     &fakeConn{},
		send:     make(chan []byte, 8),
		hub:      h,
		log:      h.log,
		alive:    true,
		lastPong: time.Now(),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	return c
}

func recibido(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	default:
		t.Fatal("no message queued")
		return nil
	}
}

func sinMensajes(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected message: %s", raw)
	default:
	}
}

func TestRegisterConductorReemplazaConexion(t *testing.T) {
	h := newTestHub()

	viejo := addClient(h, "ws_1", "cond-1", "conductor")
	h.RegisterConductor("cond-1", viejo)
	require.Same(t, viejo, h.Conductor("cond-1"))

	// повторная регистрация того же водителя вытесняет старую ссылку
	nuevo := addClient(h, "ws_2", "cond-1", "conductor")
	h.RegisterConductor("cond-1", nuevo)

	assert.Same(t, nuevo, h.Conductor("cond-1"))

	ok := h.SendToConductor("cond-1", "new_request", map[string]any{"servicioId": "srv-1"})
	require.True(t, ok)

	msg := recibido(t, nuevo)
	assert.Equal(t, "new_request", msg["type"])
	sinMensajes(t, viejo)
}

func TestSendToConductorOffline(t *testing.T) {
	h := newTestHub()
	assert.False(t, h.SendToConductor("cond-desconocido", "new_request", nil))
}

func TestSweepEvictaTrasDosIntervalos(t *testing.T) {
	h := newTestHub()
	c := addClient(h, "ws_cond-1", "cond-1", "conductor")
	h.RegisterConductor("cond-1", c)
	h.Join(context.Background(), "srv-1", c)

	// первый цикл: клиент жив, получает пробу и помечается неподтвержденным
	h.sweep()
	msg := recibido(t, c)
	assert.Equal(t, "ping", msg["type"])
	assert.False(t, c.alive)

	// второй цикл без pong: соединение закрыто и вычищено отовсюду
	h.sweep()

	fc := c.conn.(*fakeConn)
	assert.True(t, fc.isClosed())
	assert.Nil(t, h.Conductor("cond-1"))

	h.mu.RLock()
	_, enRegistro := h.clients[c.ID]
	_, suscrito := h.suscripciones["srv-1"]
	h.mu.RUnlock()
	assert.False(t, enRegistro)
	assert.False(t, suscrito)

	// вытесненный водитель больше не получает сообщений
	assert.False(t, h.SendToConductor("cond-1", "new_request", nil))
}

func TestSweepMarkAliveSobrevive(t *testing.T) {
	h := newTestHub()
	c := addClient(h, "ws_cond-1", "cond-1", "conductor")

	h.sweep()
	recibido(t, c) // ping
	h.MarkAlive(c) // pong-сообщение клиента

	h.sweep()
	msg := recibido(t, c)
	assert.Equal(t, "ping", msg["type"])

	h.mu.RLock()
	_, enRegistro := h.clients[c.ID]
	h.mu.RUnlock()
	assert.True(t, enRegistro)
}

// MarkAlive и свип работают из разных горутин; все чтения и записи
// alive/lastPong должны идти под mu.
func TestSweepConcurrenteConMarkAlive(t *testing.T) {
	h := newTestHub()
	c := addClient(h, "ws_cond-1", "cond-1", "conductor")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.MarkAlive(c)
		}
	}()

	for i := 0; i < 20; i++ {
		h.sweep()
		select {
		case <-c.send: // дренируем пробу, буфер не переполняется
		default:
		}
	}
	wg.Wait()
}

func TestJoinAutorizacion(t *testing.T) {
	h := newTestHub()
	h.SetJoinAuthorizer(func(_ context.Context, servicioID, userID, _ string) bool {
		return userID == "cli-1"
	})

	dueno := addClient(h, "ws_cli-1", "cli-1", "cliente")
	ajeno := addClient(h, "ws_cli-2", "cli-2", "cliente")

	h.Join(context.Background(), "srv-1", dueno)
	h.Join(context.Background(), "srv-1", ajeno) // denegado, no-op

	require.NoError(t, h.SendToServicioJSON("srv-1", "service_status_change", map[string]any{"estado": "aceptado"}))

	msg := recibido(t, dueno)
	assert.Equal(t, "service_status_change", msg["type"])
	sinMensajes(t, ajeno)
}

func TestLeaveEliminaSuscripcion(t *testing.T) {
	h := newTestHub()
	cliente := addClient(h, "ws_cli-1", "cli-1", "cliente")
	conductor := addClient(h, "ws_cond-1", "cond-1", "conductor")

	h.Join(context.Background(), "srv-1", cliente)
	h.Join(context.Background(), "srv-1", conductor)

	h.Leave("srv-1")

	require.NoError(t, h.SendToServicioJSON("srv-1", "service_status_change", nil))
	sinMensajes(t, cliente)
	sinMensajes(t, conductor)
}

func TestRemoveClientLimpiaIndices(t *testing.T) {
	h := newTestHub()
	c := addClient(h, "ws_cond-1", "cond-1", "conductor")
	otro := addClient(h, "ws_cli-1", "cli-1", "cliente")
	h.RegisterConductor("cond-1", c)
	h.Join(context.Background(), "srv-1", c)
	h.Join(context.Background(), "srv-1", otro)

	h.removeClient(c)

	assert.Nil(t, h.Conductor("cond-1"))

	h.mu.RLock()
	_, enRegistro := h.clients[c.ID]
	set := h.suscripciones["srv-1"]
	h.mu.RUnlock()
	assert.False(t, enRegistro)
	require.Len(t, set, 1)
	_, quedaOtro := set[otro]
	assert.True(t, quedaOtro)

	// канал закрыт: повторное удаление не должно паниковать
	h.removeClient(c)
}

func TestSendBufferLleno(t *testing.T) {
	h := newTestHub()
	c := &Client{
		ID:   "ws_lento",
		conn: &fakeConn{},
		send: make(chan []byte, 1),
		hub:  h,
		log:  h.log,
	}

	require.True(t, c.Send([]byte("uno")))
	// буфер полон: доставка best-effort, сообщение отбрасывается
	assert.False(t, c.Send([]byte("dos")))
	assert.Error(t, c.SendJSON("ping", nil))
}

func TestConductoresOnline(t *testing.T) {
	h := newTestHub()
	assert.Empty(t, h.ConductoresOnline())

	c1 := addClient(h, "ws_cond-1", "cond-1", "conductor")
	c2 := addClient(h, "ws_cond-2", "cond-2", "conductor")
	h.RegisterConductor("cond-1", c1)
	h.RegisterConductor("cond-2", c2)

	ids := h.ConductoresOnline()
	assert.ElementsMatch(t, []string{"cond-1", "cond-2"}, ids)
}
