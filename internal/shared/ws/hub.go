package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"

	"github.com/gorilla/websocket"
)

const (
	// authTimeout — максимальное время ожидания аутентификации после подключения
	authTimeout = 5 * time.Second

	// sweepInterval — период проверки живости соединений.
	// Клиент, не ответивший на пробу за один цикл, удаляется на следующем,
	// поэтому реестр отстает от реальности не более чем на два интервала.
	sweepInterval = 30 * time.Second

	pongWait       = 60 * time.Second
	maxMessageSize = 8192
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Conn — минимальный срез *websocket.Conn, который нужен реестру.
// Нужен чтобы в тестах подменять соединение фейком.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// AuthFunc валидирует токен первого сообщения.
// Возвращает userID, role, error.
type AuthFunc func(token string) (userID, role string, err error)

// MessageHandler вызывается для каждого входящего сообщения клиента.
type MessageHandler func(client *Client, messageType string, data json.RawMessage) error

// JoinAuthorizer решает, может ли пользователь подписаться на сервис.
// Делегирует проверку read-path машины состояний (клиент или назначенный водитель).
type JoinAuthorizer func(ctx context.Context, servicioID, userID, role string) bool

// Client представляет одно WebSocket соединение.
type Client struct {
	ID     string
	UserID string
	Role   string // cliente | conductor | admin
	conn   Conn
	send   chan []byte
	hub    *Hub
	log    *logger.Logger

	// alive сбрасывается пробой и подтверждается pong'ом; читается только свипом
	alive    bool
	lastPong time.Time
}

// Send ставит сообщение в исходящую очередь клиента. Best-effort:
// при переполненном буфере сообщение отбрасывается.
func (c *Client) Send(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// SendJSON сериализует и отправляет typed-сообщение.
func (c *Client) SendJSON(msgType string, data any) error {
	b, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	if err != nil {
		return err
	}
	if !c.Send(b) {
		return fmt.Errorf("send buffer full for client %s", c.ID)
	}
	return nil
}

// Hub — реестр всех активных соединений: кто сейчас доступен.
// Карты мутируются только методами Hub под mu; снаружи прямого доступа нет.
type Hub struct {
	clients map[string]*Client // by connection id

	// conductores: не более одного живого соединения на водителя.
	// Повторная регистрация того же id заменяет старую ссылку.
	conductores map[string]*Client

	// suscripciones: servicio id -> подписанные соединения (клиент + водитель)
	suscripciones map[string]map[*Client]struct{}

	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client

	authFunc       AuthFunc
	messageHandler MessageHandler
	joinAuthorizer JoinAuthorizer
	log            *logger.Logger
}

// NewHub создает новый реестр соединений.
// После создания нужно установить MessageHandler и JoinAuthorizer,
// затем запустить hub.Run(ctx) в горутине.
func NewHub(authFunc AuthFunc, log *logger.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		conductores:   make(map[string]*Client),
		suscripciones: make(map[string]map[*Client]struct{}),
		register:      make(chan *Client, 10),
		unregister:    make(chan *Client, 10),
		authFunc:      authFunc,
		log:           log,
	}
}

// SetMessageHandler устанавливает обработчик входящих сообщений.
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.messageHandler = handler
}

// SetJoinAuthorizer устанавливает проверку доступа для join_service.
func (h *Hub) SetJoinAuthorizer(authz JoinAuthorizer) {
	h.joinAuthorizer = authz
}

// Run запускает главный цикл хаба: регистрация, отключение, heartbeat sweep.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info(logger.Entry{Action: "hub_stopped", Message: "websocket hub stopped"})
			return

		case client := <-h.register:
			h.mu.Lock()
			client.alive = true
			client.lastPong = time.Now()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.log.Info(logger.Entry{
				Action:  "client_registered",
				Message: client.ID,
				Additional: map[string]any{
					"user_id": client.UserID,
					"role":    client.Role,
				},
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep — heartbeat: клиент, не подтвердивший предыдущую пробу,
// закрывается принудительно; остальные помечаются неподтвержденными
// и получают новую пробу.
func (h *Hub) sweep() {
	// lastPong снимается под mu: после разблокировки его пишет MarkAlive
	type staleClient struct {
		c        *Client
		lastPong time.Time
	}

	h.mu.Lock()
	var stale []staleClient
	var probe []*Client
	for _, c := range h.clients {
		if !c.alive {
			stale = append(stale, staleClient{c: c, lastPong: c.lastPong})
			continue
		}
		c.alive = false
		probe = append(probe, c)
	}
	h.mu.Unlock()

	for _, s := range stale {
		h.log.Info(logger.Entry{
			Action:  "heartbeat_timeout",
			Message: s.c.ID,
			Additional: map[string]any{
				"user_id":   s.c.UserID,
				"role":      s.c.Role,
				"last_pong": s.lastPong.UTC().Format(time.RFC3339),
			},
		})
		_ = s.c.conn.Close()
		h.removeClient(s.c)
	}

	ping, _ := json.Marshal(map[string]any{"type": "ping", "data": map[string]any{}})
	for _, c := range probe {
		c.Send(ping)
	}
}

// MarkAlive подтверждает живость соединения (pong-сообщение или pong-фрейм).
func (h *Hub) MarkAlive(c *Client) {
	h.mu.Lock()
	c.alive = true
	c.lastPong = time.Now()
	h.mu.Unlock()
}

// RegisterConductor индексирует соединение по id водителя.
// Старое соединение того же водителя просто вытесняется из индекса:
// логическая сессия у водителя одна.
func (h *Hub) RegisterConductor(conductorID string, c *Client) {
	h.mu.Lock()
	h.conductores[conductorID] = c
	h.mu.Unlock()
	h.log.Info(logger.Entry{
		Action:  "conductor_registered",
		Message: conductorID,
		Additional: map[string]any{
			"client_id": c.ID,
		},
	})
}

// Conductor возвращает живое соединение водителя, если есть.
func (h *Hub) Conductor(conductorID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conductores[conductorID]
}

// Join подписывает соединение на обновления сервиса. Неавторизованная
// попытка — no-op, заметный только в логах: наружу не возвращается ошибка,
// чтобы не раскрывать существование сервиса.
func (h *Hub) Join(ctx context.Context, servicioID string, c *Client) {
	if h.joinAuthorizer != nil && !h.joinAuthorizer(ctx, servicioID, c.UserID, c.Role) {
		h.log.Warn(logger.Entry{
			Action:     "join_denied",
			Message:    servicioID,
			ServicioID: servicioID,
			Additional: map[string]any{
				"user_id": c.UserID,
				"role":    c.Role,
			},
		})
		return
	}

	h.mu.Lock()
	set, ok := h.suscripciones[servicioID]
	if !ok {
		set = make(map[*Client]struct{})
		h.suscripciones[servicioID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.log.Info(logger.Entry{
		Action:     "servicio_joined",
		Message:    servicioID,
		ServicioID: servicioID,
		Additional: map[string]any{
			"user_id": c.UserID,
			"role":    c.Role,
		},
	})
}

// Leave удаляет подписку сервиса целиком (терминальное состояние).
func (h *Hub) Leave(servicioID string) {
	h.mu.Lock()
	delete(h.suscripciones, servicioID)
	h.mu.Unlock()
}

// removeClient убирает соединение отовсюду: из реестра, из индекса
// водителей и из всех наборов подписчиков. Пустые наборы удаляются.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	for id, indexed := range h.conductores {
		if indexed == c {
			delete(h.conductores, id)
		}
	}
	for servicioID, set := range h.suscripciones {
		if _, ok := set[c]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.suscripciones, servicioID)
			}
		}
	}
	h.mu.Unlock()

	h.log.Info(logger.Entry{
		Action:  "client_unregistered",
		Message: c.ID,
		Additional: map[string]any{
			"user_id": c.UserID,
		},
	})
}

// SendToServicio отправляет сообщение всем подписчикам сервиса.
// Best-effort, at-most-once: переполненный буфер — пропущенная доставка.
func (h *Hub) SendToServicio(servicioID string, message []byte) {
	h.mu.RLock()
	set := h.suscripciones[servicioID]
	subscribers := make([]*Client, 0, len(set))
	for c := range set {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	for _, c := range subscribers {
		if !c.Send(message) {
			h.log.Warn(logger.Entry{
				Action:     "servicio_send_dropped",
				Message:    servicioID,
				ServicioID: servicioID,
				Additional: map[string]any{
					"client_id": c.ID,
				},
			})
		}
	}
}

// SendToServicioJSON — typed-вариант SendToServicio.
func (h *Hub) SendToServicioJSON(servicioID, msgType string, data any) error {
	b, err := json.Marshal(map[string]any{"type": msgType, "data": data})
	if err != nil {
		return err
	}
	h.SendToServicio(servicioID, b)
	return nil
}

// SendToConductor отправляет сообщение водителю по его id, если он онлайн.
// Отсутствие живого соединения — не ошибка, просто пропуск.
func (h *Hub) SendToConductor(conductorID, msgType string, data any) bool {
	c := h.Conductor(conductorID)
	if c == nil {
		return false
	}
	return c.SendJSON(msgType, data) == nil
}

// ConductoresOnline возвращает ids водителей с живым соединением.
func (h *Hub) ConductoresOnline() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.conductores))
	for id := range h.conductores {
		ids = append(ids, id)
	}
	return ids
}

// ServeWS обрабатывает HTTP запрос на WebSocket соединение.
// Upgrade без валидной сессии отклоняется до установления канала.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(logger.Entry{
			Action:  "ws_upgrade_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	clientID := fmt.Sprintf("ws_%d", time.Now().UnixNano())

	client := &Client{
		ID:   clientID,
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
		log:  h.log,
	}

	_ = conn.SetReadDeadline(time.Now().Add(authTimeout))

	var authMsg struct {
		Token string `json:"token"`
	}
	if err := conn.ReadJSON(&authMsg); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "auth timeout"))
		_ = conn.Close()
		h.log.Error(logger.Entry{
			Action:  "ws_auth_failed",
			Message: "no auth message received",
		})
		return
	}

	userID, role, err := h.authFunc(authMsg.Token)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{
			"type": "authenticated",
			"data": map[string]any{"success": false},
		})
		_ = conn.Close()
		h.log.Error(logger.Entry{
			Action:  "ws_auth_invalid_token",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	client.UserID = userID
	client.Role = role

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		h.MarkAlive(client)
		return nil
	})

	h.register <- client

	_ = conn.WriteJSON(map[string]any{
		"type": "authenticated",
		"data": map[string]any{
			"success":  true,
			"userId":   userID,
			"userType": role,
		},
	})

	go client.writePump()
	go client.readPump()
}

// readPump читает входящие сообщения клиента в порядке прихода.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error(logger.Entry{
					Action:  "ws_read_error",
					Message: c.ID,
					Error:   &logger.ErrObj{Msg: err.Error()},
				})
			}
			break
		}

		// Любое входящее сообщение продлевает дедлайн чтения: проба свипа
		// приходит каждые 30s, так что живой клиент читается чаще pongWait.
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data,omitempty"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Error(logger.Entry{
				Action:  "ws_parse_message_error",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
				Additional: map[string]any{
					"client_id": c.ID,
					"raw":       string(message),
				},
			})
			continue
		}

		if c.hub.messageHandler != nil {
			if err := c.hub.messageHandler(c, msg.Type, msg.Data); err != nil {
				c.log.Error(logger.Entry{
					Action:  "ws_handle_message_error",
					Message: err.Error(),
					Error:   &logger.ErrObj{Msg: err.Error()},
					Additional: map[string]any{
						"client_id": c.ID,
						"msg_type":  msg.Type,
					},
				})
			}
		}
	}
}

// writePump отправляет сообщения клиенту.
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	// Hub закрыл канал
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
