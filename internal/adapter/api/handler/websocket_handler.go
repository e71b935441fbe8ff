package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"storefront/internal/adapter/api/middleware"
	"storefront/internal/domain/entity"
	ws "storefront/internal/infrastructure/websocket"
	"storefront/internal/usecase"
	"storefront/internal/view"
	apperrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/response"
	"storefront/pkg/utils"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler mounts product page and product grid views on websocket
// connections. Closing the connection unmounts the view.
type WebSocketHandler struct {
	wsManager      *ws.Manager
	sessions       middleware.SessionResolver
	productUseCase *usecase.ProductUseCase
	reviews        view.ReviewService
	limiter        usecase.ActionLimiter
	overlayDelay   time.Duration
}

var webSocketHandler *WebSocketHandler

func NewWebSocketHandler(
	wsManager *ws.Manager,
	sessions middleware.SessionResolver,
	productUseCase *usecase.ProductUseCase,
	reviews view.ReviewService,
	limiter usecase.ActionLimiter,
	overlayDelay time.Duration,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		sessions:       sessions,
		productUseCase: productUseCase,
		reviews:        reviews,
		limiter:        limiter,
		overlayDelay:   overlayDelay,
	}
}

func SetupWebSocketHandler(h *WebSocketHandler) {
	webSocketHandler = h
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

// HandleProductView serves GET /ws/products/:id.
func (h *WebSocketHandler) HandleProductView(c echo.Context) error {
	product, err := h.productUseCase.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	session := middleware.Session(c)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket: upgrade failed: %v", err)
		return nil
	}

	client := ws.NewClient(conn)
	if session != nil {
		client.SetUserID(session.UID)
	}
	if !h.wsManager.Add(client) {
		conn.Close()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	pv, err := view.NewProductView(ctx, product, session, view.ProductViewConfig{
		Reviews:      h.reviews,
		Limiter:      h.limiter,
		OverlayDelay: h.overlayDelay,
		Emit: func(state view.ProductState) {
			client.SendMessage(ws.MessageTypeState, state)
		},
		Navigate: func(nav view.Navigation) {
			client.SendMessage(ws.MessageTypeNavigate, nav)
		},
	})
	if err != nil {
		cancel()
		sendError(client, err)
		h.wsManager.Drop(client)
		go client.WritePump()
		return nil
	}

	client.OnSignOut(func() { pv.SetSession(nil) })
	s := &productSession{ctx: ctx, view: pv, sessions: h.sessions}

	go client.WritePump()
	go func() {
		client.ReadPump(h.wsManager, s)
		pv.Close()
		cancel()
	}()
	return nil
}

// HandleProductGrid serves GET /ws/products.
func (h *WebSocketHandler) HandleProductGrid(c echo.Context) error {
	params := utils.GetPaginationParams(c)
	products, _, err := h.productUseCase.ListProducts(c.Request().Context(), productFilter(c), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket: upgrade failed: %v", err)
		return nil
	}

	client := ws.NewClient(conn)
	if session := middleware.Session(c); session != nil {
		client.SetUserID(session.UID)
	}
	if !h.wsManager.Add(client) {
		conn.Close()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	grid, err := view.NewProductGrid(ctx, products, h.reviews, func(card view.CardState) {
		client.SendMessage(ws.MessageTypeCard, card)
	})
	if err != nil {
		cancel()
		sendError(client, err)
		h.wsManager.Drop(client)
		go client.WritePump()
		return nil
	}
	client.SendMessage(ws.MessageTypeState, grid.State())

	s := &gridSession{ctx: ctx, grid: grid, sessions: h.sessions}

	go client.WritePump()
	go func() {
		client.ReadPump(h.wsManager, s)
		grid.Close()
		cancel()
	}()
	return nil
}

// SignOutUser ends the user's session on every open view.
func (h *WebSocketHandler) SignOutUser(uid string) int {
	return h.wsManager.SignOutUser(uid)
}

type productSession struct {
	ctx      context.Context
	view     *view.ProductView
	sessions middleware.SessionResolver
}

func (s *productSession) HandleMessage(client *ws.Client, message ws.WSMessage) {
	switch message.Type {
	case ws.MessageTypeAuth:
		session, ok := authenticate(s.ctx, s.sessions, client, message)
		if ok {
			s.view.SetSession(session)
		}

	case ws.MessageTypeSetRating:
		var data ws.SetRatingData
		if !decode(client, message, &data) {
			return
		}
		if err := s.view.SetRating(data.Rating); err != nil {
			sendError(client, err)
		}

	case ws.MessageTypeSetText:
		var data ws.SetTextData
		if !decode(client, message, &data) {
			return
		}
		s.view.SetText(data.Text)

	case ws.MessageTypeSubmitReview:
		if _, err := s.view.SubmitReview(); err != nil {
			sendError(client, err)
		}

	case ws.MessageTypeDeleteReview:
		var data ws.DeleteReviewData
		if !decode(client, message, &data) {
			return
		}
		if err := s.view.DeleteReview(data.ReviewID); err != nil {
			sendError(client, err)
		}

	case ws.MessageTypeBuyNow:
		if _, err := s.view.BuyNow(); err != nil {
			sendError(client, err)
		}

	default:
		client.SendError(apperrors.CodeBadRequest, "Unknown message type")
	}
}

type gridSession struct {
	ctx      context.Context
	grid     *view.ProductGrid
	sessions middleware.SessionResolver
}

func (s *gridSession) HandleMessage(client *ws.Client, message ws.WSMessage) {
	switch message.Type {
	case ws.MessageTypeAuth:
		authenticate(s.ctx, s.sessions, client, message)

	case ws.MessageTypeSelect:
		var data ws.SelectData
		if !decode(client, message, &data) {
			return
		}
		nav, err := s.grid.Select(data.ProductID)
		if err != nil {
			sendError(client, err)
			return
		}
		client.SendMessage(ws.MessageTypeNavigate, nav)

	default:
		client.SendError(apperrors.CodeBadRequest, "Unknown message type")
	}
}

// authenticate applies an auth frame. An empty token signs the connection out.
func authenticate(ctx context.Context, sessions middleware.SessionResolver, client *ws.Client, message ws.WSMessage) (*entity.UserSession, bool) {
	var data ws.AuthData
	if !decode(client, message, &data) {
		return nil, false
	}
	if data.Token == "" {
		client.SetUserID("")
		return nil, true
	}

	session, err := sessions.ResolveSession(ctx, data.Token)
	if err != nil {
		sendError(client, err)
		return nil, false
	}
	client.SetUserID(session.UID)
	return session, true
}

func decode(client *ws.Client, message ws.WSMessage, out interface{}) bool {
	if err := ws.DecodeData(message, out); err != nil {
		client.SendError(apperrors.CodeBadRequest, "Invalid message data")
		return false
	}
	return true
}

func sendError(client *ws.Client, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		client.SendError(appErr.Code, appErr.Message)
		return
	}

	logger.Error("%s", logger.WithContext("client "+client.ID, "WebSocket: %v", err))
	code := apperrors.CodeOf(err)
	client.SendError(code, "Something went wrong, please try again")
}
