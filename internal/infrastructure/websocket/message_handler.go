package websocket

import (
	"encoding/json"
	"time"

	"storefront/pkg/logger"
)

// Client to server frames.
const (
	MessageTypePing         = "ping"
	MessageTypeAuth         = "auth"
	MessageTypeSetRating    = "set_rating"
	MessageTypeSetText      = "set_text"
	MessageTypeSubmitReview = "submit_review"
	MessageTypeDeleteReview = "delete_review"
	MessageTypeBuyNow       = "buy_now"
	MessageTypeSelect       = "select"
)

// Server to client frames.
const (
	MessageTypePong     = "pong"
	MessageTypeState    = "state"
	MessageTypeCard     = "card"
	MessageTypeNavigate = "navigate"
	MessageTypeError    = "error"

	// MessageTypeSignedOut follows a logout made on another channel.
	MessageTypeSignedOut = "signed_out"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type AuthData struct {
	Token string `json:"token"`
}

type SetRatingData struct {
	Rating int `json:"rating"`
}

type SetTextData struct {
	Text string `json:"text"`
}

type DeleteReviewData struct {
	ReviewID string `json:"review_id"`
}

type SelectData struct {
	ProductID string `json:"product_id"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageHandler serves the frames of one connection. Ping is answered by the
// client itself and never reaches the handler.
type MessageHandler interface {
	HandleMessage(client *Client, message WSMessage)
}

// DecodeData re-reads a frame's data into out.
func DecodeData(message WSMessage, out interface{}) error {
	dataBytes, err := json.Marshal(message.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(dataBytes, out)
}

func (c *Client) handleFrame(h MessageHandler, messageBytes []byte) {
	var wsMessage WSMessage
	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		logger.Debug("WebSocket: failed to unmarshal frame from %s: %v", c.ID, err)
		c.SendError("BAD_REQUEST", "Invalid message format")
		return
	}

	if wsMessage.Type == MessageTypePing {
		c.SendMessage(MessageTypePong, map[string]string{"status": "alive"})
		return
	}

	h.HandleMessage(c, wsMessage)
}

// SendMessage wraps data in a frame and queues it.
func (c *Client) SendMessage(messageType string, data interface{}) bool {
	messageBytes, err := json.Marshal(WSMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s frame: %v", messageType, err)
		return false
	}
	return c.Enqueue(messageBytes)
}

func (c *Client) SendError(code, message string) bool {
	return c.SendMessage(MessageTypeError, ErrorData{Code: code, Message: message})
}
