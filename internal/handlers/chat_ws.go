package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/models"
)

const (
	chatWSReadLimit = 64 << 10
	chatWSIdle      = 60 * time.Minute
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// chatWSInMessage is the JSON shape sent from the client.
type chatWSInMessage struct {
	Type string `json:"type"`
	models.AskRequest
}

// chatWSOutMessage is the JSON shape sent to the client.
type chatWSOutMessage struct {
	Type     string                      `json:"type"`
	Response *models.SendMessageResponse `json:"response,omitempty"`
	Error    string                      `json:"error,omitempty"`
}

// ChatWS handles GET /ws/chat. Each "ask" frame is answered with one "answer" frame; files are HTTP-only.
func (h *Handler) ChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("chat ws upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(chatWSReadLimit)
	conn.SetReadDeadline(time.Now().Add(chatWSIdle))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(chatWSIdle))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Debug().Err(err).Msg("chat ws read")
			return
		}
		conn.SetReadDeadline(time.Now().Add(chatWSIdle))

		out := h.answerFrame(r, raw)
		if err := writeWSJSON(conn, out); err != nil {
			log.Debug().Err(err).Msg("chat ws write")
			return
		}
	}
}

func (h *Handler) answerFrame(r *http.Request, raw []byte) chatWSOutMessage {
	var in chatWSInMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return chatWSOutMessage{Type: "answer", Error: "invalid JSON: " + err.Error()}
	}
	if in.Type != "ask" {
		return chatWSOutMessage{Type: "answer", Error: "expected type: ask"}
	}

	req, err := toSendMessageRequest(in.AskRequest, nil)
	if err != nil {
		return chatWSOutMessage{Type: "answer", Error: err.Error()}
	}
	resp, err := h.chats.SendMessage(r.Context(), req)
	if err != nil {
		return chatWSOutMessage{Type: "answer", Error: err.Error()}
	}
	return chatWSOutMessage{Type: "answer", Response: resp}
}

func writeWSJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	return conn.WriteJSON(v)
}
