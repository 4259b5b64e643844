package speech

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleVoiceNote accepts a WebSocket connection that streams a voice note
// as binary chunks. A "done" text frame finishes the note and the recognized
// text is sent back; "reset" discards the buffered audio.
func (h *Handler) handleVoiceNote(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("voice note upgrade failed")
		return
	}
	defer conn.Close()

	var audio []byte
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("voice note connection error")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(audio)+len(data) > maxAudioBytes {
				conn.WriteJSON(map[string]string{"error": "audio too large"})
				return
			}
			audio = append(audio, data...)

		case websocket.TextMessage:
			switch strings.TrimSpace(string(data)) {
			case "reset":
				audio = audio[:0]
			case "done":
				if len(audio) == 0 {
					conn.WriteJSON(map[string]string{"error": "no audio received"})
					continue
				}
				result, err := h.speechSvc.Transcribe(r.Context(), audio, "voice-note.webm")
				if err != nil {
					log.Error().Err(err).Msg("voice note transcription failed")
					conn.WriteJSON(map[string]string{"error": "could not transcribe audio"})
					continue
				}
				conn.WriteJSON(result)
				audio = audio[:0]
			}
		}
	}
}
