package signal

const (
	eventPing = "PING"
	eventPong = "PONG"
)

func (h *Hub) handlePing(conn *wsConn) {
	h.sendJSON(conn, envelope{Type: eventPong})
}
