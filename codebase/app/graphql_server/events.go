package graphqlserver

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/pubsub"
	"github.com/golangid/meshserve/wrapper"
	"github.com/gorilla/websocket"
)

const eventBufferSize = 64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventMessage struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// serveEvents stream pubsub events of subgraph topic over websocket until client leaves or destroy is published
func (h *handler) serveEvents(w http.ResponseWriter, req *http.Request) {
	ps := h.opt.pubsub
	if ps == nil {
		wrapper.NewHTTPResponse(http.StatusNotFound, "Events are not enabled").JSON(w)
		return
	}

	name, _ := h.subgraphFromContext(req.Context())
	topic := req.URL.Query().Get("topic")
	if topic == "" {
		wrapper.NewHTTPResponse(http.StatusBadRequest, "Query param topic is required").JSON(w)
		return
	}
	if !strings.HasPrefix(topic, name+":") {
		topic = name + ":" + topic
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.opt.logger.Errorf("events upgrade: %v", err)
		return
	}
	defer conn.Close()

	events := make(chan interface{}, eventBufferSize)
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(done) }) }

	eventID, err := ps.Subscribe(topic, func(payload interface{}) {
		select {
		case events <- payload:
		case <-done:
		default:
			h.opt.logger.Warn(fmt.Sprintf("events %s: slow consumer, event dropped", topic))
		}
	})
	if err != nil {
		writeClose(conn, websocket.CloseInternalServerErr, err.Error())
		return
	}
	defer ps.Unsubscribe(eventID)

	destroyID, err := ps.Subscribe(pubsub.TopicDestroy, func(interface{}) { stop() })
	if err != nil {
		writeClose(conn, websocket.CloseInternalServerErr, err.Error())
		return
	}
	defer ps.Unsubscribe(destroyID)

	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload := <-events:
			message := candihelper.ToBytes(eventMessage{Topic: topic, Payload: payload})
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.opt.logger.Errorf("events %s: %v", topic, err)
				return
			}
		case <-done:
			writeClose(conn, websocket.CloseGoingAway, "")
			return
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}
