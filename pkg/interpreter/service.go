// Package interpreter broadcasts live telegrams over websockets and
// listens to such broadcasts.
package interpreter

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var ErrGaveUp = errors.New("gave up connecting to the interpreter API")

// Variables so tests can speed up the back-off.
var (
	maxRetries     = 10
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 60 * time.Second
	pingInterval   = 30 * time.Second
	// DSMR 2.2 to 4 meters send a telegram every 10 seconds.
	readTimeout = 60 * time.Second
)

// ListenerURL is the websocket endpoint of an interpreter API at host.
func ListenerURL(host string, tlsEnabled bool) url.URL {
	scheme := "ws"
	if tlsEnabled {
		scheme = "wss"
	}
	return url.URL{Scheme: scheme, Host: host, Path: "/ws"}
}

// StartListener manages the websocket connection and calls funcToCall for
// each message. It reconnects with exponential back-off and returns nil once
// ctx is done, or ErrGaveUp after too many failed attempts in a row.
func StartListener(ctx context.Context, u url.URL, funcToCall func(message *TelegramMessage), logger logrus.FieldLogger) error {
	log := logger.WithField("url", u.String())
	retryCount := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		if retryCount > 0 {
			// Calculate retry delay with exponential backoff
			retryDelay := time.Duration(1<<(retryCount-1)) * baseRetryDelay
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
			log.Infof("Retrying connection in %v... (attempt %d/%d)", retryDelay, retryCount+1, maxRetries)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil
			}
		}

		log.Info("Connecting to interpreter API")
		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Warn("Connection failed")
			retryCount++
			if retryCount >= maxRetries {
				log.Errorf("Max retries (%d) reached. Giving up.", maxRetries)
				return ErrGaveUp
			}
			continue
		}

		log.Info("Connected! Accepting telegrams.")
		// Reset retry count on successful connection
		retryCount = 0

		handleConnection(ctx, c, funcToCall, log)
		c.Close()

		if ctx.Err() != nil {
			return nil
		}
		log.Warn("Connection lost, will retry...")
		retryCount++
	}
}

// handleConnection reads messages until the connection breaks or ctx is done.
func handleConnection(
	ctx context.Context,
	c *websocket.Conn,
	funcToCall func(message *TelegramMessage),
	log logrus.FieldLogger,
) {
	done := make(chan struct{})

	// Set read deadline to detect dead connections
	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).Warn("WebSocket error")
				} else {
					log.WithError(err).Debug("Connection closed")
				}
				return
			}

			// Reset read deadline on successful message
			c.SetReadDeadline(time.Now().Add(readTimeout))

			if messageType != websocket.TextMessage {
				log.Debugf("Received unexpected message type: %d", messageType)
				continue
			}
			msg, err := FromJSONBytes(message)
			if err != nil {
				log.WithError(err).Warn("Failed to decode telegram message")
				continue
			}
			funcToCall(msg)
		}
	}()

	// Send periodic pings to keep connection alive
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.WithError(err).Debug("Failed to send ping")
			}
		case <-ctx.Done():
			log.Info("Closing connection")
			deadline := time.Now().Add(time.Second)
			err := c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			if err != nil {
				log.WithError(err).Debug("Error sending close message")
			}
			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
