// Command dumb-bot plays one seat of a session over the websocket using the
// same move choice as the server bot.
package main

import (
	"net/url"
	"os"

	"ludo-arena/internal/config"
	"ludo-arena/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(logCfg); err != nil {
		panic(err)
	}
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	u, err := url.Parse(cfg.WSURL)
	if err != nil {
		log.Fatal().Err(err).Str("ws_url", cfg.WSURL).Msg("bad ws url")
	}
	q := u.Query()
	q.Set("session_id", cfg.SessionID)
	q.Set("user_id", cfg.UserID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", u.String()).Msg("dial failed")
	}
	defer conn.Close()
	log.Info().Str("session_id", cfg.SessionID).Str("user_id", cfg.UserID).Msg("bot connected")

	p := newPlayer(cfg.UserID)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("connection closed")
			return
		}
		reply, done := p.handle(data)
		if reply != nil {
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				log.Error().Err(err).Msg("write failed")
				return
			}
		}
		if done {
			log.Info().Str("winner", p.winner).Msg("game over")
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			os.Exit(0)
		}
	}
}
