// Command blockfall is the multiplayer falling-block client. It connects to
// a game server, mirrors every player's board and forwards local key presses.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/client"
	"github.com/plus3/blockfall/config"
	"github.com/plus3/blockfall/debugui"
	debugui_ebiten "github.com/plus3/blockfall/debugui/ebiten"
	"github.com/plus3/blockfall/input"
	"github.com/plus3/blockfall/logging"
	"github.com/plus3/blockfall/transport"
)

const (
	screenWidth  = 960
	screenHeight = 640
	tps          = 60
)

// Game runs one session per frame and draws its boards.
type Game struct {
	session  *client.Session
	renderer *renderer
	imgui    *debugui_ebiten.ImguiBackend
	done     atomic.Bool
}

func (g *Game) Update() error {
	if g.done.Load() {
		return ebiten.Termination
	}

	if g.imgui != nil {
		g.imgui.BeginFrame()
		defer g.imgui.EndFrame()
	}

	err := g.session.Update(1.0 / tps)
	if client.IsTerminal(err) {
		if w, ok := g.session.Winner(); ok {
			log.Info().Msgf("%s has won!", w.Username)
		}
		g.done.Store(true)
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("frame failed")
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.draw(screen, g.session)
	if g.imgui != nil {
		g.imgui.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.imgui != nil {
		g.imgui.Layout(outsideWidth, outsideHeight)
		return outsideWidth, outsideHeight
	}
	return screenWidth, screenHeight
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.Setup(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := transport.Dial(ctx, cfg.ServerURL, cfg.Username, logging.Component(logger, "transport"))
	if err != nil {
		log.Fatal().Err(err).Str("server", cfg.ServerURL).Msg("could not connect")
	}
	defer conn.Close()

	session := client.NewSession(conn.Local(), client.Options{
		LockTime:     cfg.ShapeLockTime,
		BoardOptions: []board.Option{board.WithSize(cfg.GridWidth, cfg.GridHeight)},
		Logger:       logging.Component(logger, "session"),
		Keys:         input.EbitenKeys{Bindings: input.DefaultBindings()},
		Sender:       conn,
	})

	go func() {
		if err := conn.ReadLoop(ctx, session.Deliver); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("connection lost")
		}
		stop()
	}()

	renderer, err := newRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("renderer setup failed")
	}
	game := &Game{
		session:  session,
		renderer: renderer,
	}

	if cfg.Debug {
		game.imgui = debugui_ebiten.NewImguiBackend("blockfall", screenWidth, screenHeight)
		debugui.Install(session)
	} else {
		ebiten.SetWindowSize(screenWidth, screenHeight)
		ebiten.SetWindowTitle("blockfall")
	}
	ebiten.SetTPS(tps)

	go func() {
		<-ctx.Done()
		game.done.Store(true)
	}()

	log.Info().Str("server", cfg.ServerURL).Str("username", cfg.Username).Int32("conn", int32(conn.Local())).Msg("connected")
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal().Err(err).Msg("game loop failed")
	}
}
