package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/client"
	"github.com/plus3/blockfall/logging"
	"github.com/plus3/blockfall/protocol"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	players := flag.Int("players", 4, "The number of boards to replicate.")
	batch := flag.Int("batch", 16, "Piece turns delivered per frame.")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for the packet stream.")
	wire := flag.Bool("wire", true, "Round-trip every packet through the msgpack codec.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	logLevel := flag.String("log-level", "info", "Log level.")
	flag.Parse()

	logging.Setup(os.Stderr, *logLevel)

	if *players < 1 || *players > 8 {
		log.Fatal().Int("players", *players).Msg("players must be between 1 and 8")
	}

	log.Info().Msg("Starting dispatch stress test...")

	gen := newGenerator(*seed, *players, board.DefaultWidth, board.DefaultHeight)
	session := client.NewSession(gen.local, client.Options{
		LockTime: 500 * time.Millisecond,
		Logger:   logging.Component(log.Logger, "session").Level(zerolog.ErrorLevel),
	})

	report := &Report{
		Duration:       *duration,
		Players:        *players,
		Batch:          *batch,
		Seed:           *seed,
		Wire:           *wire,
		GCPauseMetrics: *gcPauseMetrics,
	}

	deliver := func(packets []protocol.Packet) {
		for _, p := range packets {
			if *wire {
				data, err := protocol.Encode(p)
				if err != nil {
					log.Fatal().Err(err).Stringer("packet", p.Kind()).Msg("encode failed")
				}
				report.WireBytes += int64(len(data))
				if p, err = protocol.DecodePacket(data); err != nil {
					log.Fatal().Err(err).Msg("decode failed")
				}
			}
			session.Deliver(p)
			report.Packets++
		}
	}

	deliver(gen.handshake())

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info().Dur("duration", *duration).Msg("Running dispatch loop")
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			for range *batch {
				deliver(gen.turn())
			}

			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			err := session.Update(deltaTime.Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
			if err != nil {
				log.Warn().Err(err).Msg("session ended early")
				break Loop
			}
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Systems = session.Scheduler().GetStats().Systems
	report.Lost = countLost(session)
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Info().Msg("Dispatch loop finished.")

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate report")
	}
	fmt.Println("--- End of Report ---")
}
