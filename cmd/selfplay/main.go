package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/skirmish/internal/ai"
	"github.com/freeeve/skirmish/internal/config"
	"github.com/freeeve/skirmish/internal/episodes"
	"github.com/freeeve/skirmish/internal/learner"
	"github.com/freeeve/skirmish/internal/logger"
	"github.com/freeeve/skirmish/internal/sim"
	"github.com/freeeve/skirmish/pkg/rts"
)

func main() {
	godotenv.Load()
	logger.Init()

	var (
		numEpisodes int
		aiArgs      string
		opponent    string
		learnerURL  string
		modelPath   string
		frames      int
		frameSkip   int
		fow         bool
		maxTicks    int
		seed        int64
		runID       string
		record      bool
		jsonOut     bool
	)

	flag.IntVar(&numEpisodes, "n", 1, "Number of episodes to run")
	flag.StringVar(&aiArgs, "ai", "start/500|decay/0.9|backup/ai_simple", "Mixed AI option string (key/value pairs separated by |)")
	flag.StringVar(&opponent, "opponent", "ai_hit_and_run", "Opponent strategy name")
	flag.StringVar(&learnerURL, "learner", "", "ws:// URL of the decision process (or LEARNER_URL env)")
	flag.StringVar(&modelPath, "model", "", "Local ONNX policy model path (or MODEL_PATH env)")
	flag.IntVar(&frames, "frames", 4, "Frames kept in the trained agent's history")
	flag.IntVar(&frameSkip, "frame-skip", 1, "Act every N ticks")
	flag.BoolVar(&fow, "fow", true, "Respect fog of war in feature extraction")
	flag.IntVar(&maxTicks, "max-ticks", 2000, "Tick cap per episode before a draw")
	flag.Int64Var(&seed, "seed", 0, "Handoff threshold seed (0 = wall clock)")
	flag.StringVar(&runID, "run", "", "Run identifier for recorded episodes")
	flag.BoolVar(&record, "record", false, "Record episodes to Postgres and Redis")
	flag.BoolVar(&jsonOut, "json", false, "Output summary as JSON")
	flag.Parse()

	cfg := config.Load()
	if learnerURL == "" {
		learnerURL = cfg.LearnerURL
	}
	if modelPath == "" {
		modelPath = cfg.ModelPath
	}
	if runID == "" {
		runID = fmt.Sprintf("run-%d", time.Now().Unix())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	opts := ai.Options{Name: "mixed", FrameSkip: frameSkip, FOW: fow, Frames: frames, Args: aiArgs}

	var mopts []ai.MixedOption
	if seed != 0 {
		mopts = append(mopts, ai.WithRand(rand.New(rand.NewSource(seed))))
	}
	mixed := ai.NewMixedAI(opts, mopts...)

	// The main agent defers to the external decision process when one is
	// configured, otherwise runs the policy locally (or falls back to the
	// simple strategy when no model is available).
	var mainAgent ai.Agent
	if learnerURL != "" {
		client, err := learner.DialWS(ctx, learnerURL)
		if err != nil {
			log.Fatal().Err(err).Str("url", learnerURL).Msg("connect to decision process")
		}
		defer client.Close()
		mainAgent = ai.NewTrainedAI(opts, client)
	} else {
		mainAgent = ai.NewOnnxOrSimple(opts, modelPath)
	}
	mixed.SetMainAI(mainAgent)

	opp := ai.ForName(opponent, ai.Options{FrameSkip: frameSkip})
	if opp == nil {
		opp = ai.NewSimpleAI(ai.Options{FrameSkip: frameSkip})
	}

	var store *episodes.Store
	var cache *episodes.Cache
	if record {
		db, err := episodes.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to postgres")
		}
		defer db.Close()
		store = episodes.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure schema")
		}

		cache, err = episodes.NewCache(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to redis")
		}
		defer cache.Close()
	}

	status := episodes.Status{RunID: runID}
	for i := 0; i < numEpisodes; i++ {
		if ctx.Err() != nil {
			break
		}

		threshold := int(mixed.Threshold())
		res, err := sim.Run(ctx, sim.Config{MaxTicks: rts.Tick(maxTicks)}, mixed, opp)
		if err != nil {
			log.Error().Err(err).Int("episode", i).Msg("episode aborted")
			break
		}

		switch res.Winner {
		case rts.Player0, rts.Player1:
			status.Wins[res.Winner]++
		default:
			status.Draws++
		}
		status.Episodes++
		status.LatestStart = mixed.LatestStart()
		status.LastThreshold = threshold
		status.UpdatedAt = time.Now().UTC()

		log.Info().
			Int("episode", i).
			Int("winner", int(res.Winner)).
			Int("ticks", int(res.Ticks)).
			Int("threshold", threshold).
			Float64("latestStart", mixed.LatestStart()).
			Msg("Episode finished")

		if record {
			ep := episodes.Episode{
				RunID:       runID,
				Index:       i,
				Winner:      int(res.Winner),
				Ticks:       int(res.Ticks),
				Threshold:   threshold,
				LatestStart: mixed.LatestStart(),
				FinishedAt:  time.Now().UTC(),
			}
			if err := store.Record(ctx, ep); err != nil {
				log.Warn().Err(err).Int("episode", i).Msg("record episode failed")
			}
			if err := cache.SetStatus(ctx, status); err != nil {
				log.Warn().Err(err).Msg("update run status failed")
			}
			if _, err := cache.IncrEpisodes(ctx, runID); err != nil {
				log.Warn().Err(err).Msg("increment episode counter failed")
			}
		}
	}

	if jsonOut {
		out, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(out))
		return
	}
	log.Info().
		Str("run", runID).
		Int("episodes", status.Episodes).
		Int("p0Wins", status.Wins[0]).
		Int("p1Wins", status.Wins[1]).
		Int("draws", status.Draws).
		Msg("Selfplay finished")
}
