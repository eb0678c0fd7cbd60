// Command outpostd is the server entrypoint: it wires internal/config's
// data bundle, internal/world's object graph and hook bus,
// internal/persist's save database, internal/transport's websocket
// listener, internal/terraingen's generation pool, and
// internal/dispatch's event loop into one running process, then hands
// the terminal to server/console for admin commands. Grounded on
// dm-vev-adamant's root main.go / server.New wiring, generalized from
// "build one *server.Server" to this repository's narrower, explicitly
// composed set of packages.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/outpost-sim/server/internal/config"
	"github.com/outpost-sim/server/internal/dispatch"
	"github.com/outpost-sim/server/internal/persist"
	"github.com/outpost-sim/server/internal/terraingen"
	"github.com/outpost-sim/server/internal/timer"
	"github.com/outpost-sim/server/internal/transport"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/vision"
	"github.com/outpost-sim/server/internal/world"
	"github.com/outpost-sim/server/server/console"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "websocket listen address")
		dataDir    = flag.String("data", "./data", "data bundle directory (blocks.toml, items.toml, ...)")
		saveDir    = flag.String("save", "./save", "world save database directory")
		genWorkers = flag.Int64("gen-workers", 4, "concurrent terrain generation workers")
		planeName  = flag.String("plane", "overworld", "default plane name, created if the save has none")
	)
	flag.Parse()

	log := slog.Default()

	bundle, err := config.LoadBundle(config.BundlePaths{
		Blocks:     *dataDir + "/blocks.toml",
		Items:      *dataDir + "/items.toml",
		Templates:  *dataDir + "/templates.toml",
		Recipes:    *dataDir + "/recipes.yaml",
		Animations: *dataDir + "/animations.yaml",
		Loot:       *dataDir + "/loot.yaml",
	})
	if err != nil {
		log.Error("load data bundle", "err", err)
		os.Exit(1)
	}

	store, err := persist.Open(*saveDir)
	if err != nil {
		log.Error("open save database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	w := world.NewWorld(256)
	if err := store.Load(w, log); err != nil {
		log.Error("load save database", "err", err)
		os.Exit(1)
	}

	var plane world.TransientID
	w.RunNow(func(tx *world.Tx) {
		tx.RangePlanes(func(id world.TransientID, _ *world.Plane) bool {
			plane = id
			return false
		})
		if plane == 0 {
			plane = tx.CreatePlane(*planeName)
		}
	})

	shapeCache := world.NewShapeCache(w, bundle.Templates())

	inbound := make(chan dispatch.Request, 256)
	genResults := make(chan dispatch.GenChunkResult, 64)

	hub := transport.NewHub(inbound)
	outbound := dispatch.NewOutboundHooks(w, hub)
	vis := vision.New()
	visionAdapter := dispatch.NewVisionAdapter(vis, outbound, shapeCache)
	w.Handle(world.NewChain(shapeCache, shapeCache, visionAdapter))

	wakes := timer.NewWakeQueue[dispatch.WakeReason](log, time.Now())
	defer wakes.Close()

	script := newDefaultScript(w, plane, log)
	loop := dispatch.NewLoop(w, wakes, script, log, inbound, genResults)
	loop.SetSaver(store)
	loop.SetBundle(bundle)
	loop.SetSender(hub)

	genPool := terraingen.NewPool(context.Background(), noopGenerator{}, genResults, *genWorkers, log)
	defer genPool.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpSrv := &http.Server{Addr: *addr, Handler: hub}
	go func() {
		log.Info("listening", "addr", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "err", err)
		}
	}()

	go console.New(inbound, log).Run(ctx)

	loop.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	if err := store.Save(w); err != nil {
		log.Error("final save pass failed", "err", err)
	}
}

// noopGenerator is the default terrain generator: every chunk comes back
// empty. Like defaultScript, this is the placeholder spec.md 9 expects a
// real deployment to replace — terraingen.Pool only schedules calls into
// a Generator, it does not supply terrain content itself.
type noopGenerator struct{}

func (noopGenerator) GenerateChunk(world.TransientID, vec.V2) ([]byte, error) { return nil, nil }
