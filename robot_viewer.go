package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/mogaika/robot_viewer/config"
	"github.com/mogaika/robot_viewer/geometry"
	"github.com/mogaika/robot_viewer/logger"
	"github.com/mogaika/robot_viewer/model/urdf"
	"github.com/mogaika/robot_viewer/visualizer"
	"github.com/mogaika/robot_viewer/web"
)

func main() {
	var cfgpath, addr, modelpath, name, joints, loglevel string
	var open, demo bool
	flag.StringVar(&cfgpath, "config", "", "Path to yaml config")
	flag.StringVar(&addr, "i", "", "Address of server")
	flag.StringVar(&modelpath, "model", "", "Path to urdf file")
	flag.StringVar(&name, "name", "", "Name of the model in the scene")
	flag.StringVar(&joints, "joints", "", "Comma separated list of considered joints, all when empty")
	flag.StringVar(&loglevel, "loglevel", "", "debug, info, warn or error")
	flag.BoolVar(&open, "open", false, "Open viewer in browser")
	flag.BoolVar(&demo, "demo", false, "Move joints with a sine wave")
	flag.Parse()

	cfg, err := config.Load(cfgpath)
	if err != nil {
		log.Fatal(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.Viewer.Addr = addr
		case "model":
			cfg.Model.Path = modelpath
		case "name":
			cfg.Model.Name = name
		case "joints":
			cfg.Model.ConsideredJoints = splitList(joints)
		case "loglevel":
			cfg.Logging.Level = loglevel
		case "open":
			cfg.Viewer.OpenBrowser = open
		}
	})

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, demo); err != nil {
		logger.Fatal("Viewer failed", zap.Error(err))
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func run(cfg *config.Config, demo bool) error {
	server := web.NewServer(cfg.Viewer.Addr, logger.Log)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() {
		if err := server.Close(context.Background()); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()
	logger.Sugar.Infof("Viewer ready at %s", server.URL())

	vis := visualizer.New(server,
		visualizer.WithLogger(logger.Log),
		visualizer.WithModelLoader(visualizer.URDFLoader{Options: urdf.Options{PackageDirs: cfg.Model.PackageDirs}}))

	color, err := geometry.ParseColorOverride(cfg.Model.Color)
	if err != nil {
		return err
	}

	var dofs int
	if cfg.Model.Path != "" {
		if err := vis.LoadModelFromFile(cfg.Model.Path, cfg.Model.ConsideredJoints, cfg.Model.Name, color); err != nil {
			return err
		}
		entry, err := vis.Registry().Model(cfg.Model.Name)
		if err != nil {
			return err
		}
		dofs = entry.Model.DofCount()
		logger.Info("Model ready", zap.String("name", cfg.Model.Name), zap.String("path", cfg.Model.Path),
			zap.Strings("considered_joints", cfg.Model.ConsideredJoints))
	}

	if cfg.Viewer.OpenBrowser {
		if err := vis.Open(); err != nil {
			logger.Warn("Open browser manually", zap.String("url", server.URL()), zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if demo {
		return runDemo(ctx, vis, cfg.Model.Path != "", cfg.Model.Name, dofs)
	}
	<-ctx.Done()
	return nil
}

// runDemo swings every joint and spins a force arrow until ctx is done.
func runDemo(ctx context.Context, vis *visualizer.Visualizer, hasModel bool, name string, dofs int) error {
	demoLog := logger.Named("demo")
	if err := vis.LoadSphere(0.03, "demo_origin", geometry.RGB(1, 1, 1)); err != nil {
		return err
	}
	if err := vis.LoadArrow(0.01, "demo_force", geometry.RGB(1, 0.8, 0)); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()
	start := time.Now()
	q := make([]float64, dofs)
	demoLog.Info("Demo running", zap.Bool("model", hasModel), zap.Int("dofs", dofs))

	for {
		select {
		case <-ctx.Done():
			demoLog.Info("Demo stopped")
			return nil
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()

			if hasModel {
				for i := range q {
					q[i] = 0.5 * math.Sin(t+float64(i))
				}
				if err := vis.SetMultibodySystemState(mgl64.Vec3{}, mgl64.Ident3(), q, name); err != nil {
					return err
				}
			}

			force := mgl64.Vec3{0.3 * math.Cos(t), 0.3 * math.Sin(t), 0.2 + 0.1*math.Sin(2*t)}
			logger.Debug("Demo tick", zap.Float64("t", t))
			if err := vis.SetArrowTransform(mgl64.Vec3{}, force, "demo_force"); err != nil {
				return err
			}
		}
	}
}
