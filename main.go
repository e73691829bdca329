package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"prm-planner/artifact"
	"prm-planner/roadmap"
	"prm-planner/server"
	"prm-planner/workspace"
)

var (
	flagVerbose   bool
	flagBounds    string
	flagObstacles string
	flagSimplify  float64
)

func main() {
	root := &cobra.Command{
		Use:          "prm-planner",
		Short:        "Probabilistic roadmap construction over 2D workspaces with polygonal obstacles",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	addWorkspaceFlags(root.PersistentFlags())
	root.AddCommand(newBuildCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addWorkspaceFlags registers the flags shared by every command that needs a
// workspace to plan in.
func addWorkspaceFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagBounds, "bounds", "0,0,100,100", "workspace bounds as minX,minY,maxX,maxY")
	fs.StringVar(&flagObstacles, "obstacles", "", "directory of *.geojson obstacle files (empty means free space)")
	fs.Float64Var(&flagSimplify, "simplify", 0, "Douglas-Peucker tolerance applied to obstacle rings (0 disables)")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// parseBounds reads a "minX,minY,maxX,maxY" flag value.
func parseBounds(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bounds must be minX,minY,maxX,maxY, got %q", s)
	}
	var vals [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bounds value %q: %w", part, err)
		}
		vals[i] = v
	}
	if vals[2] <= vals[0] || vals[3] <= vals[1] {
		return orb.Bound{}, fmt.Errorf("bounds must have positive extent, got %q", s)
	}
	return orb.Bound{Min: orb.Point{vals[0], vals[1]}, Max: orb.Point{vals[2], vals[3]}}, nil
}

// loadWorkspace assembles the workspace the flags describe.
func loadWorkspace(log *logrus.Logger) (*workspace.Workspace, orb.Bound, error) {
	bounds, err := parseBounds(flagBounds)
	if err != nil {
		return nil, orb.Bound{}, err
	}

	var polygons []orb.Polygon
	if flagObstacles != "" {
		polygons, err = workspace.LoadDir(flagObstacles, log)
		if err != nil {
			return nil, orb.Bound{}, err
		}
	}

	ws := workspace.New(bounds, polygons, workspace.Config{SimplifyTolerance: flagSimplify})
	log.WithFields(logrus.Fields{
		"bounds":    flagBounds,
		"obstacles": ws.NumObstacles(),
	}).Info("🗺️  workspace ready")
	return ws, bounds, nil
}

func newBuildCmd() *cobra.Command {
	var (
		n, k, workers   int
		thresh, inflate float64
		seed            int64
		useRTree        bool
		out             string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a roadmap once and write it to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ws, bounds, err := loadWorkspace(log)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}

			b := roadmap.New(ws, inflate, seed)
			b.Logger = log
			b.Workers = workers
			if useRTree {
				b.Finder = roadmap.NewRTreeFinder()
			}

			if err := b.Build(n, k, thresh); err != nil {
				return err
			}
			rm := b.Roadmap()

			if out != "" {
				params := artifact.Params{N: n, K: k, Thresh: thresh, Inflate: inflate, Seed: seed, Workers: workers}
				if err := artifact.Save(out, rm, bounds, params); err != nil {
					return err
				}
				log.WithField("path", out).Info("💾 roadmap saved")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "samples", "n", 500, "collision-free configurations to place")
	cmd.Flags().IntVarP(&k, "neighbors", "k", 10, "nearest neighbors examined per configuration")
	cmd.Flags().Float64Var(&thresh, "thresh", 15, "maximum edge length")
	cmd.Flags().Float64Var(&inflate, "inflate", 0, "robot footprint radius for corridor checks")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: current time)")
	cmd.Flags().IntVar(&workers, "workers", 1, "parallel edge validation goroutines")
	cmd.Flags().BoolVar(&useRTree, "rtree", false, "use the R-tree neighbor finder instead of brute force")
	cmd.Flags().StringVarP(&out, "out", "o", "roadmap.json", "output file (empty skips saving)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr         string
		artifactPath string
		workers      int
		watch        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve roadmap construction and inspection over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && flagObstacles == "" {
				return errors.New("--watch requires --obstacles")
			}

			log := newLogger()
			ws, bounds, err := loadWorkspace(log)
			if err != nil {
				return err
			}

			srv := server.New(ws, log, server.Config{ArtifactPath: artifactPath, Workers: workers})
			if artifactPath != "" {
				if err := srv.LoadArtifact(artifactPath); err != nil {
					log.Info("ℹ️  no existing roadmap found (normal on first run)")
				}
			}

			httpServer := &http.Server{Addr: addr, Handler: srv.Router()}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			if watch {
				g.Go(func() error {
					return workspace.Watch(ctx, flagObstacles, log, func() {
						polygons, err := workspace.LoadDir(flagObstacles, log)
						if err != nil {
							log.WithError(err).Error("❌ obstacle reload failed")
							return
						}
						srv.ReplaceWorkspace(workspace.New(bounds, polygons, workspace.Config{SimplifyTolerance: flagSimplify}))
					})
				})
			}

			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			g.Go(func() error {
				log.WithField("addr", addr).Info("🚀 roadmap server listening")
				log.Info("  POST /buildRoadmap    - build the probabilistic roadmap")
				log.Info("  GET  /roadmap         - full roadmap snapshot")
				log.Info("  GET  /getRoadmapLines - edges for visualization")
				log.Info("  GET  /health          - server status")
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("👋 server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&artifactPath, "artifact", "roadmap.json", "roadmap file loaded at startup and written by saveToFile builds (empty disables)")
	cmd.Flags().IntVar(&workers, "workers", 1, "default edge validation parallelism for build requests")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload obstacles and rebuild when files change")
	return cmd
}
