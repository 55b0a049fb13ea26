// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Thermoquad/inkling/internal/config"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	watchAll  bool
	watchCron string
)

var watchCmd = &cobra.Command{
	Use:   "watch [image]",
	Short: "Keep displays in sync with an image file",
	Long: `Push the image now, again on every cron tick and whenever the file
changes. The image and schedule default to the watch section of the config.

Connections stay open between pushes. A failed push closes its connection
and the next push dials again; a timed out push is abandoned and replaced
by a fresh connection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchAll, "all", false, "Update every configured display")
	watchCmd.Flags().StringVar(&watchCron, "cron", "", "Refresh schedule (overrides config)")
	watchCmd.Flags().DurationVar(&showTimeout, "timeout", 0, "Give up on a transfer after this long (overrides config)")
}

// isWatchedEvent reports whether ev changes the file at path.
func isWatchedEvent(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(path) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// watcher keeps one open target per display between refreshes.
type watcher struct {
	path     string
	displays []config.DisplayConfig
	targets  []*target
}

func (w *watcher) refresh(ctx context.Context, reason string) {
	img, err := loadImage(w.path)
	if err != nil {
		log.Error().Err(err).Str("path", w.path).Msg("cannot load image")
		return
	}
	log.Info().Str("reason", reason).Str("path", w.path).Msg("refreshing displays")

	var g errgroup.Group
	for i, d := range w.displays {
		i, d := i, d
		g.Go(func() error {
			t := w.targets[i]
			if t == nil {
				var err error
				if t, err = openDisplay(ctx, d, nil); err != nil {
					log.Warn().Err(err).Str("display", d.Name).Msg("cannot open display")
					return nil
				}
			}
			err := t.push(showImage(img))
			switch {
			case errors.Is(err, errTransferTimeout):
				w.targets[i] = nil
			case err != nil:
				t.close()
				w.targets[i] = nil
			default:
				w.targets[i] = t
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (w *watcher) close() {
	for _, t := range w.targets {
		if t != nil {
			t.close()
		}
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := cfg.Watch.Image
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no image given and watch.image is not configured")
	}
	spec := cfg.Watch.Cron
	if watchCron != "" {
		spec = watchCron
	}

	displays, err := selectDisplays(cmd, watchAll)
	if err != nil {
		return err
	}
	applyTimeout(cmd, displays)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watcher{path: path, displays: displays, targets: make([]*target, len(displays))}
	defer w.close()

	// Buffered so that triggers arriving during a refresh coalesce.
	trigger := make(chan string, 1)
	fire := func(reason string) {
		select {
		case trigger <- reason:
		default:
		}
	}

	sched := cron.New()
	if _, err := sched.AddFunc(spec, func() { fire("schedule") }); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	sched.Start()
	defer sched.Stop()

	log.Info().Str("path", path).Str("cron", spec).Int("displays", len(displays)).Msg("watching")
	fire("start")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if isWatchedEvent(ev, path) {
				fire("file changed")
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")
		case reason := <-trigger:
			w.refresh(ctx, reason)
		}
	}
}
