package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/client"
	"pkt.systems/tabdeck/core"
	"pkt.systems/tabdeck/internal/appconfig"
	"pkt.systems/tabdeck/internal/eventbus"
	"pkt.systems/tabdeck/replica"
	"pkt.systems/tabdeck/schema"
	"pkt.systems/tabdeck/tui"
)

// registryClient is what the run command needs from either client flavor.
type registryClient interface {
	replica.Authority
	ListTabs(ctx context.Context) (schema.Snapshot, error)
}

func newRunCmd() *cobra.Command {
	var cfgPath string
	var remote string
	var user string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the terminal tab strip",
		Long:  "Open the terminal tab strip against a remote tabdeck server, or against an embedded in-process registry when no remote is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if user == "" {
				user = os.Getenv("USER")
			}
			if err := schema.ValidateUserID(schema.UserID(user)); err != nil {
				return fmt.Errorf("pick a user with --user: %w", err)
			}
			session := schema.SessionID(newSessionID())
			logger = logger.With("user", user, "session", session)

			var registry registryClient
			if remote != "" {
				registry = client.NewHTTP(remote, schema.UserID(user), session, logger)
			} else {
				bus := eventbus.New(cfg.Service.ToSchema().SnapshotDebounce, logger)
				service, err := core.NewService(cfg.Service.ToSchema(), core.ServiceDeps{
					SnapshotSink: bus,
					Logger:       logger,
				})
				if err != nil {
					return err
				}
				registry = client.NewLocal(service, bus, schema.UserID(user), session)
			}

			store, err := replica.NewStore(cfg.Replica.ToSchema(), schema.UserID(user), session, replica.StoreDeps{
				Authority: registry,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Prime the replica before the first paint; the event stream
			// keeps it current from here on.
			if snap, err := registry.ListTabs(ctx); err == nil {
				snap.Reason = schema.ReasonImmediate
				store.ApplyIncoming(snap)
			} else {
				logger.Warn("initial tab fetch failed", "err", err)
			}

			return tui.Run(ctx, store, cfg.Replica.ToSchema(), logger)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&remote, "remote", "", "base URL of a tabdeck server (empty runs in-process)")
	cmd.Flags().StringVar(&user, "user", "", "user id (defaults to $USER)")
	return cmd
}

func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "session-fallback"
	}
	return hex.EncodeToString(buf)
}
