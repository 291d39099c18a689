package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/zoomdeck/internal/input"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/remote"
)

var clickerCmd = &cobra.Command{
	Use:   "clicker <presentation-id>",
	Short: "Use this terminal as a remote clicker",
	Long: `Relays key presses to every "zoomdeck present --remote" session of the
presentation. Only the creator or the assigned presenter may connect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := log.WithComponent("clicker")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conn, err := remote.Dial(ctx, cfg.Sync.BaseURL, args[0], cfg.UserID, remote.RoleClicker)
		if err != nil {
			return err
		}
		defer conn.Close()
		fmt.Fprintln(os.Stderr, "Clicker connected. Press keys to drive the presentation, q to quit.")

		return readKeys(ctx, stop, func(ev input.KeyEvent) {
			if input.Translate(ev) == input.CmdNone {
				return
			}
			n, err := conn.SendKey(ev)
			if err != nil {
				logger.Warn("key not relayed", "key", ev.Key, "err", err)
				stop()
				return
			}
			if n == 0 {
				logger.Warn("no presenter session is listening", "key", ev.Key)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(clickerCmd)
}
