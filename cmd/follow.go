package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
	"github.com/ziadkadry99/zoomdeck/internal/session"
	"github.com/ziadkadry99/zoomdeck/internal/terminal"
)

var followStreaming bool

var followCmd = &cobra.Command{
	Use:   "follow <presentation-id>",
	Short: "Follow a presentation without taking control",
	Long: `Joins a presentation as a viewer and logs every slide the presenter moves
to. Exits when the presentation is deleted or on Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.WithComponent("follow")
		lp := loop.New()
		lp.Start()
		defer lp.Stop()

		var last string
		sess := session.New(lp, session.Options{
			PresentationID: args[0],
			Config:         cfg,
			Store:          newRemoteStore(cfg),
			Platform:       terminal.NewPlatform(os.Stderr, int(os.Stderr.Fd())),
			Notifier:       logNotifier(logger),
			Streaming:      followStreaming,
			Logger:         logger,
			OnChange: func(v session.View) {
				if v.Nav.CurrentSlideID == last || v.Presentation == nil {
					return
				}
				last = v.Nav.CurrentSlideID
				logger.Info(terminal.StatusLine(v), "slide", last)
			},
			OnNotFound: stop,
		})
		lp.Post(sess.Start)
		defer lp.Call(sess.Teardown)

		<-ctx.Done()
		return nil
	},
}

func init() {
	followCmd.Flags().BoolVar(&followStreaming, "streaming", false, "streaming mode: hide controls and go fullscreen")
	rootCmd.AddCommand(followCmd)
}
