package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ziadkadry99/zoomdeck/internal/input"
	"github.com/ziadkadry99/zoomdeck/internal/log"
	"github.com/ziadkadry99/zoomdeck/internal/loop"
	"github.com/ziadkadry99/zoomdeck/internal/presenter"
	"github.com/ziadkadry99/zoomdeck/internal/remote"
	"github.com/ziadkadry99/zoomdeck/internal/session"
	"github.com/ziadkadry99/zoomdeck/internal/terminal"
)

var (
	presentMode   string
	presentRemote bool
)

var presentCmd = &cobra.Command{
	Use:   "present <presentation-id>",
	Short: "Drive a presentation from the terminal",
	Long: `Opens a presentation with keyboard control. Arrow keys, space and enter
navigate, o toggles the overview, f toggles fullscreen, h goes to the first
slide, +/- zoom, m and p toggle the minimap and path preview. q or Ctrl-C quits.

When you are the creator or the assigned presenter every move is published
and followed by all viewers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mode, err := choosePresentMode(presentMode)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.WithComponent("present")
		lp := loop.New()
		lp.Start()
		defer lp.Stop()

		platform := terminal.NewPlatform(os.Stdout, int(os.Stdout.Fd()))
		display := terminal.NewDisplay(os.Stdout)
		defer display.Close()

		sess := session.New(lp, session.Options{
			PresentationID: args[0],
			Config:         cfg,
			Store:          newRemoteStore(cfg),
			Platform:       platform,
			Notifier:       logNotifier(logger),
			Logger:         logger,
			OnChange:       display.Render,
			OnNotFound:     stop,
		})
		lp.Post(sess.Start)
		lp.Post(func() { sess.StartPresenting(mode) })
		defer func() {
			lp.Call(func() {
				sess.StopPresenting()
				sess.Teardown()
			})
			platform.ExitFullscreen()
		}()

		if presentRemote {
			conn, err := remote.Dial(ctx, cfg.Sync.BaseURL, args[0], cfg.UserID, remote.RolePresenter)
			if err != nil {
				logger.Warn("remote clicker unavailable", "err", err)
			} else {
				defer conn.Close()
				go conn.Listen(ctx, func(ev input.KeyEvent) {
					lp.Post(func() { sess.HandleKey(ev) })
				})
			}
		}

		return readKeys(ctx, stop, func(ev input.KeyEvent) {
			lp.Post(func() { sess.HandleKey(ev) })
		})
	},
}

// choosePresentMode parses the --mode flag, asking interactively when it
// is "ask" and stdin is a terminal.
func choosePresentMode(flag string) (presenter.Mode, error) {
	if flag != "ask" {
		return presenter.ParseMode(flag)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return presenter.Windowed, nil
	}
	prompt := promptui.Select{
		Label: "Present how?",
		Items: []string{"fullscreen", "windowed"},
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return presenter.Windowed, fmt.Errorf("mode selection: %w", err)
	}
	return presenter.ParseMode(choice)
}

// readKeys puts stdin in raw mode and feeds decoded keys to fn until q,
// Ctrl-C or ctx is done.
func readKeys(ctx context.Context, stop context.CancelFunc, fn func(input.KeyEvent)) error {
	restore, err := terminal.RawMode(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer restore()

	go func() {
		terminal.ReadKeys(ctx, os.Stdin, func(ev input.KeyEvent) bool {
			if ev.Key == terminal.KeyInterrupt || ev.Key == "q" {
				stop()
				return false
			}
			fn(ev)
			return true
		})
		stop()
	}()
	<-ctx.Done()
	return nil
}

func init() {
	presentCmd.Flags().StringVar(&presentMode, "mode", "ask", "presentation mode: fullscreen, windowed or ask")
	presentCmd.Flags().BoolVar(&presentRemote, "remote", false, "accept keys from remote clickers")
	rootCmd.AddCommand(presentCmd)
}
