package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultPath is where the wizard saves and commands look for config.
const DefaultPath = "zoomdeck.yml"

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to zoomdeck! Let's configure this machine.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Identity.
	userPrompt := promptui.Prompt{
		Label:    "Your user id (used to decide who may present)",
		Validate: notBlank,
	}
	userID, err := userPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	cfg.UserID = strings.TrimSpace(userID)

	// 2. Server.
	urlPrompt := promptui.Prompt{
		Label:   "Presentation server URL",
		Default: cfg.Sync.BaseURL,
	}
	baseURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	cfg.Sync.BaseURL = strings.TrimSpace(baseURL)

	// 3. Transition speed.
	speedPrompt := promptui.Select{
		Label: "Transition speed",
		Items: []string{
			"fast (800 ms)",
			"normal (1500 ms)",
			"slow (2500 ms)",
		},
		CursorPos: 1,
	}
	speedIdx, _, err := speedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("transition speed: %w", err)
	}
	cfg.Navigation.TransitionSpeedMs = []int{800, 1500, 2500}[speedIdx]

	// 4. Timer.
	timerPrompt := promptui.Prompt{
		Label:    "Presenter timer in minutes (0 disables it)",
		Default:  strconv.Itoa(cfg.Timer.Minutes),
		Validate: nonNegativeInt,
	}
	minutesStr, err := timerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("timer: %w", err)
	}
	minutes, _ := strconv.Atoi(strings.TrimSpace(minutesStr))
	cfg.Timer.Enabled = minutes > 0
	if minutes > 0 {
		cfg.Timer.Minutes = minutes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("enter a whole number of minutes")
	}
	return nil
}
