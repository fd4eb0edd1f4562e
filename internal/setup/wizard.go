// Package setup runs the interactive configuration wizard behind `hydro setup`.
// It is also offered automatically on first run from an interactive terminal.
package setup

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/fakeyudi/hydro/internal/config"
	"github.com/fakeyudi/hydro/internal/hydration"
)

// Run asks for each setting on w, reading answers from r. An empty answer
// keeps the value from existing. The result is not saved.
func Run(r io.Reader, w io.Writer, existing config.Config) (config.Config, error) {
	br := bufio.NewReader(r)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(w, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(w, "%s: ", prompt)
		}
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	cfg := existing

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  ┌─────────────────────────────┐")
	fmt.Fprintln(w, "  │   hydro, first-time setup   │")
	fmt.Fprintln(w, "  └─────────────────────────────┘")
	fmt.Fprintln(w)

	for {
		ans, err := ask("  Daily goal in liters", strconv.FormatFloat(cfg.Goal, 'f', -1, 64))
		if err != nil {
			return cfg, err
		}
		goal, perr := strconv.ParseFloat(ans, 64)
		if perr == nil && hydration.ValidGoal(goal) {
			cfg.Goal = goal
			break
		}
		fmt.Fprintln(w, "  Please enter a positive number, for example 2.5.")
	}

	sync, err := askBool("  Sync with a remote store", cfg.RemoteURL != "")
	if err != nil {
		return cfg, err
	}
	if sync {
		for {
			ans, err := ask("  Remote base URL", cfg.RemoteURL)
			if err != nil {
				return cfg, err
			}
			if u, perr := url.Parse(ans); perr == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
				cfg.RemoteURL = ans
				break
			}
			fmt.Fprintln(w, "  Please enter an http:// or https:// address.")
		}
	} else {
		cfg.RemoteURL = ""
	}

	for {
		ans, err := ask("  Streak after a missed day (increment/preserve)", cfg.StreakPolicy)
		if err != nil {
			return cfg, err
		}
		if _, perr := hydration.ParseStreakPolicy(ans); perr == nil {
			cfg.StreakPolicy = ans
			break
		}
		fmt.Fprintln(w, "  Please answer increment or preserve.")
	}

	broadcast, err := askBool("  Publish state to an MQTT broker", cfg.MQTTBroker != "")
	if err != nil {
		return cfg, err
	}
	if broadcast {
		if cfg.MQTTBroker, err = ask("  Broker address", cfg.MQTTBroker); err != nil {
			return cfg, err
		}
		if cfg.MQTTTopic, err = ask("  Topic", cfg.MQTTTopic); err != nil {
			return cfg, err
		}
	} else {
		cfg.MQTTBroker = ""
	}

	fmt.Fprintln(w)
	return cfg, nil
}
