package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/bout/internal/domain/types"
)

// Command is one parsed scorekeeper line.
type Command struct {
	Name       string
	Competitor types.Competitor
	Amount     int    // point: points to add, may be negative; set: the new value
	Field      string // set: points, fouls, exits or time
}

// usage per command, also the help text.
var usage = []struct{ name, text string }{
	{"start", "start                      run the clock"},
	{"stop", "stop                       pause the clock"},
	{"reset", "reset                      clear the match and refill the clock"},
	{"point", "point <A|B> [n]            add n points (default 1, negative corrects)"},
	{"foul", "foul <A|B>                 record a foul"},
	{"unfoul", "unfoul <A|B>               take back a foul"},
	{"exit", "exit <A|B>                 record a ring exit"},
	{"unexit", "unexit <A|B>               take back a ring exit"},
	{"status", "status                     show the scoreboard"},
	{"timeline", "timeline                   list the recorded events"},
	{"config", "config                     show the rules"},
	{"set", "set <points|fouls|exits|time> <n>  change one rule"},
	{"defaults", "defaults                   restore the default rules"},
	{"help", "help                       this list"},
	{"quit", "quit                       leave"},
}

func usageOf(name string) string {
	for _, u := range usage {
		if u.name == name {
			return u.text
		}
	}
	return name
}

// Parse reads one line. Names and competitors are case-insensitive.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	cmd := Command{Name: strings.ToLower(fields[0])}
	args := fields[1:]

	bad := func() (Command, error) {
		return Command{}, fmt.Errorf("%w: %s", ErrUsage, strings.TrimSpace(usageOf(cmd.Name)))
	}

	switch cmd.Name {
	case "start", "stop", "reset", "status", "timeline", "config", "defaults", "help", "quit":
		if len(args) != 0 {
			return bad()
		}
	case "point":
		if len(args) < 1 || len(args) > 2 {
			return bad()
		}
		c, err := types.ParseCompetitor(args[0])
		if err != nil {
			return bad()
		}
		cmd.Competitor, cmd.Amount = c, 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n == 0 {
				return bad()
			}
			cmd.Amount = n
		}
	case "foul", "unfoul", "exit", "unexit":
		if len(args) != 1 {
			return bad()
		}
		c, err := types.ParseCompetitor(args[0])
		if err != nil {
			return bad()
		}
		cmd.Competitor = c
	case "set":
		if len(args) != 2 {
			return bad()
		}
		field := strings.ToLower(args[0])
		switch field {
		case "points", "fouls", "exits", "time":
		default:
			return bad()
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return bad()
		}
		cmd.Field, cmd.Amount = field, n
	default:
		return Command{}, fmt.Errorf("%w: %q (try help)", ErrUnknownCommand, fields[0])
	}
	return cmd, nil
}
