package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"rps_webapp/internal/game"
	"rps_webapp/internal/logger"
)

// rps_play drives an in-process engine from the terminal.
//
//	<move> or <number>  play that move against a random opponent
//	s                   simulate a round
//	r                   reset history
//	h                   print history and scores
//	q                   quit
func main() {
	variant := flag.String("variant", string(game.VariantClassic), "move set: classic or rpsls")
	elements := flag.String("elements", "", "comma separated custom move set, overrides -variant")
	delay := flag.Duration("delay", game.DefaultDelay, "animation delay before a round commits")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), false)

	var explicit []string
	if *elements != "" {
		for _, el := range strings.Split(*elements, ",") {
			explicit = append(explicit, strings.TrimSpace(el))
		}
	}
	els, err := game.ResolveElements(game.VariantName(*variant), explicit)
	if err != nil {
		logger.Fatal("invalid move set", "error", err)
	}

	eng, err := game.New(game.Options{Elements: els, Delay: *delay})
	if err != nil {
		logger.Fatal("create engine", "error", err)
	}
	defer eng.Close()

	out := os.Stdout
	unsubscribe := eng.Subscribe(func(ev game.Event) {
		switch ev.Kind {
		case game.EventPlayStarted:
			fmt.Fprintln(out, "...")
		case game.EventRoundCommitted:
			printRound(out, *ev.Round, eng.Translate(ev.Round.Outcome))
			printScore(out, ev.State)
		case game.EventReset:
			fmt.Fprintln(out, "history cleared")
		}
	})
	defer unsubscribe()

	printMenu(out, els)
	run(os.Stdin, out, eng)
}

func run(in io.Reader, out io.Writer, eng *game.Engine) {
	els := eng.Elements()
	sc := bufio.NewScanner(in)

	for sc.Scan() {
		cmd := strings.TrimSpace(sc.Text())
		if cmd == "" {
			continue
		}

		switch strings.ToLower(cmd) {
		case "q", "quit", "exit":
			return
		case "h", "history":
			printHistory(out, eng)
			continue
		case "s", "sim", "simulate":
			if !eng.SimulateRound() {
				fmt.Fprintln(out, "busy, wait for the current round")
			}
			continue
		case "r", "reset":
			if !eng.RequestReset() {
				fmt.Fprintln(out, "busy, wait for the current round")
			}
			continue
		}

		move, ok := parseMove(cmd, els)
		if !ok {
			fmt.Fprintf(out, "unknown move %q\n", cmd)
			continue
		}
		if !eng.RequestPlay(move, eng.SampleRandomMove()) {
			fmt.Fprintln(out, "busy, wait for the current round")
		}
	}

	// let a pending round land before exiting on EOF
	if eng.Animating() {
		time.Sleep(eng.Delay() + 100*time.Millisecond)
	}
}

// parseMove accepts a 1-based index or a case-insensitive label
func parseMove(s string, els []string) (string, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(els) {
			return els[n-1], true
		}
		return "", false
	}
	for _, el := range els {
		if strings.EqualFold(el, s) {
			return el, true
		}
	}
	return "", false
}

func printMenu(out io.Writer, els []string) {
	for i, el := range els {
		fmt.Fprintf(out, "  %d) %s\n", i+1, el)
	}
	fmt.Fprintln(out, "  s) simulate  r) reset  h) history  q) quit")
}

func printRound(out io.Writer, r game.Round, label string) {
	fmt.Fprintf(out, "%s vs %s: %s\n", r.Moves[game.PlayerIndex], r.Moves[game.OpponentIndex], label)
}

func printScore(out io.Writer, st game.State) {
	fmt.Fprintf(out, "score %d : %d\n", st.Score(game.PlayerIndex), st.Score(game.OpponentIndex))
}

func printHistory(out io.Writer, eng *game.Engine) {
	st := eng.State()
	if len(st.History) == 0 {
		fmt.Fprintln(out, "no rounds yet")
		return
	}
	for i, r := range st.History {
		fmt.Fprintf(out, "%3d. ", len(st.History)-i)
		printRound(out, r, eng.Translate(r.Outcome))
	}
	printScore(out, st)
}
