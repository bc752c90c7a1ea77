package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/gookit/color"
)

var (
	colArrow = color.FgCyan
	colOK    = color.FgGreen
	colWarn  = color.FgYellow
)

// askForConfirmation renders a y/n prompt and reads the answer. EOF and
// errors default to no: unattended runs must not hang on a hidden question.
func askForConfirmation(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	for {
		colArrow.Print("-> ")
		color.Printf("%s [y/n]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		colWarn.Println("Please answer y or n.")
	}
}

func statusf(format string, args ...any) {
	colArrow.Print("-> ")
	colOK.Printf(format+"\n", args...)
}

func warnf(format string, args ...any) {
	colArrow.Print("-> ")
	colWarn.Printf(format+"\n", args...)
}
