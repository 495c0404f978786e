package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ananthvk/minikv/internal/client"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "kvcli",
		Usage:     "interactive client for kvserver",
		ArgsUsage: "[command [args...]]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "server address",
				EnvVars: []string{"MINIKV_SERVER"},
				Value:   "127.0.0.1:6379",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "dial and reply timeout",
				Value: 5 * time.Second,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "(error) %s\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	conn, err := client.Dial(c.String("server"), c.Duration("timeout"))
	if err != nil {
		return err
	}
	defer conn.Close()

	// A command given on the command line is executed once
	if c.Args().Present() {
		reply, err := conn.Do(c.Args().Slice())
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	fmt.Printf("Connected to %s, type \"exit\" to quit\n", c.String("server"))
	fmt.Print("> ")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" {
			break
		}
		if line != "" {
			args, err := splitArgs(line)
			if err != nil {
				fmt.Printf("(error) %s\n", err)
			} else {
				reply, err := conn.Do(args)
				if err != nil {
					return err
				}
				fmt.Println(reply)
				if strings.EqualFold(args[0], "quit") {
					return nil
				}
			}
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

// splitArgs splits a line on spaces, double quoted arguments may contain spaces and \" \\ \r \n \t escapes
func splitArgs(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuotes, hasArg := false, false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuotes && ch == '\\' && i+1 < len(line):
			i++
			switch line[i] {
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			case 't':
				current.WriteByte('\t')
			default:
				current.WriteByte(line[i])
			}
		case ch == '"':
			inQuotes = !inQuotes
			hasArg = true
		case !inQuotes && (ch == ' ' || ch == '\t'):
			if hasArg {
				args = append(args, current.String())
				current.Reset()
				hasArg = false
			}
		default:
			current.WriteByte(ch)
			hasArg = true
		}
	}
	if inQuotes {
		return nil, errors.New("unbalanced quotes")
	}
	if hasArg {
		args = append(args, current.String())
	}
	return args, nil
}
