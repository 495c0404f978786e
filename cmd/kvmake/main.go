package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/ananthvk/minikv/internal/client"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func randomBytes(length int) []byte {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return b
}

func main() {
	app := &cli.App{
		Name:  "kvmake",
		Usage: "fill a kvserver with random keys",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "127.0.0.1:6379",
				EnvVars: []string{"MINIKV_SERVER"},
			},
			&cli.IntFlag{Name: "n", Value: 10000, Usage: "total number of SET commands"},
			&cli.IntFlag{Name: "clients", Aliases: []string{"c"}, Value: 4, Usage: "number of concurrent connections"},
			&cli.IntFlag{Name: "pipeline", Aliases: []string{"P"}, Value: 1, Usage: "commands sent before reading replies"},
			&cli.Float64Flag{Name: "rate", Usage: "commands per second over all clients, 0 for no limit"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "(error) %s\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	total, clients, pipeline := c.Int("n"), max(c.Int("clients"), 1), max(c.Int("pipeline"), 1)
	limiter := rate.NewLimiter(rate.Inf, 0)
	if r := c.Float64("rate"); r > 0 {
		limiter = rate.NewLimiter(rate.Limit(r), pipeline)
	}
	fmt.Println("total ops ", total)

	start := time.Now()
	g, ctx := errgroup.WithContext(c.Context)
	for i := range clients {
		ops := total / clients
		if i < total%clients {
			ops++
		}
		g.Go(func() error {
			return load(ctx, c.String("server"), ops, pipeline, limiter)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	fmt.Printf("took %s, %.0f ops/s\n", elapsed, float64(total)/elapsed.Seconds())
	return nil
}

// load sends ops random SET commands over one connection, pipeline commands at a time
func load(ctx context.Context, address string, ops, pipeline int, limiter *rate.Limiter) error {
	conn, err := client.Dial(address, 10*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	for ops > 0 {
		batch := min(ops, pipeline)
		if err := limiter.WaitN(ctx, batch); err != nil {
			return err
		}
		for range batch {
			key := randomBytes(rand.Intn(30) + 15)
			value := randomBytes(rand.Intn(20) + 10)
			if err := conn.Send([]string{"SET", string(key), string(value)}); err != nil {
				return err
			}
		}
		for range batch {
			reply, err := conn.Receive()
			if err != nil {
				return err
			}
			if reply.IsError() {
				return fmt.Errorf("write error: %s", reply.Buffer)
			}
		}
		ops -= batch
	}
	return nil
}
