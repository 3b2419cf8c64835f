package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/spacemeshos/coinminer/challenge"
	"github.com/spacemeshos/coinminer/client"
	"github.com/spacemeshos/coinminer/journal"
	"github.com/spacemeshos/coinminer/logging"
	"github.com/spacemeshos/coinminer/mining"
	"github.com/spacemeshos/coinminer/poller"
	"github.com/spacemeshos/coinminer/proxy"
	"github.com/spacemeshos/coinminer/shared"
	"github.com/spacemeshos/coinminer/solver"
)

func newContext(cCtx *cli.Context) context.Context {
	level := zap.WarnLevel
	if cCtx.GlobalBool("debug") {
		level = zap.DebugLevel
	}
	ctx := logging.NewContext(context.Background(), logging.New(level, "", false))
	if address := cCtx.GlobalString("proxy"); address != "" {
		ctx = client.WithProxy(ctx, address)
	}
	return ctx
}

func newClient(ctx context.Context, cCtx *cli.Context) (*client.HTTPClient, error) {
	cfg := client.DefaultConfig()
	cfg.RequestTimeout = cCtx.GlobalDuration("timeout")
	baseURL := cCtx.GlobalString("baseurl")
	return client.NewHTTPClient(ctx, baseURL, baseURL, cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func lastCoin(cCtx *cli.Context) error {
	ctx := newContext(cCtx)
	cl, err := newClient(ctx, cCtx)
	if err != nil {
		return err
	}
	coin, err := cl.LastCoin(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("coin_id: %s\ntime_stamp: %d\n", coin.CoinID, coin.Timestamp)
	return nil
}

func difficulty(cCtx *cli.Context) error {
	ctx := newContext(cCtx)
	cl, err := newClient(ctx, cCtx)
	if err != nil {
		return err
	}
	d, err := cl.Difficulty(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("number_of_leading_zeros: %d\ntime_stamp: %d\n", d.Value, d.Timestamp)
	return nil
}

func currentChallenge(cCtx *cli.Context) error {
	ctx := newContext(cCtx)
	cl, err := newClient(ctx, cCtx)
	if err != nil {
		return err
	}
	store := challenge.NewStore()
	p := poller.New(poller.DefaultConfig(), cl, proxy.NewSelector(nil), store)
	if err := p.Poll(ctx); err != nil {
		return err
	}
	return printJSON(store.Snapshot())
}

func proxies(cCtx *cli.Context) error {
	ctx := newContext(cCtx)
	addresses, err := proxy.LoadList(ctx, cCtx.Args().First())
	if err != nil {
		return err
	}
	for _, address := range addresses {
		normalized, err := proxy.Normalize(address)
		if err != nil {
			return err
		}
		fmt.Println(normalized)
	}
	fmt.Printf("%d usable proxies\n", len(addresses))
	return nil
}

func listJournal(cCtx *cli.Context) error {
	ctx := newContext(cCtx)
	j, err := journal.Open(cCtx.Args().First())
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List(ctx, cCtx.Int("limit"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		status := "✅ submitted"
		if !e.Submitted {
			status = fmt.Sprintf("❌ %s", e.Error)
		}
		fmt.Printf("%s %s coin=%s nonce=%d blob=%s difficulty=%d %s\n",
			e.Time().Format(time.RFC3339), e.ID, e.CoinID, e.Nonce, e.Blob, e.Difficulty, status)
	}
	return nil
}

func encode(cCtx *cli.Context) error {
	nonce, err := strconv.ParseUint(cCtx.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing nonce: %w", err)
	}
	submission := client.NewSubmission(shared.Candidate(nonce).Blob(), cCtx.String("miner-id"))
	data, err := json.Marshal(submission)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func check(cCtx *cli.Context) error {
	d, err := strconv.ParseUint(cCtx.Args().Get(1), 10, 32)
	if err != nil {
		return fmt.Errorf("parsing difficulty: %w", err)
	}
	nonce, err := strconv.ParseUint(cCtx.Args().Get(2), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing nonce: %w", err)
	}
	puzzle := shared.Puzzle{
		Prefix:     cCtx.String("prefix"),
		CoinID:     cCtx.Args().First(),
		MinerID:    cCtx.String("miner-id"),
		Difficulty: uint(d),
	}
	hash := shared.NewCoinHasher(puzzle).Hash(shared.Candidate(nonce), nil)
	fmt.Printf("hash: %s\n", hex.EncodeToString(hash))
	if shared.CheckLeadingZeroHex(hash, puzzle.Difficulty) {
		fmt.Println("✅ coin is valid")
		return nil
	}
	return fmt.Errorf("coin does not have %d leading zeros", puzzle.Difficulty)
}

func bench(cCtx *cli.Context) error {
	cfg := solver.Config{Workers: cCtx.Int("workers"), Batch: cCtx.Uint64("batch")}
	if cfg.Workers <= 0 {
		return fmt.Errorf("invalid number of workers: %d", cfg.Workers)
	}
	s := solver.NewCPU(cfg)
	puzzle := shared.Puzzle{
		Prefix:  cCtx.String("prefix"),
		CoinID:  "a9c1ae3f4fc29d0be9113a42090a5ef9fdef93f5ec4777a008873972e60bb532",
		MinerID: cCtx.String("miner-id"),
		// never solved, every worker runs its whole batch
		Difficulty: 64,
	}

	fmt.Printf("hashing %d nonces on %d workers...\n", cfg.Batch*uint64(cfg.Workers), cfg.Workers)
	start := time.Now()
	s.Solve(newContext(cCtx), puzzle)
	elapsed := time.Since(start)

	rate := float64(cfg.Batch*uint64(cfg.Workers)) / elapsed.Seconds()
	fmt.Printf("done in %s (%.2f MH/s)\n", elapsed, rate/1_000_000)
	return nil
}

func main() {
	defaults := mining.DefaultConfig()
	minerFlags := []cli.Flag{
		cli.StringFlag{Name: "miner-id", Value: defaults.MinerID},
		cli.StringFlag{Name: "prefix", Value: defaults.Prefix},
	}

	app := &cli.App{
		Name:  "coinctl",
		Usage: "inspect the coin service and the miner's journal",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "baseurl", Value: "http://cpen442coin.ece.ubc.ca"},
			cli.StringFlag{Name: "proxy", Usage: "route requests through this proxy"},
			cli.DurationFlag{Name: "timeout", Value: 5 * time.Second},
			cli.BoolFlag{Name: "debug"},
		},
		Commands: []cli.Command{
			{
				Name:   "last-coin",
				Usage:  "print the last accepted coin",
				Action: lastCoin,
			},
			{
				Name:   "difficulty",
				Usage:  "print the current difficulty",
				Action: difficulty,
			},
			{
				Name:   "challenge",
				Usage:  "run a single poll cycle and print the challenge",
				Action: currentChallenge,
			},
			{
				Name:      "proxies",
				Usage:     "validate a proxy list",
				ArgsUsage: "<file>",
				Action:    proxies,
			},
			{
				Name:      "journal",
				Usage:     "list the coins recorded by a miner",
				ArgsUsage: "<journal dir>",
				Flags:     []cli.Flag{cli.IntFlag{Name: "limit"}},
				Action:    listJournal,
			},
			{
				Name:      "encode",
				Usage:     "print the submission body for a nonce",
				ArgsUsage: "<nonce>",
				Flags:     minerFlags,
				Action:    encode,
			},
			{
				Name:  "bench",
				Usage: "measure the hash rate of the CPU solver",
				Flags: append([]cli.Flag{
					cli.IntFlag{Name: "workers", Value: solver.DefaultConfig().Workers},
					cli.Uint64Flag{Name: "batch", Value: 1 << 22},
				}, minerFlags...),
				Action: bench,
			},
			{
				Name:      "check",
				Usage:     "verify a nonce against a coin id",
				ArgsUsage: "<coin id> <difficulty> <nonce>",
				Flags:     minerFlags,
				Action:    check,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
