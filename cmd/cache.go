package main

import (
	"fmt"
	"time"

	"cryptoinfo-bot/config"
	"cryptoinfo-bot/internal/cache"
	"cryptoinfo-bot/internal/database"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the persisted response cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List persisted cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCacheStore(func(store cache.Store) error {
			records, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecords(records, config.GetDuration("cache_ttl"), time.Now()))
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every persisted cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCacheStore(func(store cache.Store) error {
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
}

func withCacheStore(fn func(cache.Store) error) error {
	var db *database.DB
	if config.GetString("cache_store") == "sqlite" {
		var err error
		if db, err = database.Open(config.GetString("db_path")); err != nil {
			return errors.Wrap(err, "failed to open database")
		}
		defer db.Close()
	}

	store, err := openCacheStore(db)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("no cache store configured, set CACHE_STORE to json, sqlite or redis")
	}
	defer store.Close()

	return fn(store)
}

func renderRecords(records []cache.Record, ttl time.Duration, now time.Time) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Space", "Key", "Fetched", "Fresh", "Size"})

	fresh := 0
	for _, rec := range records {
		isFresh := now.Sub(rec.FetchedAt) < ttl
		if isFresh {
			fresh++
		}
		t.AppendRow(table.Row{
			rec.Space,
			rec.Key,
			humanize.RelTime(rec.FetchedAt, now, "ago", "from now"),
			isFresh,
			humanize.Bytes(uint64(len(rec.Payload))),
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d/%d fresh", fresh, len(records)), ""})
	return t.Render()
}
