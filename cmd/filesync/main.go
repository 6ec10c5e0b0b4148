/*
FileSync Core
Copyright (c) 2026 The FileSync Project Contributors.

This file is part of FileSync Core.

FileSync Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FileSync Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FileSync Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/FileSyncProject/filesync-core/pkg/config"
	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/featurestore/gpkg"
	"github.com/FileSyncProject/filesync-core/pkg/helpers"
	"github.com/FileSyncProject/filesync-core/pkg/ops"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String(
		"config",
		config.DefaultPath(),
		"path of the settings file",
	)
	doPreScan := flag.Bool(
		"pre-scan",
		false,
		"scan the configured directory into a new collection",
	)
	doSync := flag.Bool(
		"sync",
		false,
		"synchronize the configured source and target collections",
	)
	doPostScan := flag.Bool(
		"post-scan",
		false,
		"refresh the configured collection from its files",
	)
	outRef := flag.String(
		"out",
		"",
		"store the pre-scan result as file.gpkg:table",
	)
	assumeYes := flag.Bool(
		"yes",
		false,
		"skip the confirmation for large scans",
	)
	debugMode := flag.Bool(
		"debug",
		false,
		"enable debug logging to stderr",
	)
	showVersion := flag.Bool(
		"version",
		false,
		"print version and exit",
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("filesync v" + config.AppVersion)
		return nil
	}

	var logWriters []io.Writer
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debugMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logWriters = append(logWriters, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if err := helpers.InitLogging(filepath.Dir(*configPath), logWriters); err != nil {
		return fmt.Errorf("error setting up logging: %w", err)
	}

	if !*doPreScan && !*doSync && !*doPostScan {
		flag.Usage()
		return errors.New("no operation selected")
	}

	cfg, err := config.NewInstance(nil, *configPath)
	if err != nil {
		return err
	}
	settings := cfg.Settings()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *doPreScan {
		if err := runPreScan(ctx, &settings, *outRef, *assumeYes); err != nil {
			return err
		}
	}
	if *doSync {
		if err := runSync(ctx, &settings); err != nil {
			return err
		}
	}
	if *doPostScan {
		if err := runPostScan(ctx, &settings); err != nil {
			return err
		}
	}

	// settings checks may have healed values, keep the file in step
	cfg.SetSettings(settings)
	if err := cfg.Save(); err != nil {
		log.Warn().Err(err).Msg("could not save settings")
	}

	return nil
}

func runPreScan(ctx context.Context, settings *config.Settings, outRef string, assumeYes bool) error {
	var confirm ops.Confirm
	if !assumeYes {
		confirm = func(numFiles int) bool {
			return helpers.YesNoPrompt(
				fmt.Sprintf("The PreScan resulted in %d files! Continue?", numFiles), false)
		}
	}

	result, err := ops.PreScan(ctx, settings, ops.PreScanDeps{Confirm: confirm})
	if err != nil {
		return err
	}
	printRun(result.Run)
	if result.Aborted {
		return errors.New("pre-scan aborted")
	}
	if !result.OK {
		return errors.New("pre-scan failed, see log")
	}

	if outRef != "" {
		if err := storeCollection(ctx, result.Collection, outRef); err != nil {
			return err
		}
		fmt.Println("pre-scan result stored as " + outRef)
	}
	return nil
}

func runSync(ctx context.Context, settings *config.Settings) error {
	stores := map[string]*gpkg.Store{}
	defer func() {
		for _, store := range stores {
			_ = store.Close()
		}
	}()

	source, err := openCollection(stores, settings.Sync.SourceLayerID)
	if err != nil {
		return err
	}
	target, err := openCollection(stores, settings.Sync.TargetLayerID)
	if err != nil {
		return err
	}

	result, err := ops.Sync(ctx, settings, ops.SyncDeps{Source: source, Target: target})
	if err != nil {
		return err
	}
	printRun(result.Run)
	if !result.OK {
		return errors.New("synchronize failed, see log")
	}
	return nil
}

func runPostScan(ctx context.Context, settings *config.Settings) error {
	stores := map[string]*gpkg.Store{}
	defer func() {
		for _, store := range stores {
			_ = store.Close()
		}
	}()

	coll, err := openCollection(stores, settings.PostScan.LayerID)
	if err != nil {
		return err
	}

	result, err := ops.PostScan(ctx, settings, ops.PostScanDeps{Collection: coll})
	if err != nil {
		return err
	}
	printRun(result.Run)
	if !result.OK {
		return errors.New("post-scan failed, see log")
	}
	return nil
}

// openCollection resolves a "file.gpkg:table" reference, reusing stores so
// source and target tables of the same file share one connection.
func openCollection(stores map[string]*gpkg.Store, ref string) (*gpkg.Collection, error) {
	file, table, err := splitRef(ref)
	if err != nil {
		return nil, err
	}
	store, ok := stores[file]
	if !ok {
		store, err = gpkg.Open(file)
		if err != nil {
			return nil, err
		}
		stores[file] = store
	}
	return store.Collection(table)
}

// splitRef splits "file.gpkg:table" at the last colon, so Windows drive
// letters stay part of the file path.
func splitRef(ref string) (file, table string, err error) {
	idx := strings.LastIndex(ref, ":")
	if idx <= 1 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("invalid collection reference %q, want file.gpkg:table", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

// storeCollection copies an in-memory scan result into a GeoPackage table.
func storeCollection(ctx context.Context, coll *featurestore.Memory, outRef string) error {
	file, table, err := splitRef(outRef)
	if err != nil {
		return err
	}
	store, err := gpkg.CreateGeoPackage(file)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out, err := store.CreateCollection(table, coll.Fields(), coll.GeometryType(), coll.SRID())
	if err != nil {
		return err
	}
	if err := out.BeginEdit(); err != nil {
		return err
	}
	copyErr := coll.Iterate(ctx, func(rec *featurestore.Record) error {
		return out.Insert(rec)
	})
	if copyErr != nil {
		_ = out.RollbackEdit()
		return copyErr
	}
	return out.CommitEdit()
}

func printRun(run *ops.RunLog) {
	for _, line := range run.Lines {
		fmt.Println(line)
	}
}
