// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restlerd runs a REST server publishing the entity kinds
// described in a YAML configuration file.
//
//     restlerd --config library.yaml --backend postgres://localhost/library serve
//
// Flags can also come from RESTLER_* environment variables, which are
// read from a .env file in the current directory if there is one.
package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-restler/backend"
	"github.com/diffeo/go-restler/cache"
	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/postgres"
	"github.com/diffeo/go-restler/restserver"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// daemon holds the state shared by all of the subcommands.
type daemon struct {
	Backend backend.Backend
	Config  *Config
	Logger  *logrus.Logger
	Clock   clock.Clock
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	d := &daemon{
		Backend: backend.Backend{Implementation: "memory"},
		Logger:  logrus.StandardLogger(),
		Clock:   clock.New(),
	}
	if err := d.App().Run(os.Args); err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("restlerd failed")
	}
}

// App builds the command-line application.
func (d *daemon) App() *cli.App {
	app := cli.NewApp()
	app.Name = "restlerd"
	app.Usage = "publish entity kinds as REST resources"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "YAML file describing kinds and resources",
			EnvVar: "RESTLER_CONFIG",
		},
		cli.GenericFlag{
			Name:   "backend",
			Value:  &d.Backend,
			Usage:  "impl[:address] of the storage backend",
			EnvVar: "RESTLER_BACKEND",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			Usage:  "minimum level of log messages",
			EnvVar: "RESTLER_LOG_LEVEL",
		},
	}
	app.Before = d.before
	app.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "run the HTTP REST server",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:   "http",
					Value:  ":5980",
					Usage:  "[ip]:port for HTTP REST interface",
					EnvVar: "RESTLER_HTTP",
				},
				cli.StringFlag{
					Name:   "templates",
					Usage:  "directory of templates for non-JSON formats",
					EnvVar: "RESTLER_TEMPLATES",
				},
				cli.IntFlag{
					Name:   "cache",
					Usage:  "cache this many members per kind (0 to disable)",
					EnvVar: "RESTLER_CACHE",
				},
				cli.BoolFlag{
					Name:   "log-requests",
					Usage:  "log all requests, not just failures",
					EnvVar: "RESTLER_LOG_REQUESTS",
				},
			},
			Action: d.serve,
		},
		{
			Name:  "migrate",
			Usage: "create (or drop) the PostgreSQL tables for the configured kinds",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "drop",
					Usage: "drop the tables instead",
				},
			},
			Action: d.migrate,
		},
	}
	return app
}

func (d *daemon) before(c *cli.Context) error {
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	d.Logger.SetLevel(level)

	filename := c.String("config")
	if filename == "" {
		return errors.New("a --config file is required")
	}
	d.Config, err = loadConfig(filename)
	return err
}

// Handler builds the complete HTTP handler for a database.
func (d *daemon) Handler(db entity.Database, templates string, verbose bool) (http.Handler, error) {
	opts := restserver.Options{Logger: d.Logger}
	if templates != "" {
		opts.Templates = os.DirFS(templates)
	}
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	err := restserver.PopulateRouter(r, db, d.Config.Resources, opts)
	if err != nil {
		return nil, err
	}
	return newStack(r, d.Logger, d.Clock, verbose), nil
}

func (d *daemon) serve(c *cli.Context) error {
	db, err := d.Backend.Database(d.Config.Kinds...)
	if err != nil {
		return err
	}
	if size := c.Int("cache"); size > 0 {
		db = cache.New(db, size)
	}
	h, err := d.Handler(db, c.String("templates"), c.Bool("log-requests"))
	if err != nil {
		return err
	}
	addr := c.String("http")
	d.Logger.WithFields(logrus.Fields{
		"addr":    addr,
		"backend": d.Backend.String(),
	}).Info("serving")
	return http.ListenAndServe(addr, h)
}

func (d *daemon) migrate(c *cli.Context) error {
	switch d.Backend.Implementation {
	case "postgres", "postgresql":
	default:
		return errors.New("migrate needs a postgres backend")
	}
	for _, kind := range d.Config.Kinds {
		if err := kind.Init(); err != nil {
			return err
		}
	}
	db, err := postgres.Open(d.Backend.Address)
	if err != nil {
		return err
	}
	defer db.Close()
	if c.Bool("drop") {
		d.Logger.Info("dropping tables")
		return postgres.Drop(db, d.Config.Kinds)
	}
	d.Logger.Info("creating tables")
	return postgres.Upgrade(db, d.Config.Kinds)
}
