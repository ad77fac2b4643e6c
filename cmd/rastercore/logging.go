package main

import (
	"os"

	"github.com/taigrr/rastercore/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("rastercore")

func setupLogging(ctx *cli.Context) {
	// stdout belongs to the viewer.
	log.SetSink(os.Stderr)

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
