package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/germanamz/nbask/pkg/kernel"
	"github.com/germanamz/nbask/pkg/magic"
)

func runKernel(ctx context.Context, args []string) error {
	var common commonFlags

	fs := flag.NewFlagSet("kernel", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nbask kernel [flags]\n\n"+
			"Serve %%%%ask, %%set_model, %%%%set_sys and %%usage over JSON lines on stdin/stdout.\n"+
			"Logs go to stderr.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	common.register(fs)
	_ = fs.Parse(args)

	eng, d, log, err := setup(common)
	if err != nil {
		return err
	}

	store, err := secretStore(eng.Config(), d)
	if err != nil {
		return err
	}

	sess := eng.NewSession(os.LookupEnv)
	k := kernel.New(eng, magic.Builtin(), sess, eng.HTMLRenderer(), log)
	k.OnStart(func(out io.Writer) {
		eng.Init(store, out)
	})

	log.Info("kernel ready", "model", sess.Model(), "secrets", store.Path())

	return k.Serve(ctx, os.Stdin, os.Stdout)
}
