package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"

	"github.com/opst/pipeline-lineage/cmd/lineage/subcommands/common"
	subexec "github.com/opst/pipeline-lineage/cmd/lineage/subcommands/executions"
	submetrics "github.com/opst/pipeline-lineage/cmd/lineage/subcommands/metrics"
	subruns "github.com/opst/pipeline-lineage/cmd/lineage/subcommands/runs"
	"github.com/opst/pipeline-lineage/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := log.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	executions := try.To(subexec.New()).OrFatal(logger)
	runs := try.To(subruns.New()).OrFatal(logger)
	metrics := try.To(submetrics.New()).OrFatal(logger)

	cmd := try.To(
		flarc.NewCommandGroup(
			"Pipeline lineage commandline interface",
			common.DefaultCommonFlags(),
			flarc.WithSubcommand("executions", executions),
			flarc.WithSubcommand("runs", runs),
			flarc.WithSubcommand("metrics", metrics),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, cmd, flarc.WithHelp(true)))
}
