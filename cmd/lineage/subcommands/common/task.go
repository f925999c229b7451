package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/domain/metadata/rest"
	"github.com/youta-t/flarc"
)

// EnvServer is the environment variable for the default of --server.
const EnvServer = "LINEAGE_SERVER"

type CommonFlags struct {
	Server string `flag:"server" alias:"s" help:"URL of lineaged"`
}

func DefaultCommonFlags() CommonFlags {
	server := "http://localhost:8080"
	if s, ok := os.LookupEnv(EnvServer); ok {
		server = s
	}
	return CommonFlags{Server: server}
}

// Task is a subcommand task with a store reading lineaged.
type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	store kdb.MetadataInterface,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTask[T any](task Task[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		store, err := rest.New(strings.TrimSuffix(commonFlag.Server, "/")+"/api/metadata", nil)
		if err != nil {
			return fmt.Errorf("%w: --server is invalid: %w", flarc.ErrUsage, err)
		}
		return task(ctx, logger, store, cl, newpos)
	}
}

// Print writes v as indented json.
func Print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
