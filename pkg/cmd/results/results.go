package results

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/cmd/common"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/pkg/db/postgres"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/repository/result"
)

type options struct {
	track  string
	limit  int
	byTime bool
}

func NewResultsCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "results",
		Short: "lists stored race results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listResults(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.track, "track", "", "show results of this track only")
	cmd.Flags().IntVar(&opts.limit, "limit", result.DefaultLimit, "max number of results")
	cmd.Flags().BoolVar(&opts.byTime, "by-time", false, "order by race time instead of date")
	return cmd
}

func listResults(ctx context.Context, out io.Writer, opts options) error {
	loggers, err := common.SetupLogging(os.Stderr)
	if err != nil {
		return err
	}
	defer loggers.Close()

	if err := common.WaitForDB(ctx); err != nil {
		return err
	}
	pool, err := postgres.Connect(config.DB,
		postgres.WithTracer(postgres.NewMyTracer(loggers.SQLLogger, log.DebugLevel)))
	if err != nil {
		return err
	}
	defer pool.Close()

	items, err := result.List(ctx, pool, result.Filter{
		Track:  opts.track,
		Limit:  opts.limit,
		ByTime: opts.byTime,
	})
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}
	return writeTable(out, items)
}

func writeTable(out io.Writer, items []*model.RaceResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTRACK\tCHARACTER\tLAPS\tPLACE\tTIME\tFINISH ORDER")
	for _, r := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%ss\t%s\n",
			r.RecordStamp.Local().Format(time.DateTime),
			r.Track,
			r.Character,
			r.Laps,
			model.Ordinal(r.PlayerPlace),
			r.RaceTime.StringFixed(3),
			strings.Join(r.FinishOrder, ","),
		)
	}
	return w.Flush()
}
