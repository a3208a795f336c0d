package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/search/filter"
	"github.com/kailas-cloud/neodex/internal/domain/search/request"
	"github.com/kailas-cloud/neodex/internal/render"
	searchuc "github.com/kailas-cloud/neodex/internal/usecase/search"
)

type queryFlags struct {
	params     request.Params
	comparison string
}

func newQueryCmd(g *globalFlags) *cobra.Command {
	q := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search close approaches by date and filters",
		Example: `  neoctl query --data neos.csv --date 2020-01-01
  neoctl query --data neos.csv --start-date 2020-01-01 --end-date 2020-01-31 \
      --filter is_hazardous:=:True --filter distance:<=:500000 --return-object Path`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := request.Build(q.params, filter.Comparison(q.comparison))
			if err != nil {
				return err
			}

			cat, err := g.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			objs, err := searchuc.New(cat).Search(cmd.Context(), &req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.format == formatJSON {
				return render.JSON(w, render.NewResponse(req.Output(), objs))
			}
			return render.Text(w, req.Output(), objs)
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.params.Date, "date", "", "approach date, YYYY-MM-DD")
	f.StringVar(&q.params.StartDate, "start-date", "", "range start, YYYY-MM-DD (inclusive)")
	f.StringVar(&q.params.EndDate, "end-date", "", "range end, YYYY-MM-DD (inclusive)")
	f.StringArrayVar(&q.params.Filters, "filter", nil, "filter token field:operator:value (repeatable)")
	f.IntVar(&q.params.Number, "number", domain.DefaultLimit, "maximum number of objects")
	f.StringVar(&q.params.ReturnObject, "return-object", string(request.OutputNEO), "NEO or Path")
	f.StringVar(&q.comparison, "comparison", string(filter.Typed), "filter comparison: typed or lexical")

	cmd.MarkFlagsMutuallyExclusive("date", "start-date")
	cmd.MarkFlagsMutuallyExclusive("date", "end-date")
	cmd.MarkFlagsRequiredTogether("start-date", "end-date")

	return cmd
}
