package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

var (
	qryFormat  string
	qryOutput  string
	qryMaxRows int
)

var queryCmd = &cobra.Command{
	Use:   "query <file> <sql>",
	Short: "Run a read-only SQL query against a data file",
	Long: `Run a read-only SQL query. With the default sqlite backend the file is loaded
into an in-memory table named "data"; the postgres and http backends send the
query to the configured database or endpoint instead.`,
	Example: `  datanav query sales.csv "SELECT region, SUM(amount) AS total FROM data GROUP BY region"
  datanav query sales.csv "SELECT * FROM data" --format csv -o out.csv`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *currentConfig()
		if qryMaxRows > 0 {
			c.QueryMaxRows = qryMaxRows
		}
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		ws, err := newWorkspace(&c, nil, runtimeOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()
		ws.Load(d)

		res, err := ws.Query(cmd.Context(), strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		opts := outputOptions{OutputPath: qryOutput, Writer: out}
		switch qryFormat {
		case "", "table":
			var buf bytes.Buffer
			printTable(&buf, res.Dataset(), 0)
			fmt.Fprintf(&buf, "(%d rows)", res.RowCount)
			if err := writeOutput(buf.String(), nil, opts); err != nil {
				return err
			}
		case "json":
			opts.JSON = true
			if err := writeOutput("", res, opts); err != nil {
				return err
			}
		case "csv":
			var buf bytes.Buffer
			if err := dataset.WriteCSV(&buf, res.Dataset()); err != nil {
				return err
			}
			if err := writeOutput(strings.TrimRight(buf.String(), "\n"), nil, opts); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported --format: %s (use table|json|csv)", qryFormat)
		}
		if res.Truncated {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Result truncated to %d rows\n", res.RowCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&qryFormat, "format", "table", "output format: table|json|csv")
	queryCmd.Flags().StringVarP(&qryOutput, "output", "o", "", "optional path to write the result")
	queryCmd.Flags().IntVar(&qryMaxRows, "max-rows", 0, "row limit (overrides config query_max_rows)")
}
