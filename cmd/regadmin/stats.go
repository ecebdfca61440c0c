package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hogis-registration/internal/model"
)

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print registration counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			counts, err := e.repo.Registration.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			total := 0
			for _, c := range model.Containers {
				n := counts[c.Status()]
				total += n
				fmt.Fprintf(w, "%-10s %d\n", c, n)
			}
			fmt.Fprintf(w, "%-10s %d\n", "total", total)
			return nil
		},
	}
}
