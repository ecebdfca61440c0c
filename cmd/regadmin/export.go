package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hogis-registration/internal/dto"
	"hogis-registration/internal/service"
)

func exportCommand() *cobra.Command {
	var (
		req dto.ExportRequest
		out string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write registrations to a CSV or XLSX file",
		Long: "Write registrations to a CSV or XLSX file.\n" +
			"--out defaults to the generated file name in the current directory; use - for stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			export, err := service.NewExportService(e.cfg, e.repo, e.logger).Export(cmd.Context(), &req)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(export.Data)
				return err
			}
			if out == "" {
				out = export.FileName
			} else if info, statErr := os.Stat(out); statErr == nil && info.IsDir() {
				out = filepath.Join(out, export.FileName)
			}
			if err := os.WriteFile(out, export.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			e.logger.Info("export written", zap.String("file", out), zap.Int("rows", export.Rows))
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows)\n", out, export.Rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Container, "container", "c", "all", "registered, accepted, rejected or all")
	cmd.Flags().StringVarP(&req.Format, "format", "f", service.FormatCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&req.Q, "query", "q", "", "only rows whose name, email or school contains this text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory")
	return cmd
}
