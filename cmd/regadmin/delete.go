package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hogis-registration/internal/model"
)

func deleteCommand() *cobra.Command {
	var container string

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove registrations (spam, duplicates) from one container",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseContainer(container)
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			var failed int
			for _, id := range args {
				err := e.repo.Registration.DeleteByID(cmd.Context(), c, id)
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: not in %s\n", id, c)
				case err != nil:
					return fmt.Errorf("delete %s: %w", id, err)
				default:
					e.logger.Info("registration deleted", zap.String("id", id), zap.String("container", string(c)))
					fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", id)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d registrations not found", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&container, "container", "c", string(model.ContainerRegistered), "registered, accepted or rejected")
	return cmd
}
