package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"stripdemo/internal/slogutil"
	"stripdemo/internal/user"
)

var (
	userFrom  string
	userName  string
	userEmail string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Work with user records",
}

var userSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Submit a user record to the backend",
	Long: `Build a user record from a draft file and flags, then POST it to
<backendURL>/users as {"user": {...}}. Flags override fields read from --from.

Examples:
  stripdemo user save --name Ada --email ada@example.com
  stripdemo user save --from draft.yaml --backend-url http://api.local:8000`,
	RunE: runUserSave,
}

func init() {
	userSaveCmd.Flags().StringVar(&userFrom, "from", "", "Draft record file (.json, .yaml, .toml)")
	userSaveCmd.Flags().StringVar(&userName, "name", "", "User name")
	userSaveCmd.Flags().StringVar(&userEmail, "email", "", "User email")
	userSaveCmd.Flags().String("backend-url", "", "Backend base URL (default http://localhost:8000)")
	_ = v.BindPFlag("client.backendURL", userSaveCmd.Flags().Lookup("backend-url"))

	userCmd.AddCommand(userSaveCmd)
	rootCmd.AddCommand(userCmd)
}

// saveRequest describes which fields the user supplied
type saveRequest struct {
	From  string
	Name  *string
	Email *string
}

func runUserSave(cmd *cobra.Command, args []string) error {
	result, err := loadConfig()
	if err != nil {
		return err
	}

	factory := slogutil.NewLoggerFactory(result.Config, logLevel, cmd.ErrOrStderr())
	defer factory.Close()
	logger, err := factory.ClientLogger()
	if err != nil {
		logger.Warn("Log file unavailable, logging to stderr", "error", err.Error())
	}

	svc := user.NewService(user.Options{
		BackendURL: result.Config.Client.BackendURL,
		Poster:     user.NewHTTPPoster(time.Duration(result.Config.Client.TimeoutMs) * time.Millisecond),
		Logger:     logger,
	})

	req := saveRequest{From: userFrom}
	if cmd.Flags().Changed("name") {
		req.Name = &userName
	}
	if cmd.Flags().Changed("email") {
		req.Email = &userEmail
	}

	return saveUser(cmd.Context(), cmd.OutOrStdout(), svc, req)
}

// saveUser fills the service's draft from req, submits it and prints the reply.
func saveUser(ctx context.Context, out io.Writer, svc *user.Service, req saveRequest) error {
	if req.From != "" {
		rec, err := user.LoadRecord(req.From)
		if err != nil {
			return err
		}
		svc.SetRecord(rec)
	}
	if req.Name != nil {
		svc.SetName(*req.Name)
	}
	if req.Email != nil {
		svc.SetEmail(*req.Email)
	}

	resp, err := svc.Save(ctx).Wait(ctx)
	if resp != nil {
		fmt.Fprintf(out, "POST %s -> %d\n", svc.UsersURL(), resp.StatusCode)
		if len(resp.Body) > 0 {
			fmt.Fprintln(out, string(resp.Body))
		}
	}
	return err
}
