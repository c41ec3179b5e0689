package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/api"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		Run:   runServe,
	}
	cmd.Flags().String("bind", "", "Listen address (default: server.bind from config)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := openApp(ctx)
	defer a.close()

	bind := a.cfg.Server.Bind
	if cmd.Flags().Changed("bind") {
		bind, _ = cmd.Flags().GetString("bind")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(a.svc, a.log, api.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		MaxUploadBytes: int64(a.cfg.Server.MaxUploadMB) << 20,
	})
	a.log.Info("starting api", "bind", bind, "store", a.cfg.Store.Driver, "model", a.cfg.Gemini.Model)
	if err := api.Serve(ctx, bind, router, a.log); err != nil {
		exitErr("serve", err)
	}
}
