package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/slizzai/slizzai/pkg/enhance"
)

const (
	defaultSamplerAddr = "127.0.0.1:8080"
	shutdownTimeout    = 10 * time.Second
)

// samplerCommand creates the sampler command, a self-hosted
// super-sampling service speaking the same protocol run expects.
func (c *CLI) samplerCommand() *cobra.Command {
	var (
		addr   string
		factor int
	)

	cmd := &cobra.Command{
		Use:   "sampler",
		Short: "Serve the local super-sampling service",
		Long: `Serve POST /supersample backed by the built-in CatmullRom upscaler.

Point super_sampler_url at the printed address to run the whole pipeline on
one machine.`,
		Example: `  slizzai sampler
  slizzai sampler --addr :9000 --factor 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return c.serveSampler(cmd.Context(), ln, factor)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultSamplerAddr, "listen address")
	cmd.Flags().IntVar(&factor, "factor", enhance.DefaultFactor, "upscaling factor")

	return cmd
}

// serveSampler serves on ln until ctx is done, then shuts down gracefully.
func (c *CLI) serveSampler(ctx context.Context, ln net.Listener, factor int) error {
	srv := &http.Server{
		Handler:           enhance.NewHandler(enhance.Upscaler{Factor: factor}, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	printSuccess("Sampler listening on %s", StyleLink.Render("http://"+ln.Addr().String()))
	printDetail("factor %dx, press Ctrl+C to stop", factor)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	c.Logger.Info("sampler stopped")
	return nil
}
