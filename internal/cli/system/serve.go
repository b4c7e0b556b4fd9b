package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/clinichat/internal/chat"
	"github.com/julianstephens/clinichat/internal/cli"
	"github.com/julianstephens/clinichat/internal/metrics"
	"github.com/julianstephens/clinichat/internal/notifier"
	"github.com/julianstephens/clinichat/internal/web"
)

type ServeCmd struct {
	Addr string `help:"Listen address; defaults to server.addr from the config."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.Server.Addr
	}

	ctx.PerformAutomaticBackup()

	m := metrics.NewChatMetrics()
	opts := []chat.Option{chat.WithMetrics(m)}
	if ctx.Config.Reminder.Notify {
		opts = append(opts, chat.WithNotifier(notifier.New()))
	}
	rt := ctx.NewRuntime(opts...)
	defer rt.Shutdown()

	handler := web.New(web.Config{
		Runtime:      rt,
		Appointments: ctx.Appointments,
		Availability: ctx.Availability(),
		Encoder:      ctx.Encoder(),
		Metrics:      m,
		Locale:       ctx.Config.Locale,
		Now:          ctx.Now,
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Printf("Serving %s on %s\n", ctx.Config.Clinic.Name, addr)
	return web.Serve(sigCtx, addr, handler)
}
