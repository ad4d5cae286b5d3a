package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/preview"
)

// PreviewCmd serves the built site and rebuilds it when sources change.
type PreviewCmd struct {
	Host string        `name:"host" default:"localhost" help:"Interface to listen on."`
	Port int           `name:"port" default:"5173" help:"Port to listen on."`
	Poll time.Duration `name:"poll" help:"Also rebuild on this interval (for file systems without change notifications)."`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := newBuildStack(cfg, "", g.logger())
	if err != nil {
		return err
	}
	defer st.Close()

	addr := fmt.Sprintf("%s:%d", p.Host, p.Port)
	return preview.New(st.generator, cfg.Site.Base, addr).WithPollInterval(p.Poll).Run(sigctx)
}
