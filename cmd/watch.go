package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/HumanPrinter/enkoni-sub003/internal/usecase"
	"github.com/HumanPrinter/enkoni-sub003/internal/viewmodel"
	"github.com/HumanPrinter/enkoni-sub003/pkg/mvvm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report changes to the data file until interrupted",
		Long: `Report changes to the data file until interrupted.

Every change reloads the contact list. When redis_addr is configured the
change is also published on redis_channel, and changes published by other
enkoni processes are reported as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.watch(ctx)
		},
	}
}

func (c *container) watch(ctx context.Context) error {
	repo, err := c.contacts(true)
	if err != nil {
		return err
	}
	bridge, err := c.bridge()
	if err != nil {
		return err
	}
	var publisher usecase.Publisher = usecase.MessengerPublisher{Messenger: c.messenger}
	if bridge != nil {
		publisher = usecase.BridgePublisher{Bridge: bridge}
	}

	vm := viewmodel.NewContactsViewModel(&usecase.ListContactsUseCase{Repo: repo}, c.messenger, c.logger)
	defer vm.Cleanup()
	vm.PropertyChanged.Subscribe(func(_ any, args mvvm.PropertyChangedArgs) {
		switch args.PropertyName {
		case viewmodel.PropLastChange:
			c.printer.Step("%s", vm.LastChange())
		case viewmodel.PropCount:
			c.printer.Info("%d contacts", vm.Count())
		}
	})
	if err := vm.Refresh.Execute(ctx, ""); err != nil {
		return err
	}
	c.printer.Success("Watching %s", repo.FileName())

	uc := &usecase.WatchContactsUseCase{
		Source:     repo,
		Publishers: []usecase.Publisher{publisher},
		Logger:     c.logger,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return uc.Execute(gctx) })
	if bridge != nil {
		g.Go(func() error { return bridge.Run(gctx) })
		g.Go(func() error {
			select {
			case <-bridge.Ready():
				c.printer.Info("Sharing changes on %s", c.cfg.RedisChannel)
			case <-gctx.Done():
			}
			return nil
		})
	}
	return g.Wait()
}
