package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/pkg/entities"
	"github.com/HumanPrinter/enkoni-sub003/pkg/extensions"
	"github.com/HumanPrinter/enkoni-sub003/pkg/mvvm"
	"go.uber.org/zap"
)

// ChangeSource is a repository that reports changes of its data file.
type ChangeSource interface {
	SourceChanged() *extensions.Event[entities.SourceChangedArgs]
}

// Publisher forwards change notifications.
type Publisher interface {
	Publish(ctx context.Context, msg domain.ContactsChanged) error
}

// MessengerPublisher sends notifications to in-process recipients.
type MessengerPublisher struct {
	Messenger *mvvm.Messenger
}

// Publish implements Publisher.
func (p MessengerPublisher) Publish(_ context.Context, msg domain.ContactsChanged) error {
	mvvm.Send(p.Messenger, msg)
	return nil
}

// BridgePublisher sends notifications to other processes over Redis.
type BridgePublisher struct {
	Bridge *mvvm.RedisBridge
}

// Publish implements Publisher.
func (p BridgePublisher) Publish(ctx context.Context, msg domain.ContactsChanged) error {
	return mvvm.Publish(ctx, p.Bridge, msg)
}

// WatchContactsUseCase forwards data file changes to publishers until the
// context is cancelled.
type WatchContactsUseCase struct {
	Source     ChangeSource
	Publishers []Publisher
	Logger     *zap.Logger
	// OnChange, when set, is called after each change was published.
	OnChange func(msg domain.ContactsChanged)

	now func() time.Time
}

// Execute runs the use case. It returns nil once ctx is cancelled.
func (uc *WatchContactsUseCase) Execute(ctx context.Context) error {
	if uc.Source == nil {
		return fmt.Errorf("no change source configured")
	}
	logger := uc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := uc.now
	if now == nil {
		now = time.Now
	}
	changes := make(chan entities.SourceChangedArgs, 16)
	unsubscribe := uc.Source.SourceChanged().Subscribe(func(_ any, args entities.SourceChangedArgs) {
		select {
		case changes <- args:
		default:
			logger.Warn("dropping change notification", zap.String("file", args.FileName))
		}
	})
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case args := <-changes:
			msg := domain.ContactsChanged{FileName: args.FileName, Kind: string(args.Kind), At: now().UTC()}
			for _, p := range uc.Publishers {
				if err := p.Publish(ctx, msg); err != nil {
					logger.Error("failed to publish change", zap.Error(err), zap.String("file", msg.FileName))
				}
			}
			if uc.OnChange != nil {
				uc.OnChange(msg)
			}
		}
	}
}
