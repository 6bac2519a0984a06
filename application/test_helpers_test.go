package application_test

import (
	"context"
	"sync"
	"testing"

	"tonflip/application"
	"tonflip/domain/entities"
	"tonflip/infrastructure"
	"tonflip/repository/testutil"

	"github.com/stretchr/testify/require"
)

// recordingFeed implements application.PlayFeed for tests
type recordingFeed struct {
	mu   sync.Mutex
	bets []*entities.Bet
}

func (f *recordingFeed) BroadcastBet(bet *entities.Bet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bets = append(f.bets, bet)
}

func (f *recordingFeed) Bets() []*entities.Bet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.Bet(nil), f.bets...)
}

// stubIndexer returns the same transactions for every wallet
type stubIndexer struct {
	txs []*entities.ChainTransaction
}

func (s *stubIndexer) GetTransactions(ctx context.Context, wallet string, limit int) ([]*entities.ChainTransaction, error) {
	return s.txs, nil
}

type testEnv struct {
	uowFactory application.UnitOfWorkFactory
	feed       *recordingFeed
}

// setupTestEnv wires a migrated database, the in-process event bus and the application subscriptions
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB := testutil.SetupTestDatabase(t)
	bus := infrastructure.NewLocalEventBus()
	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, bus)
	feed := &recordingFeed{}

	require.NoError(t, application.RegisterApplicationSubscriptions(bus, uowFactory, feed, nil))

	return &testEnv{uowFactory: uowFactory, feed: feed}
}

func telegramUser(id int64, username string) entities.TelegramUser {
	return entities.TelegramUser{ID: id, Username: username, FirstName: username}
}
