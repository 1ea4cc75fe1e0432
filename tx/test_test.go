package tx

import (
	"io/ioutil"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oasislabs/quorum-functions/contract/contracttest"
	"github.com/oasislabs/quorum-functions/eth"
	"github.com/oasislabs/quorum-functions/eth/ethtest"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/wallet/wallettest"
)

var (
	Logger = log.NewLogrus(log.LogrusLoggerProperties{
		Level:  logrus.DebugLevel,
		Output: ioutil.Discard,
	})
)

const ContractAddress string = "0xAB6f6704e5a10332af6672e50b3d9754dc460dfa"

type executorMocks struct {
	resolver *contracttest.MockResolver
	wallets  *wallettest.MockProvider
	wallet   *wallettest.PrivateKeyWallet
	client   *ethtest.MockClient
	private  *ethtest.MockPrivacyManager
}

// newTestExecutor creates an executor whose collaborators are mocks
// that are not yet set up
func newTestExecutor() (*Executor, *executorMocks) {
	mocks := &executorMocks{
		resolver: &contracttest.MockResolver{},
		wallets:  &wallettest.MockProvider{},
		wallet:   wallettest.NewPrivateKeyWallet(),
		client:   &ethtest.MockClient{},
		private:  &ethtest.MockPrivacyManager{},
	}

	transactor := eth.NewTransactor(&eth.TransactorServices{
		Logger:         Logger,
		Client:         mocks.client,
		PrivacyManager: mocks.private,
	}, &eth.TransactorProps{
		CallTimeout:    time.Second,
		ReceiptTimeout: time.Second,
		PollInterval:   time.Millisecond,
	})

	return NewExecutor(&ExecutorServices{
		Logger:     Logger,
		Resolver:   mocks.resolver,
		Wallets:    mocks.wallets,
		Transactor: transactor,
	}), mocks
}

// implementDefaults sets up every collaborator to succeed
func (m *executorMocks) implementDefaults() {
	contracttest.ImplementMock(m.resolver)
	wallettest.ImplementProvider(m.wallets, m.wallet)
	ethtest.ImplementMock(m.client)
}
