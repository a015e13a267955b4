package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/storetest"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// OrderRepositoryIntegrationTestSuite runs the store contract and PostgreSQL specific
// checks against a disposable PostgreSQL container.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *tcpostgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := postgres.Open(connStr)
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.truncate()
	suite.repository = orderrepo.NewGormOrderRepository(suite.db)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) truncate() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders").Error)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestContract() {
	storetest.Run(suite.T(), func(*testing.T) ports.OrderRepository {
		suite.truncate()
		return orderrepo.NewGormOrderRepository(suite.db)
	})
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_StoresStatusByName() {
	ctx := context.Background()
	created := storetest.NewOrder(suite.T(), "O-300", "chat-1", storetest.Checkout)

	suite.Require().NoError(suite.repository.Add(ctx, created))
	suite.Require().NoError(suite.repository.CompareAndSetStatus(
		ctx, created.ID(), order.Pending, order.Confirmed, storetest.Checkout.Add(time.Minute),
	))

	var row orderrepo.OrderDTO
	suite.Require().NoError(suite.db.First(&row, "order_id = ?", "O-300").Error)
	suite.Equal("confirmed", row.Status)
	suite.Require().NotNil(row.CustomerRef)
	suite.Equal("chat-1", *row.CustomerRef)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_CorruptStatusIsRejected() {
	ctx := context.Background()
	created := storetest.NewOrder(suite.T(), "O-301", "chat-1", storetest.Checkout)
	suite.Require().NoError(suite.repository.Add(ctx, created))
	suite.Require().NoError(suite.db.Exec("UPDATE orders SET status = 'lost' WHERE order_id = 'O-301'").Error)

	_, err := suite.repository.Get(ctx, created.ID())
	suite.Require().Error(err)
	suite.Contains(err.Error(), "lost")
}

func (suite *OrderRepositoryIntegrationTestSuite) TestMigrate_IsIdempotent() {
	suite.Require().NoError(postgres.Migrate(suite.db))
	suite.Require().NoError(postgres.Migrate(suite.db))
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
