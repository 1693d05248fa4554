//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tourhub/service-booking/internal/application"
	bookingEvents "github.com/tourhub/service-booking/internal/events"
	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/database"
	"github.com/tourhub/service-booking/internal/platform/kafka"
	"github.com/tourhub/service-booking/internal/proto/events"
	"github.com/tourhub/service-booking/internal/repository"
	"github.com/tourhub/service-booking/migrations"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// serviceStack holds wired-up booking service components.
type serviceStack struct {
	Admission       *application.AdmissionService
	Tours           *application.TourService
	Categories      *application.CategoryService
	Accounts        *application.AccountService
	UnitOfWork      *repository.GormUnitOfWork
	Consumer        *bookingEvents.AccountEventConsumer
	CleanupProducer func()
}

// setupPostgres starts a PostgreSQL container and applies the embedded migrations.
func setupPostgres(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_tours",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_tours",
		SSLMode:  "disable",
	}

	logger := zap.NewNop()
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), migrations.FS, logger))

	return db, func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}
}

// setupContainers starts PostgreSQL and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	db, cleanupPG := setupPostgres(t)

	// confluent-local runs KRaft without a separate ZooKeeper.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBookingEvents, events.TopicAccountEvents,
		kafka.DeadLetterTopic(events.TopicAccountEvents))

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		cleanupPG()
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupServiceStack wires the services on PostgreSQL. With no brokers the
// services run without an event producer.
func setupServiceStack(t *testing.T, db *gorm.DB, brokers []string, lockTimeout time.Duration) *serviceStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookings := repository.NewGormBookingRepository(db)
	tours := repository.NewGormTourRepository(db)
	ledgers := repository.NewGormLedgerRepository(db)
	categories := repository.NewGormCategoryRepository(db)
	accounts := repository.NewGormAccountRepository(db)
	uow := repository.NewGormUnitOfWork(db, lockTimeout, logger)
	retry := application.RetryPolicy{MaxRetries: 5, InitialInterval: 10 * time.Millisecond, MaxInterval: 100 * time.Millisecond}

	stack := &serviceStack{UnitOfWork: uow, CleanupProducer: func() {}}

	var producer application.EventPublisher
	if len(brokers) > 0 {
		p := kafka.NewProducer(brokers, logger)
		producer = p
		stack.CleanupProducer = func() { _ = p.Close() }
	}

	stack.Admission = application.NewAdmissionService(bookings, tours, ledgers, uow, producer, logger,
		application.WithRetryPolicy(retry))
	stack.Tours = application.NewTourService(tours, categories, ledgers, uow, retry, logger)
	stack.Categories = application.NewCategoryService(categories, logger)
	jwtManager := auth.NewJWTManager("integration-secret", 15*time.Minute, time.Hour)
	stack.Accounts = application.NewAccountService(accounts, jwtManager, producer, logger)

	if len(brokers) > 0 {
		groupID := fmt.Sprintf("test-booking-%s", uuid.New().String()[:8])
		stack.Consumer = bookingEvents.NewAccountEventConsumer(brokers, groupID, stack.Admission, logger)
	}
	return stack
}

// seedTour creates a category and an active tour with the given capacity.
func seedTour(t *testing.T, stack *serviceStack, staff application.Actor, maxPeople int) *application.TourDTO {
	t.Helper()
	ctx := context.Background()

	cat, err := stack.Categories.CreateCategory(ctx, staff, application.CategoryRequest{Name: "Walks " + uuid.NewString()[:8]})
	require.NoError(t, err)

	tour, err := stack.Tours.CreateTour(ctx, staff, application.CreateTourRequest{
		Title:      "Canal walk",
		CategoryID: cat.ID,
		City:       "Amsterdam",
		Country:    "Netherlands",
		PriceCents: 3000,
		StartDate:  "2026-09-01",
		EndDate:    "2026-09-01",
		MaxPeople:  maxPeople,
	})
	require.NoError(t, err)
	return tour
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForBookingStatus polls the bookings table until the status matches.
func waitForBookingStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expectedStatus string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Topic metadata needs a moment to propagate.
	time.Sleep(1 * time.Second)
}
