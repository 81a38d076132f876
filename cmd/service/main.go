package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/saas-checkout/api"
	"github.com/vocdoni/saas-checkout/db"
	"github.com/vocdoni/saas-checkout/db/mongo"
	"github.com/vocdoni/saas-checkout/db/mysql"
	"github.com/vocdoni/saas-checkout/stripe"
	"go.vocdoni.io/dvote/log"
)

func main() {
	// a .env file in the working directory is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 5000, "listen port")
	flag.StringSlice("allowed-origins", []string{api.DefaultAllowedOrigin}, "origins allowed by CORS")
	flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.String("stripe-secret-key", "", "Stripe API secret key")
	flag.String("stripe-webhook-secret", "", "Stripe webhook signing secret")
	flag.String("stripe-publishable-key", "", "Stripe publishable key served to the checkout page")
	flag.String("stripe-price-id", "", "Stripe price used by default for subscriptions")
	flag.String("currency", stripe.DefaultCurrency, "currency of one-time payments")
	flag.Int64("amount-multiplier", stripe.DefaultAmountMultiplier, "multiplier applied to one-time payment amounts")
	flag.Bool("ack-on-failure", true, "acknowledge webhook events that could not be persisted")
	flag.String("db-driver", "mongo", "storage backend (mongo or mysql)")
	flag.String("mongo-url", "", "The URL of the MongoDB server")
	flag.String("mongo-db", "checkout", "The name of the MongoDB database")
	flag.String("mysql-dsn", "", "MySQL data source name, overrides the db-* flags")
	flag.String("db-host", "localhost", "MySQL host")
	flag.Int("db-port", 3306, "MySQL port")
	flag.String("db-user", "", "MySQL user")
	flag.String("db-password", "", "MySQL password")
	flag.String("db-name", "checkout", "MySQL database")
	flag.String("redis-url", "", "Redis URL for the processed webhook events, in memory if empty")
	flag.Duration("event-ttl", stripe.DefaultEventTTL, "how long processed webhook events are remembered")
	flag.String("sentry-dsn", "", "Sentry DSN to report webhook persistence failures")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("CHECKOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()

	log.Init(viper.GetString("log-level"), "stdout", nil)
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	stripeConf, err := stripeConfig(viper.GetViper())
	if err != nil {
		log.Fatalf("invalid stripe configuration: %v", err)
	}

	// error reporting
	if dsn := viper.GetString("sentry-dsn"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, AttachStacktrace: true}); err != nil {
			log.Fatalf("could not initialize sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
		log.Infow("sentry error reporting enabled")
	}

	// initialize the database
	storage := newStorage(viper.GetString("db-driver"))
	defer storage.Close()

	// processed webhook events
	var events stripe.EventStore
	ttl := viper.GetDuration("event-ttl")
	if redisURL := viper.GetString("redis-url"); redisURL != "" {
		redisStore, err := stripe.NewRedisEventStore(redisURL, ttl)
		if err != nil {
			log.Fatalf("could not connect to redis: %v", err)
		}
		defer redisStore.Close()
		events = redisStore
		log.Infow("webhook events stored in redis")
	} else {
		memStore := stripe.NewMemoryEventStore(ttl)
		defer memStore.Close()
		events = memStore
	}

	service, err := stripe.NewService(stripeConf, nil, storage, events)
	if err != nil {
		log.Fatalf("could not create the stripe service: %v", err)
	}

	// create the local API server
	server := api.New(&api.Config{
		Host:           host,
		Port:           port,
		AllowedOrigins: viper.GetStringSlice("allowed-origins"),
		Stripe:         service,
	})
	server.Start()
	log.Infow("server started", "host", host, "port", port)

	// wait until the process is asked to stop
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warnw("server shutdown", "error", err)
	}
}

// newStorage opens the configured storage backend.
func newStorage(driver string) db.Storage {
	switch driver {
	case "mongo":
		storage, err := mongo.New(viper.GetString("mongo-url"), viper.GetString("mongo-db"))
		if err != nil {
			log.Fatalf("could not create the MongoDB database: %v", err)
		}
		return storage
	case "mysql":
		storage, err := mysql.New(&mysql.Config{
			DSN:      viper.GetString("mysql-dsn"),
			Host:     viper.GetString("db-host"),
			Port:     viper.GetInt("db-port"),
			User:     viper.GetString("db-user"),
			Password: viper.GetString("db-password"),
			Database: viper.GetString("db-name"),
		})
		if err != nil {
			log.Fatalf("could not create the MySQL database: %v", err)
		}
		return storage
	default:
		log.Fatalf("unknown db driver %q", driver)
	}
	return nil
}
