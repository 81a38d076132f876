// Command client drives the checkout flow from a terminal against a running
// checkout backend, confirming payments with a Stripe test card.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/saas-checkout/checkout"
	"go.vocdoni.io/dvote/log"
)

const actionCancel = "cancel"

// terminalAlerter prints the alerts and reads the prompts from stdin.
type terminalAlerter struct {
	in *bufio.Reader
}

func (*terminalAlerter) Alert(msg string) {
	fmt.Printf(">> %s\n", msg)
}

func (t *terminalAlerter) Prompt(msg string) string {
	fmt.Printf("%s ", msg)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func main() {
	if err := run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	flag.String("api-endpoint", "http://localhost:5000", "checkout backend URL")
	flag.String("action", checkout.ModeOneTime.String(), "one-time, subscription or cancel")
	flag.Int64("amount", 0, "amount to pay in one-time mode")
	flag.String("email", "", "customer email in subscription mode")
	flag.String("price-id", "", "price to subscribe to, the backend default if empty")
	flag.String("stripe-secret-key", "", "Stripe test mode secret key used to confirm the payments")
	flag.String("card-token", "tok_visa", "Stripe test card token")
	flag.String("log-level", "warn", "log level")
	flag.Parse()
	viper.SetEnvPrefix("CHECKOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		return err
	}
	viper.AutomaticEnv()
	log.Init(viper.GetString("log-level"), "stdout", nil)

	client := checkout.NewClient(viper.GetString("api-endpoint"))
	alerter := &terminalAlerter{in: bufio.NewReader(os.Stdin)}
	action := viper.GetString("action")
	if action == actionCancel {
		flow := checkout.NewFlow(client, nil, alerter, "")
		flow.CancelSubscription()
		return nil
	}

	mode, err := checkout.ParseMode(action)
	if err != nil {
		return err
	}
	secretKey := viper.GetString("stripe-secret-key")
	if secretKey == "" {
		return fmt.Errorf("--stripe-secret-key is required to confirm payments")
	}
	conf, err := client.Config()
	if err != nil {
		return fmt.Errorf("load checkout settings: %w", err)
	}
	log.Infow("checkout settings", "currency", conf.Currency, "multiplier", conf.AmountMultiplier, "price", conf.PriceID)

	confirmer := newStripeConfirmer(secretKey, viper.GetString("card-token"))
	flow := checkout.NewFlow(client, confirmer, alerter, viper.GetString("price-id"))
	flow.SetMode(mode)

	amount := viper.GetInt64("amount")
	email := viper.GetString("email")
	switch mode {
	case checkout.ModeOneTime:
		if amount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}
	case checkout.ModeSubscription:
		if email == "" {
			email = alerter.Prompt("Enter email:")
		}
	}
	if _, err := flow.Submit(amount, email); err != nil {
		return err
	}
	return nil
}
