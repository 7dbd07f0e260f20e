package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultAddr    = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

type Config struct {
	// Base URL of the wallet service
	Addr string

	// Bound of a single API call
	Timeout time.Duration

	Limit  int
	Offset int

	// Client fields and filters
	Surname    string
	Name       string
	Patronymic string
	Wallet     string
	Balance    string

	// Transaction fields and filters
	GUID            string
	Timestamp       string
	Sender          string
	Recipient       string
	CurrencyType    string
	TransactionType string
}

func NewConfig() *Config {
	return &Config{
		Addr:            defaultAddr,
		Timeout:         defaultTimeout,
		CurrencyType:    "Bitcoin",
		TransactionType: "Transaction",
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	if v := getenv("WALLET_API_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("WALLET_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}

// ParseFlags sets the options found in args and returns the positional
// arguments, the command first.
func (c *Config) ParseFlags(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("walletctl", pflag.ContinueOnError)

	fs.StringVarP(&c.Addr, "addr", "a", c.Addr, "Wallet service base URL")
	fs.DurationVarP(&c.Timeout, "timeout", "t", c.Timeout, "Timeout of a single call")
	fs.IntVarP(&c.Limit, "limit", "n", c.Limit, "Page size, the service default when zero")
	fs.IntVarP(&c.Offset, "offset", "o", c.Offset, "Rows to skip")

	fs.StringVar(&c.Surname, "surname", c.Surname, "Client surname")
	fs.StringVar(&c.Name, "name", c.Name, "Client name")
	fs.StringVar(&c.Patronymic, "patronymic", c.Patronymic, "Client patronymic")
	fs.StringVarP(&c.Wallet, "wallet", "w", c.Wallet, "Wallet number of a new client, generated when empty")
	fs.StringVarP(&c.Balance, "balance", "b", c.Balance, "Opening balance of a new client")

	fs.StringVarP(&c.GUID, "guid", "g", c.GUID, "Identifier of a new transaction, generated when empty")
	fs.StringVar(&c.Timestamp, "timestamp", c.Timestamp, "Transaction time stamp")
	fs.StringVar(&c.Sender, "sender", c.Sender, "Sender wallet filter")
	fs.StringVar(&c.Recipient, "recipient", c.Recipient, "Recipient wallet filter")
	fs.StringVar(&c.CurrencyType, "currency", c.CurrencyType, "Currency of a new transaction")
	fs.StringVar(&c.TransactionType, "type", c.TransactionType, "Type of a new transaction")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
